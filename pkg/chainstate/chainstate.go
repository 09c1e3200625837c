// Package chainstate implements the node-side consensus state machine:
// the append-only block list, the UTXO index, difficulty retargeting
// and template construction. It is the Go analogue of the teacher's
// pkg/chain.Chain, stripped of fork-choice/reorg machinery the spec's
// single-chain design rules out, and with the UTXO index correctly
// keyed by output hash rather than transaction hash.
package chainstate

import (
	"fmt"
	"sync"
	"time"

	"github.com/ledgerforge/chain/pkg/block"
	"github.com/ledgerforge/chain/pkg/hash"
	"github.com/ledgerforge/chain/pkg/mempool"
	"github.com/ledgerforge/chain/pkg/xsig"
)

// Blockchain is the process-wide, single-chain ledger state. One
// sync.RWMutex guards every field; handlers must acquire, mutate,
// release, then perform any network I/O — never hold the lock across a
// send/receive, mirroring the teacher's chain.Chain discipline.
type Blockchain struct {
	mu      sync.RWMutex
	blocks  []block.Block
	utxos   *UTXOSet
	target  hash.Target
	mempool *mempool.Mempool
}

// New returns an empty Blockchain ready to accept a genesis block.
func New() *Blockchain {
	return &Blockchain{
		utxos:   NewUTXOSet(),
		target:  block.MinTarget(),
		mempool: mempool.New(),
	}
}

// Height returns the number of accepted blocks.
func (bc *Blockchain) Height() int {
	bc.mu.RLock()
	defer bc.mu.RUnlock()
	return len(bc.blocks)
}

// LastBlock returns the most recently accepted block and true, or the
// zero value and false if the chain is empty.
func (bc *Blockchain) LastBlock() (block.Block, bool) {
	bc.mu.RLock()
	defer bc.mu.RUnlock()
	if len(bc.blocks) == 0 {
		return block.Block{}, false
	}
	return bc.blocks[len(bc.blocks)-1], true
}

// BlockAt returns the block at the given zero-based index.
func (bc *Blockchain) BlockAt(i int) (block.Block, bool) {
	bc.mu.RLock()
	defer bc.mu.RUnlock()
	if i < 0 || i >= len(bc.blocks) {
		return block.Block{}, false
	}
	return bc.blocks[i], true
}

// Target returns the current difficulty target.
func (bc *Blockchain) Target() hash.Target {
	bc.mu.RLock()
	defer bc.mu.RUnlock()
	return bc.target
}

// UTXOsFor returns the current (output, reserved) views for pub.
func (bc *Blockchain) UTXOsFor(pub xsig.PublicKey) []UTXOView {
	bc.mu.RLock()
	defer bc.mu.RUnlock()
	return bc.utxos.SnapshotFor(pub.String())
}

// MempoolLen reports the number of admitted, unconfirmed transactions.
func (bc *Blockchain) MempoolLen() int {
	bc.mu.RLock()
	defer bc.mu.RUnlock()
	return bc.mempool.Len()
}

// tipHash returns the hash of the current tip, or the zero hash if the
// chain is empty (the genesis sentinel).
func (bc *Blockchain) tipHash() hash.Hash {
	if len(bc.blocks) == 0 {
		return hash.Hash{}
	}
	return bc.blocks[len(bc.blocks)-1].Header.Hash()
}

// AddBlock validates and, on success, appends b to the chain, drops any
// now-mined transactions from the mempool, and retargets if due. It does
// not touch the UTXO index; call RebuildUTXOs afterwards.
func (bc *Blockchain) AddBlock(b block.Block) error {
	bc.mu.Lock()
	defer bc.mu.Unlock()

	if len(bc.blocks) == 0 {
		if !b.Header.PrevBlockHash.IsZero() {
			return fmt.Errorf("%w: genesis must reference the zero hash", ErrInvalidBlock)
		}
		bc.blocks = append(bc.blocks, b)
		bc.dropMined(b)
		bc.tryAdjustTargetLocked()
		return nil
	}

	last := bc.blocks[len(bc.blocks)-1]
	if b.Header.PrevBlockHash != last.Header.Hash() {
		return fmt.Errorf("%w: prev_block_hash does not match tip", ErrInvalidBlock)
	}
	if !b.Header.IsProofOfWorkValid() {
		return fmt.Errorf("%w: hash does not meet target", ErrInvalidBlock)
	}
	if recomputed := block.ComputeMerkleRoot(b.Transactions); recomputed.Hash != b.Header.MerkleRoot.Hash {
		return ErrInvalidMerkleRoot
	}
	if !b.Header.Timestamp.After(last.Header.Timestamp) {
		return fmt.Errorf("%w: timestamp not strictly increasing", ErrInvalidBlockHeader)
	}
	if err := verifyTransactions(b, len(bc.blocks), bc.utxos); err != nil {
		return err
	}

	bc.blocks = append(bc.blocks, b)
	bc.dropMined(b)
	bc.tryAdjustTargetLocked()
	return nil
}

// dropMined removes from the mempool any transaction whose hash matches
// one now confirmed in b.
func (bc *Blockchain) dropMined(b block.Block) {
	mined := make(map[hash.Hash]bool, len(b.Transactions))
	for _, tx := range b.Transactions {
		mined[tx.Hash()] = true
	}
	bc.mempool.RemoveByHash(mined)
}

// tryAdjustTargetLocked recomputes bc.target every DifficultyUpdateInterval
// blocks. Callers must hold bc.mu for writing.
func (bc *Blockchain) tryAdjustTargetLocked() {
	n := uint64(len(bc.blocks))
	interval := block.DifficultyUpdateInterval
	if n == 0 || n%interval != 0 {
		return
	}

	first := bc.blocks[n-interval]
	last := bc.blocks[n-1]
	deltaT := last.Header.Timestamp.Sub(first.Header.Timestamp)
	if deltaT < 0 {
		deltaT = 0
	}
	idealTotal := block.IdealBlockTime * time.Duration(interval)

	newTarget := bc.target.Scale(int64(deltaT), int64(idealTotal))

	quarter := bc.target.Scale(1, 4)
	quadruple := bc.target.Scale(4, 1)
	if newTarget.Int().Cmp(quarter.Int()) < 0 {
		newTarget = quarter
	}
	if newTarget.Int().Cmp(quadruple.Int()) > 0 {
		newTarget = quadruple
	}

	minTarget := block.MinTarget()
	if newTarget.Int().Cmp(minTarget.Int()) > 0 {
		newTarget = minTarget
	}
	bc.target = newTarget
}

// RebuildUTXOs performs an idempotent full rescan of every block's
// transactions in order, removing UTXOs consumed by inputs and
// inserting every output, keyed by the output's own hash with
// reserved=false.
func (bc *Blockchain) RebuildUTXOs() {
	bc.mu.Lock()
	defer bc.mu.Unlock()
	bc.rebuildUTXOsLocked()
}

func (bc *Blockchain) rebuildUTXOsLocked() {
	bc.utxos.Reset()
	for _, b := range bc.blocks {
		for _, tx := range b.Transactions {
			for _, in := range tx.Inputs {
				bc.utxos.Remove(in.PrevTransactionOutputHash)
			}
			for _, out := range tx.Outputs {
				bc.utxos.Insert(out)
			}
		}
	}
}

// AddTransactionToMempool validates and admits tx.
func (bc *Blockchain) AddTransactionToMempool(tx block.Transaction) error {
	bc.mu.Lock()
	defer bc.mu.Unlock()
	if err := bc.mempool.AddTransaction(tx, bc.utxos, time.Now().UTC()); err != nil {
		return fmt.Errorf("%w", ErrInvalidTransaction)
	}
	return nil
}

// CleanupMempool evicts admitted transactions older than
// block.MaxMempoolTxAge, clearing their reservations.
func (bc *Blockchain) CleanupMempool() int {
	bc.mu.Lock()
	defer bc.mu.Unlock()
	return bc.mempool.Cleanup(bc.utxos, block.MaxMempoolTxAge, time.Now().UTC())
}

// TryAdjustTarget is the exported, lock-acquiring form of
// tryAdjustTargetLocked, for callers outside AddBlock (namely, loading a
// persisted chain).
func (bc *Blockchain) TryAdjustTarget() {
	bc.mu.Lock()
	defer bc.mu.Unlock()
	bc.tryAdjustTargetLocked()
}

// Blocks returns a copy of the accepted block list, in order, for
// persistence.
func (bc *Blockchain) Blocks() []block.Block {
	bc.mu.RLock()
	defer bc.mu.RUnlock()
	out := make([]block.Block, len(bc.blocks))
	copy(out, bc.blocks)
	return out
}

// LoadBlocks replaces the chain's block list and target with a
// previously persisted snapshot. Callers must follow with RebuildUTXOs
// and TryAdjustTarget, per the persisted-file load sequence.
func (bc *Blockchain) LoadBlocks(blocks []block.Block, target hash.Target) {
	bc.mu.Lock()
	defer bc.mu.Unlock()
	bc.blocks = blocks
	bc.target = target
}
