// Package mempool holds admitted, not-yet-mined transactions, ordered
// by descending miner fee. It is not itself safe for concurrent use;
// callers (pkg/chainstate) serialize access behind the blockchain's
// single readers-writer lock, the same "one lock guards one state
// machine" discipline the teacher's chain.Chain follows.
package mempool

import (
	"container/heap"
	"errors"
	"time"

	"github.com/ledgerforge/chain/pkg/block"
	"github.com/ledgerforge/chain/pkg/hash"
)

// ErrInvalidTransaction is returned when a transaction cannot be
// admitted: an unknown or duplicated input, or inputs summing to less
// than outputs.
var ErrInvalidTransaction = errors.New("mempool: invalid transaction")

// UTXOLookup is the view of the UTXO set the mempool needs: resolving
// referenced outputs and toggling the soft reservation flag. Satisfied
// by *chainstate.UTXOSet.
type UTXOLookup interface {
	Get(h hash.Hash) (out block.TransactionOutput, reserved bool, ok bool)
	SetReserved(h hash.Hash, reserved bool)
}

// Entry is one admitted, unconfirmed transaction.
type Entry struct {
	Tx          block.Transaction
	ArrivalTime time.Time
	Fee         uint64

	index int // heap.Interface bookkeeping
}

// entryHeap is a max-heap ordered by descending fee, mirroring the
// teacher's TransactionHeap container/heap adapter.
type entryHeap []*Entry

func (h entryHeap) Len() int            { return len(h) }
func (h entryHeap) Less(i, j int) bool  { return h[i].Fee > h[j].Fee }
func (h entryHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i]; h[i].index = i; h[j].index = j }
func (h *entryHeap) Push(x interface{}) {
	e := x.(*Entry)
	e.index = len(*h)
	*h = append(*h, e)
}
func (h *entryHeap) Pop() interface{} {
	old := *h
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	e.index = -1
	*h = old[:n-1]
	return e
}

// Mempool holds admitted transactions keyed by hash, ordered for
// fee-priority selection.
type Mempool struct {
	byHash map[hash.Hash]*Entry
	order  entryHeap
}

// New returns an empty mempool.
func New() *Mempool {
	return &Mempool{byHash: make(map[hash.Hash]*Entry)}
}

// Len returns the number of admitted transactions.
func (m *Mempool) Len() int { return len(m.byHash) }

// Has reports whether h is already admitted.
func (m *Mempool) Has(h hash.Hash) bool {
	_, ok := m.byHash[h]
	return ok
}

// findProducer returns the mempool entry whose outputs include an
// output hashing to h, if any.
func (m *Mempool) findProducer(h hash.Hash) *Entry {
	for _, e := range m.order {
		for _, out := range e.Tx.Outputs {
			if out.Hash() == h {
				return e
			}
		}
	}
	return nil
}

// removeEntry drops e from both the hash index and the priority heap.
func (m *Mempool) removeEntry(e *Entry) {
	delete(m.byHash, e.Tx.Hash())
	if e.index >= 0 && e.index < len(m.order) && m.order[e.index] == e {
		heap.Remove(&m.order, e.index)
	}
}

// AddTransaction admits tx, displacing any mempool transaction that
// produced a UTXO tx is double-spending, per the reservation-displacement
// rule: a reserved UTXO's producing transaction is evicted and its own
// reservations cleared; if no producer is found in the mempool, the
// reservation is simply cleared. Reservations are never set here — only
// FetchTemplate sets them.
func (m *Mempool) AddTransaction(tx block.Transaction, utxos UTXOLookup, now time.Time) error {
	// Pass 1: collect referenced UTXOs and reject outright, with zero
	// mutation, on any unknown or duplicated input. Only once every
	// input is known good does pass 2 perform displacement.
	seen := make(map[hash.Hash]bool, len(tx.Inputs))
	var inputSum uint64
	for _, in := range tx.Inputs {
		h := in.PrevTransactionOutputHash
		if seen[h] {
			return ErrInvalidTransaction
		}
		seen[h] = true

		out, _, ok := utxos.Get(h)
		if !ok {
			return ErrInvalidTransaction
		}
		inputSum += out.Value
	}

	outputSum := tx.OutputSum()
	if inputSum < outputSum {
		return ErrInvalidTransaction
	}

	// Pass 2: tx is admissible, now perform displacement.
	for _, in := range tx.Inputs {
		h := in.PrevTransactionOutputHash
		_, reserved, _ := utxos.Get(h)
		if !reserved {
			continue
		}
		if producer := m.findProducer(h); producer != nil {
			for _, pin := range producer.Tx.Inputs {
				utxos.SetReserved(pin.PrevTransactionOutputHash, false)
			}
			m.removeEntry(producer)
		} else {
			utxos.SetReserved(h, false)
		}
	}

	e := &Entry{Tx: tx, ArrivalTime: now, Fee: inputSum - outputSum}
	m.byHash[tx.Hash()] = e
	heap.Push(&m.order, e)
	return nil
}

// RemoveByHash drops admitted transactions matching the given hashes,
// e.g. after they have been mined into an accepted block. It does not
// touch UTXO reservations — the chain's rebuild_utxos pass owns that.
func (m *Mempool) RemoveByHash(hashes map[hash.Hash]bool) {
	for h := range hashes {
		if e, ok := m.byHash[h]; ok {
			m.removeEntry(e)
		}
	}
}

// Cleanup evicts every entry older than maxAge as of now, clearing the
// reservation on each UTXO it consumed.
func (m *Mempool) Cleanup(utxos UTXOLookup, maxAge time.Duration, now time.Time) int {
	var stale []*Entry
	for _, e := range m.byHash {
		if now.Sub(e.ArrivalTime) > maxAge {
			stale = append(stale, e)
		}
	}
	for _, e := range stale {
		for _, in := range e.Tx.Inputs {
			utxos.SetReserved(in.PrevTransactionOutputHash, false)
		}
		m.removeEntry(e)
	}
	return len(stale)
}

// SelectForTemplate returns up to limit transactions in descending-fee
// order without removing them from the mempool, mirroring the teacher's
// GetTransactionsForBlock (copy the heap, pop highest-fee-first).
func (m *Mempool) SelectForTemplate(limit int) []block.Transaction {
	cp := make(entryHeap, len(m.order))
	copy(cp, m.order)
	for i := range cp {
		cp[i] = &Entry{Tx: cp[i].Tx, ArrivalTime: cp[i].ArrivalTime, Fee: cp[i].Fee, index: i}
	}
	heap.Init(&cp)

	out := make([]block.Transaction, 0, limit)
	for len(out) < limit && cp.Len() > 0 {
		e := heap.Pop(&cp).(*Entry)
		out = append(out, e.Tx)
	}
	return out
}
