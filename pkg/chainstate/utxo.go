package chainstate

import (
	"github.com/ledgerforge/chain/pkg/block"
	"github.com/ledgerforge/chain/pkg/hash"
)

// utxoEntry pairs a TransactionOutput with its ephemeral soft
// reservation flag. The flag coordinates the mempool only: it is never
// persisted and never consulted by block validation.
type utxoEntry struct {
	reserved bool
	output   block.TransactionOutput
}

// UTXOSet maps a TransactionOutput's own hash to its entry. Keying by
// the output's own hash (not the owning transaction's hash) is
// deliberate: keying by transaction hash would silently drop every
// output but one in a multi-output transaction.
type UTXOSet struct {
	byOutputHash map[hash.Hash]utxoEntry
}

// NewUTXOSet returns an empty UTXO set.
func NewUTXOSet() *UTXOSet {
	return &UTXOSet{byOutputHash: make(map[hash.Hash]utxoEntry)}
}

// Get returns the output stored at h, its reservation flag, and whether
// it was found. Satisfies mempool.UTXOLookup.
func (s *UTXOSet) Get(h hash.Hash) (block.TransactionOutput, bool, bool) {
	e, ok := s.byOutputHash[h]
	return e.output, e.reserved, ok
}

// SetReserved toggles the reservation flag on an existing entry; a
// no-op if h is not present. Satisfies mempool.UTXOLookup.
func (s *UTXOSet) SetReserved(h hash.Hash, reserved bool) {
	if e, ok := s.byOutputHash[h]; ok {
		e.reserved = reserved
		s.byOutputHash[h] = e
	}
}

// Insert adds or overwrites an output, defaulting reserved to false.
func (s *UTXOSet) Insert(out block.TransactionOutput) {
	s.byOutputHash[out.Hash()] = utxoEntry{output: out}
}

// Remove deletes the entry at h, if any.
func (s *UTXOSet) Remove(h hash.Hash) {
	delete(s.byOutputHash, h)
}

// Len returns the number of unspent outputs currently tracked.
func (s *UTXOSet) Len() int { return len(s.byOutputHash) }

// OutputsFor returns every output currently belonging to pub.
func (s *UTXOSet) OutputsFor(pub string) []block.TransactionOutput {
	var out []block.TransactionOutput
	for _, e := range s.byOutputHash {
		if e.output.PubKey.String() == pub {
			out = append(out, e.output)
		}
	}
	return out
}

// Reset clears the set in place, used by rebuild_utxos's full rescan.
func (s *UTXOSet) Reset() {
	s.byOutputHash = make(map[hash.Hash]utxoEntry)
}

// SnapshotFor returns every (output, reserved) pair owned by pub, for
// FetchUTXOs responses that must report the reservation flag alongside
// the output.
func (s *UTXOSet) SnapshotFor(pub string) []UTXOView {
	var out []UTXOView
	for _, e := range s.byOutputHash {
		if e.output.PubKey.String() == pub {
			out = append(out, UTXOView{Output: e.output, Reserved: e.reserved})
		}
	}
	return out
}

// UTXOView is an output paired with its current reservation flag, the
// shape FetchUTXOs returns over the wire.
type UTXOView struct {
	Output   block.TransactionOutput
	Reserved bool
}
