package block

import (
	"time"

	"github.com/ledgerforge/chain/pkg/hash"
)

// BlockHeader is the proof-of-work-bearing summary of a block.
type BlockHeader struct {
	Timestamp     time.Time
	Nonce         uint64
	PrevBlockHash hash.Hash
	MerkleRoot    MerkleRoot
	Target        hash.Target
}

// Hash is the Hash of the header's canonical encoding.
func (h BlockHeader) Hash() hash.Hash {
	enc := hash.NewEncoder(96)
	enc.PutUint64(uint64(h.Timestamp.UTC().UnixNano()))
	enc.PutUint64(h.Nonce)
	enc.PutRaw(h.PrevBlockHash[:])
	enc.PutRaw(h.MerkleRoot.Hash[:])
	tb := h.Target.Bytes32()
	enc.PutRaw(tb[:])
	return enc.Hash()
}

// IsProofOfWorkValid reports whether the header's hash meets its target.
func (h BlockHeader) IsProofOfWorkValid() bool {
	return h.Target.Meets(h.Hash())
}

// Mine attempts up to steps nonce values, returning true as soon as one
// produces a hash meeting the target. On nonce wraparound it resets the
// nonce to zero and refreshes the timestamp, matching the reference
// mining loop's overflow handling. Callers loop until Mine returns true.
func (h *BlockHeader) Mine(steps uint64) bool {
	for i := uint64(0); i < steps; i++ {
		if h.IsProofOfWorkValid() {
			return true
		}
		if h.Nonce == ^uint64(0) {
			h.Nonce = 0
			h.Timestamp = time.Now().UTC()
		} else {
			h.Nonce++
		}
	}
	return false
}
