package chainstate

import "errors"

// Chain-core error kinds, surfaced to callers and never recovered
// locally. Checked with errors.Is, grounded on the teacher's
// fmt.Errorf("...: %w", err) wrapping idiom but tightened to sentinels
// since callers must distinguish error kinds, not just messages.
var (
	ErrInvalidBlock       = errors.New("chainstate: invalid block")
	ErrInvalidBlockHeader = errors.New("chainstate: invalid block header")
	ErrInvalidMerkleRoot  = errors.New("chainstate: invalid merkle root")
	ErrInvalidTransaction = errors.New("chainstate: invalid transaction")
	ErrInvalidSignature   = errors.New("chainstate: invalid signature")
	ErrDoubleSpending     = errors.New("chainstate: double spending")
)
