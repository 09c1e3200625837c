// Package hash provides the fixed-width Hash and Target types shared by
// every layer of the ledger, plus the canonical field encoder used to
// build every hash preimage in the repo.
package hash

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"math/big"
)

// Size is the width in bytes of a Hash.
const Size = 32

// Hash is a fixed-width SHA-256 digest.
type Hash [Size]byte

// String renders the hash as lowercase hex, most significant byte first.
func (h Hash) String() string { return hex.EncodeToString(h[:]) }

// IsZero reports whether h is the all-zero hash (used for the genesis
// block's PrevBlockHash sentinel).
func (h Hash) IsZero() bool { return h == Hash{} }

// Big returns h interpreted as a big-endian unsigned integer, used to
// compare a block's hash against its Target.
func (h Hash) Big() *big.Int { return new(big.Int).SetBytes(h[:]) }

// Less reports whether h < other when both are read as big-endian
// unsigned integers.
func (h Hash) Less(other Hash) bool { return h.Big().Cmp(other.Big()) < 0 }

// Sum hashes an arbitrary byte slice with SHA-256.
func Sum(b []byte) Hash { return Hash(sha256.Sum256(b)) }

// Target is a 256-bit unsigned proof-of-work threshold: a block is valid
// only if its header hash, read as a big-endian integer, is <= Target.
type Target struct {
	v *big.Int
}

// NewTarget wraps v as a Target, clamping negative values to zero.
func NewTarget(v *big.Int) Target {
	if v == nil {
		return Target{v: big.NewInt(0)}
	}
	if v.Sign() < 0 {
		return Target{v: big.NewInt(0)}
	}
	return Target{v: new(big.Int).Set(v)}
}

// Int returns the underlying big.Int. Callers must not mutate it.
func (t Target) Int() *big.Int { return t.v }

// Meets reports whether h, read as a big-endian integer, is <= t.
func (t Target) Meets(h Hash) bool { return h.Big().Cmp(t.v) <= 0 }

// Scale multiplies t by num/den (integer division, floor), used by
// difficulty retargeting.
func (t Target) Scale(num, den int64) Target {
	scaled := new(big.Int).Mul(t.v, big.NewInt(num))
	scaled.Div(scaled, big.NewInt(den))
	return NewTarget(scaled)
}

// Bytes32 renders t as a fixed 32-byte big-endian buffer (for framing
// into the wire codec and block headers).
func (t Target) Bytes32() [Size]byte {
	var out [Size]byte
	b := t.v.Bytes()
	if len(b) > Size {
		b = b[len(b)-Size:]
	}
	copy(out[Size-len(b):], b)
	return out
}

// TargetFromBytes32 is the inverse of Bytes32.
func TargetFromBytes32(b [Size]byte) Target {
	return NewTarget(new(big.Int).SetBytes(b[:]))
}

// Encoder builds a deterministic byte preimage field-by-field, the same
// manual big-endian-concatenation idiom used throughout this repo's
// hash-preimage and wire-codec functions, generalized into one helper
// instead of being re-hand-rolled per call site.
type Encoder struct {
	buf []byte
}

// NewEncoder returns an empty Encoder, optionally pre-sizing its buffer.
func NewEncoder(sizeHint int) *Encoder {
	return &Encoder{buf: make([]byte, 0, sizeHint)}
}

func (e *Encoder) Bytes() []byte { return e.buf }

func (e *Encoder) Hash() Hash { return Sum(e.buf) }

func (e *Encoder) PutUint8(v uint8) *Encoder {
	e.buf = append(e.buf, v)
	return e
}

func (e *Encoder) PutUint32(v uint32) *Encoder {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	e.buf = append(e.buf, b[:]...)
	return e
}

func (e *Encoder) PutUint64(v uint64) *Encoder {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	e.buf = append(e.buf, b[:]...)
	return e
}

// PutBytes appends a length-prefixed byte slice so variable-length
// fields cannot be confused with adjacent ones.
func (e *Encoder) PutBytes(b []byte) *Encoder {
	e.PutUint32(uint32(len(b)))
	e.buf = append(e.buf, b...)
	return e
}

// PutRaw appends b with no length prefix, for fixed-width fields.
func (e *Encoder) PutRaw(b []byte) *Encoder {
	e.buf = append(e.buf, b...)
	return e
}
