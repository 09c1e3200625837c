// Package xsig provides the secp256k1 key and signature types shared by
// the chain core, miner and wallet. Signatures are canonicalized to
// low-S form, the same convention the teacher's wallet package enforces.
package xsig

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/btcsuite/btcd/btcec/v2"
	btcecdsa "github.com/btcsuite/btcd/btcec/v2/ecdsa"

	"github.com/ledgerforge/chain/pkg/hash"
)

// ErrInvalidSignature describes a signature that does not check out
// against the claimed public key and message. Verify itself reports
// that case by returning false, not this error.
var ErrInvalidSignature = errors.New("xsig: invalid signature")

// PublicKey is a compressed secp256k1 public key, used directly (no
// address/pubkey-hash indirection) as the spend target of transaction
// outputs.
type PublicKey struct {
	key *btcec.PublicKey
}

// PrivateKey is a secp256k1 signing key.
type PrivateKey struct {
	key *btcec.PrivateKey
}

// Signature is a DER-encoded, canonical (low-S) ECDSA signature.
type Signature struct {
	der []byte
}

// GeneratePrivateKey creates a fresh random signing key.
func GeneratePrivateKey() (PrivateKey, error) {
	k, err := btcec.NewPrivateKey()
	if err != nil {
		return PrivateKey{}, fmt.Errorf("xsig: generate key: %w", err)
	}
	return PrivateKey{key: k}, nil
}

// Public returns the public key matching priv.
func (priv PrivateKey) Public() PublicKey {
	return PublicKey{key: priv.key.PubKey()}
}

// Bytes returns the raw 32-byte scalar of the private key, for key-file
// serialization.
func (priv PrivateKey) Bytes() []byte {
	b := priv.key.Serialize()
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

// PrivateKeyFromBytes parses a raw 32-byte scalar back into a PrivateKey.
func PrivateKeyFromBytes(b []byte) (PrivateKey, error) {
	if len(b) != 32 {
		return PrivateKey{}, fmt.Errorf("xsig: private key must be 32 bytes, got %d", len(b))
	}
	k, _ := btcec.PrivKeyFromBytes(b)
	return PrivateKey{key: k}, nil
}

// Sign produces a canonical (low-S) ECDSA signature over msg's digest.
func (priv PrivateKey) Sign(msg hash.Hash) Signature {
	sig := btcecdsa.Sign(priv.key, msg[:])
	return Signature{der: sig.Serialize()}
}

// Bytes returns the compressed SEC1 encoding of pub.
func (pub PublicKey) Bytes() []byte {
	if pub.key == nil {
		return nil
	}
	b := pub.key.SerializeCompressed()
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

// String renders pub as hex, used as its map-key / comparison form.
func (pub PublicKey) String() string {
	return fmt.Sprintf("%x", pub.Bytes())
}

// Equal reports whether pub and other are the same key.
func (pub PublicKey) Equal(other PublicKey) bool {
	return pub.String() == other.String()
}

// IsZero reports whether pub has never been set.
func (pub PublicKey) IsZero() bool { return pub.key == nil }

// PublicKeyFromBytes parses a compressed SEC1 public key.
func PublicKeyFromBytes(b []byte) (PublicKey, error) {
	k, err := btcec.ParsePubKey(b)
	if err != nil {
		return PublicKey{}, fmt.Errorf("xsig: parse public key: %w", err)
	}
	return PublicKey{key: k}, nil
}

// Verify reports whether sig is a valid canonical signature by pub over
// msg's digest.
func (pub PublicKey) Verify(msg hash.Hash, sig Signature) bool {
	if pub.key == nil || len(sig.der) == 0 {
		return false
	}
	parsed, err := btcecdsa.ParseDERSignature(sig.der)
	if err != nil {
		return false
	}
	if !isLowS(parsed) {
		return false
	}
	return parsed.Verify(msg[:], pub.key)
}

// Bytes returns the DER encoding of sig.
func (sig Signature) Bytes() []byte {
	out := make([]byte, len(sig.der))
	copy(out, sig.der)
	return out
}

// SignatureFromBytes wraps a DER-encoded signature.
func SignatureFromBytes(b []byte) Signature {
	out := make([]byte, len(b))
	copy(out, b)
	return Signature{der: out}
}

// isLowS rejects the high-S malleable form of a signature, mirroring
// BIP-62 canonical-signature enforcement.
func isLowS(sig *btcecdsa.Signature) bool {
	sBytes := sig.S().Bytes()
	s := new(big.Int).SetBytes(sBytes[:])
	halfOrder := new(big.Int).Rsh(btcec.S256().N, 1)
	return s.Cmp(halfOrder) <= 0
}
