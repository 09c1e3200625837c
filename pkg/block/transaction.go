package block

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/ledgerforge/chain/pkg/hash"
	"github.com/ledgerforge/chain/pkg/xsig"
)

// TransactionOutput is a payment to a public key. UniqueID guarantees
// that two structurally identical payments hash differently, the same
// role google/uuid plays for entity identifiers elsewhere in the wider
// codebase this repo is patterned on.
type TransactionOutput struct {
	Value    uint64
	UniqueID uuid.UUID
	PubKey   xsig.PublicKey
}

// NewTransactionOutput builds an output with a fresh random UniqueID.
func NewTransactionOutput(value uint64, pub xsig.PublicKey) TransactionOutput {
	return TransactionOutput{Value: value, UniqueID: uuid.New(), PubKey: pub}
}

// Hash is the Hash of the output's canonical encoding.
func (o TransactionOutput) Hash() hash.Hash {
	enc := hash.NewEncoder(64)
	enc.PutUint64(o.Value)
	idBytes, _ := o.UniqueID.MarshalBinary()
	enc.PutBytes(idBytes)
	enc.PutBytes(o.PubKey.Bytes())
	return enc.Hash()
}

// TransactionInput references a prior output by its hash and proves the
// right to spend it with a signature over that hash.
type TransactionInput struct {
	PrevTransactionOutputHash hash.Hash
	Signature                 xsig.Signature
}

// Transaction is an ordered list of inputs and outputs.
type Transaction struct {
	Inputs  []TransactionInput
	Outputs []TransactionOutput
}

// IsCoinbase reports whether tx has no inputs and at least one output.
func (tx Transaction) IsCoinbase() bool {
	return len(tx.Inputs) == 0 && len(tx.Outputs) > 0
}

// Hash is the Hash of the transaction's canonical encoding.
func (tx Transaction) Hash() hash.Hash {
	enc := hash.NewEncoder(256)
	enc.PutUint32(uint32(len(tx.Inputs)))
	for _, in := range tx.Inputs {
		enc.PutRaw(in.PrevTransactionOutputHash[:])
		enc.PutBytes(in.Signature.Bytes())
	}
	enc.PutUint32(uint32(len(tx.Outputs)))
	for _, out := range tx.Outputs {
		outHash := out.Hash()
		enc.PutRaw(outHash[:])
	}
	return enc.Hash()
}

// OutputSum returns the sum of tx's output values.
func (tx Transaction) OutputSum() uint64 {
	var sum uint64
	for _, o := range tx.Outputs {
		sum += o.Value
	}
	return sum
}

// String gives a short human-readable identifier for logging.
func (tx Transaction) String() string {
	return fmt.Sprintf("tx{%s in=%d out=%d}", tx.Hash(), len(tx.Inputs), len(tx.Outputs))
}
