package chainstate

import (
	"github.com/ledgerforge/chain/pkg/block"
	"github.com/ledgerforge/chain/pkg/hash"
)

// verifyTransactions checks every rule add_block applies to a
// non-genesis block's transaction list: non-empty, a valid coinbase,
// and for every non-coinbase transaction in order, no UTXO consumed
// twice within the block, every input resolving with a valid signature,
// and conserved value.
func verifyTransactions(b block.Block, predictedHeight int, utxos *UTXOSet) error {
	if len(b.Transactions) == 0 {
		return ErrInvalidTransaction
	}
	if err := verifyCoinbase(b, predictedHeight, utxos); err != nil {
		return err
	}

	seenInputs := make(map[hash.Hash]bool)
	for _, tx := range b.Transactions[1:] {
		var inputSum uint64
		for _, in := range tx.Inputs {
			h := in.PrevTransactionOutputHash
			out, _, ok := utxos.Get(h)
			if !ok {
				return ErrInvalidTransaction
			}
			if seenInputs[h] {
				return ErrDoubleSpending
			}
			if !out.PubKey.Verify(h, in.Signature) {
				return ErrInvalidSignature
			}
			seenInputs[h] = true
			inputSum += out.Value
		}
		if inputSum < tx.OutputSum() {
			return ErrInvalidTransaction
		}
	}
	return nil
}

// verifyCoinbase checks that b's first transaction has no inputs, at
// least one output, and that its total output value equals the block
// reward at predictedHeight plus the miner fees of every other
// transaction in the block.
func verifyCoinbase(b block.Block, predictedHeight int, utxos *UTXOSet) error {
	cb := b.Transactions[0]
	if len(cb.Inputs) != 0 || len(cb.Outputs) == 0 {
		return ErrInvalidTransaction
	}

	fees, err := minerFees(b.Transactions[1:], utxos)
	if err != nil {
		return err
	}

	want := block.BlockReward(uint64(predictedHeight)) + fees
	if cb.OutputSum() != want {
		return ErrInvalidTransaction
	}
	return nil
}

// minerFees sums (inputs - outputs) across txs, rejecting any UTXO
// consumed twice or any output hash produced twice across the set.
func minerFees(txs []block.Transaction, utxos *UTXOSet) (uint64, error) {
	seenInputs := make(map[hash.Hash]bool)
	seenOutputs := make(map[hash.Hash]bool)

	var total uint64
	for _, tx := range txs {
		var inputSum uint64
		for _, in := range tx.Inputs {
			h := in.PrevTransactionOutputHash
			if seenInputs[h] {
				return 0, ErrDoubleSpending
			}
			seenInputs[h] = true
			out, _, ok := utxos.Get(h)
			if !ok {
				return 0, ErrInvalidTransaction
			}
			inputSum += out.Value
		}

		var outputSum uint64
		for _, out := range tx.Outputs {
			oh := out.Hash()
			if seenOutputs[oh] {
				return 0, ErrDoubleSpending
			}
			seenOutputs[oh] = true
			outputSum += out.Value
		}

		if inputSum < outputSum {
			return 0, ErrInvalidTransaction
		}
		total += inputSum - outputSum
	}
	return total, nil
}
