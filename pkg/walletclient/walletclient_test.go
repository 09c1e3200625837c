package walletclient

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledgerforge/chain/pkg/block"
	"github.com/ledgerforge/chain/pkg/xsig"
)

func mustKey(t *testing.T) xsig.PrivateKey {
	t.Helper()
	k, err := xsig.GeneratePrivateKey()
	require.NoError(t, err)
	return k
}

func TestCreateTransactionFixedFeeWithChange(t *testing.T) {
	owner := mustKey(t)
	recipient := mustKey(t)

	w := New("unused:0", FeePolicy{Kind: FeeFixed, Value: 5}, []xsig.PrivateKey{owner})
	w.utxos = []ownedUTXO{
		{key: owner, output: block.NewTransactionOutput(100, owner.Public())},
	}

	tx, err := w.CreateTransaction(recipient.Public(), 30)
	require.NoError(t, err)
	require.Len(t, tx.Inputs, 1)
	require.Len(t, tx.Outputs, 2)
	assert.Equal(t, uint64(30), tx.Outputs[0].Value)
	assert.True(t, tx.Outputs[0].PubKey.Equal(recipient.Public()))
	assert.Equal(t, uint64(65), tx.Outputs[1].Value) // 100 - 30 - 5 fee
	assert.True(t, tx.Outputs[1].PubKey.Equal(owner.Public()))
}

func TestCreateTransactionPercentFeeNoChange(t *testing.T) {
	owner := mustKey(t)
	recipient := mustKey(t)

	w := New("unused:0", FeePolicy{Kind: FeePercent, Value: 10}, []xsig.PrivateKey{owner})
	w.utxos = []ownedUTXO{
		{key: owner, output: block.NewTransactionOutput(110, owner.Public())},
	}

	tx, err := w.CreateTransaction(recipient.Public(), 100)
	require.NoError(t, err)
	require.Len(t, tx.Outputs, 1, "input_sum 110 == amount(100)+fee(10): no change output")
}

func TestCreateTransactionSkipsReservedUTXOs(t *testing.T) {
	owner := mustKey(t)
	recipient := mustKey(t)

	w := New("unused:0", FeePolicy{Kind: FeeFixed, Value: 0}, []xsig.PrivateKey{owner})
	w.utxos = []ownedUTXO{
		{key: owner, output: block.NewTransactionOutput(1000, owner.Public()), reserved: true},
		{key: owner, output: block.NewTransactionOutput(50, owner.Public())},
	}

	tx, err := w.CreateTransaction(recipient.Public(), 40)
	require.NoError(t, err)
	require.Len(t, tx.Inputs, 1)
	assert.Equal(t, uint64(10), tx.Outputs[1].Value)
}

func TestCreateTransactionInsufficientFunds(t *testing.T) {
	owner := mustKey(t)
	recipient := mustKey(t)

	w := New("unused:0", FeePolicy{Kind: FeeFixed, Value: 0}, []xsig.PrivateKey{owner})
	w.utxos = []ownedUTXO{
		{key: owner, output: block.NewTransactionOutput(10, owner.Public())},
	}

	_, err := w.CreateTransaction(recipient.Public(), 100)
	assert.ErrorIs(t, err, ErrInsufficientFunds)
}

func TestContactsResolveMissing(t *testing.T) {
	c := Contacts{}
	_, err := c.Resolve("nobody")
	assert.ErrorIs(t, err, ErrRecipientNotFound)
}

func TestBalanceExcludesReserved(t *testing.T) {
	owner := mustKey(t)
	w := New("unused:0", FeePolicy{}, []xsig.PrivateKey{owner})
	w.utxos = []ownedUTXO{
		{key: owner, output: block.NewTransactionOutput(100, owner.Public())},
		{key: owner, output: block.NewTransactionOutput(50, owner.Public()), reserved: true},
	}
	assert.Equal(t, uint64(100), w.Balance())
}
