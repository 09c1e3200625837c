package mempool

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledgerforge/chain/pkg/block"
	"github.com/ledgerforge/chain/pkg/hash"
	"github.com/ledgerforge/chain/pkg/xsig"
)

// fakeUTXOSet is a minimal UTXOLookup for exercising the mempool in
// isolation, without pulling in pkg/chainstate.
type fakeUTXOSet struct {
	entries map[hash.Hash]struct {
		out      block.TransactionOutput
		reserved bool
	}
}

func newFakeUTXOSet() *fakeUTXOSet {
	return &fakeUTXOSet{entries: make(map[hash.Hash]struct {
		out      block.TransactionOutput
		reserved bool
	})}
}

func (f *fakeUTXOSet) put(out block.TransactionOutput, reserved bool) {
	f.entries[out.Hash()] = struct {
		out      block.TransactionOutput
		reserved bool
	}{out, reserved}
}

func (f *fakeUTXOSet) Get(h hash.Hash) (block.TransactionOutput, bool, bool) {
	e, ok := f.entries[h]
	return e.out, e.reserved, ok
}

func (f *fakeUTXOSet) SetReserved(h hash.Hash, reserved bool) {
	if e, ok := f.entries[h]; ok {
		e.reserved = reserved
		f.entries[h] = e
	}
}

func (f *fakeUTXOSet) isReserved(h hash.Hash) bool {
	return f.entries[h].reserved
}

func mustKey(t *testing.T) xsig.PrivateKey {
	t.Helper()
	k, err := xsig.GeneratePrivateKey()
	require.NoError(t, err)
	return k
}

func spendingTx(t *testing.T, priv xsig.PrivateKey, srcHash hash.Hash, outValue uint64) block.Transaction {
	t.Helper()
	sig := priv.Sign(srcHash)
	return block.Transaction{
		Inputs: []block.TransactionInput{{PrevTransactionOutputHash: srcHash, Signature: sig}},
		Outputs: []block.TransactionOutput{
			block.NewTransactionOutput(outValue, priv.Public()),
		},
	}
}

func TestAddTransactionRejectsUnknownInput(t *testing.T) {
	m := New()
	utxos := newFakeUTXOSet()
	priv := mustKey(t)
	tx := spendingTx(t, priv, hash.Sum([]byte("missing")), 10)

	err := m.AddTransaction(tx, utxos, time.Now())
	assert.ErrorIs(t, err, ErrInvalidTransaction)
	assert.Equal(t, 0, m.Len())
}

func TestAddTransactionRejectsDuplicateInputsWithinTx(t *testing.T) {
	m := New()
	utxos := newFakeUTXOSet()
	priv := mustKey(t)
	src := block.NewTransactionOutput(100, priv.Public())
	utxos.put(src, false)

	sig := priv.Sign(src.Hash())
	tx := block.Transaction{
		Inputs: []block.TransactionInput{
			{PrevTransactionOutputHash: src.Hash(), Signature: sig},
			{PrevTransactionOutputHash: src.Hash(), Signature: sig},
		},
		Outputs: []block.TransactionOutput{block.NewTransactionOutput(50, priv.Public())},
	}

	err := m.AddTransaction(tx, utxos, time.Now())
	assert.ErrorIs(t, err, ErrInvalidTransaction)
}

func TestAddTransactionRejectsValueUnderflow(t *testing.T) {
	m := New()
	utxos := newFakeUTXOSet()
	priv := mustKey(t)
	src := block.NewTransactionOutput(10, priv.Public())
	utxos.put(src, false)

	tx := spendingTx(t, priv, src.Hash(), 100)
	err := m.AddTransaction(tx, utxos, time.Now())
	assert.ErrorIs(t, err, ErrInvalidTransaction)
}

// TestDisplacementOnReservedDoubleSpend mirrors end-to-end scenario 4:
// inserting B which spends an already-reserved UTXO evicts the mempool
// transaction A that produced it and clears A's own reservations.
func TestDisplacementOnReservedDoubleSpend(t *testing.T) {
	m := New()
	utxos := newFakeUTXOSet()
	priv := mustKey(t)

	grandparentOut := block.NewTransactionOutput(1000, priv.Public())
	utxos.put(grandparentOut, false)

	txA := spendingTx(t, priv, grandparentOut.Hash(), 500)
	require.NoError(t, m.AddTransaction(txA, utxos, time.Now()))
	require.Equal(t, 1, m.Len())

	u := txA.Outputs[0]
	utxos.put(u, true) // simulate FetchTemplate having reserved u
	utxos.SetReserved(grandparentOut.Hash(), true)

	txB := spendingTx(t, priv, u.Hash(), 200)
	require.NoError(t, m.AddTransaction(txB, utxos, time.Now()))

	assert.Equal(t, 1, m.Len())
	assert.True(t, m.Has(txB.Hash()))
	assert.False(t, m.Has(txA.Hash()))
	assert.False(t, utxos.isReserved(grandparentOut.Hash()))
}

// TestRejectedMultiInputTxDoesNotDisplaceEarlierInput guards against a
// griefing vector: a tx whose first input would legitimately displace
// an admitted producer, but whose second input is unknown, must be
// rejected in full before any displacement happens — the producer
// must survive untouched.
func TestRejectedMultiInputTxDoesNotDisplaceEarlierInput(t *testing.T) {
	m := New()
	utxos := newFakeUTXOSet()
	priv := mustKey(t)

	grandparentOut := block.NewTransactionOutput(1000, priv.Public())
	utxos.put(grandparentOut, false)

	txA := spendingTx(t, priv, grandparentOut.Hash(), 500)
	require.NoError(t, m.AddTransaction(txA, utxos, time.Now()))
	require.Equal(t, 1, m.Len())

	u := txA.Outputs[0]
	utxos.put(u, true) // simulate FetchTemplate having reserved u
	utxos.SetReserved(grandparentOut.Hash(), true)

	sig := priv.Sign(u.Hash())
	txB := block.Transaction{
		Inputs: []block.TransactionInput{
			{PrevTransactionOutputHash: u.Hash(), Signature: sig},
			{PrevTransactionOutputHash: hash.Sum([]byte("missing")), Signature: sig},
		},
		Outputs: []block.TransactionOutput{block.NewTransactionOutput(100, priv.Public())},
	}

	err := m.AddTransaction(txB, utxos, time.Now())
	assert.ErrorIs(t, err, ErrInvalidTransaction)

	assert.Equal(t, 1, m.Len())
	assert.True(t, m.Has(txA.Hash()))
	assert.False(t, m.Has(txB.Hash()))
	assert.True(t, utxos.isReserved(u.Hash()))
	assert.True(t, utxos.isReserved(grandparentOut.Hash()))
}

func TestCleanupEvictsAgedEntriesAndClearsReservations(t *testing.T) {
	m := New()
	utxos := newFakeUTXOSet()
	priv := mustKey(t)
	src := block.NewTransactionOutput(100, priv.Public())
	utxos.put(src, false)

	tx := spendingTx(t, priv, src.Hash(), 10)
	old := time.Now().Add(-time.Hour)
	require.NoError(t, m.AddTransaction(tx, utxos, old))

	utxos.SetReserved(src.Hash(), true)
	evicted := m.Cleanup(utxos, 10*time.Minute, time.Now())

	assert.Equal(t, 1, evicted)
	assert.Equal(t, 0, m.Len())
	assert.False(t, utxos.isReserved(src.Hash()))
}

func TestSelectForTemplateOrdersByDescendingFee(t *testing.T) {
	m := New()
	utxos := newFakeUTXOSet()
	priv := mustKey(t)

	var txs []block.Transaction
	fees := []uint64{5, 50, 20}
	for _, fee := range fees {
		src := block.NewTransactionOutput(100+fee, priv.Public())
		utxos.put(src, false)
		tx := spendingTx(t, priv, src.Hash(), 100)
		require.NoError(t, m.AddTransaction(tx, utxos, time.Now()))
		txs = append(txs, tx)
	}

	selected := m.SelectForTemplate(10)
	require.Len(t, selected, 3)
	assert.Equal(t, txs[1].Hash(), selected[0].Hash())
	assert.Equal(t, txs[2].Hash(), selected[1].Hash())
	assert.Equal(t, txs[0].Hash(), selected[2].Hash())

	// Selecting does not remove entries from the mempool.
	assert.Equal(t, 3, m.Len())
}
