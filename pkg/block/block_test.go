package block

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledgerforge/chain/pkg/hash"
	"github.com/ledgerforge/chain/pkg/xsig"
)

func mustKey(t *testing.T) xsig.PrivateKey {
	t.Helper()
	k, err := xsig.GeneratePrivateKey()
	require.NoError(t, err)
	return k
}

func TestBlockRewardHalving(t *testing.T) {
	assert.Equal(t, InitialReward*CoinUnits, BlockReward(0))
	assert.Equal(t, InitialReward*CoinUnits, BlockReward(HalvingInterval-1))
	assert.Equal(t, (InitialReward*CoinUnits)/2, BlockReward(HalvingInterval))
	assert.Equal(t, (InitialReward*CoinUnits)/4, BlockReward(2*HalvingInterval))
}

func TestMerkleRootSingleTransaction(t *testing.T) {
	priv := mustKey(t)
	tx := Transaction{Outputs: []TransactionOutput{NewTransactionOutput(10, priv.Public())}}
	root := ComputeMerkleRoot([]Transaction{tx})
	assert.Equal(t, tx.Hash(), root.Hash)
}

func TestMerkleRootOrderSensitive(t *testing.T) {
	priv := mustKey(t)
	a := Transaction{Outputs: []TransactionOutput{NewTransactionOutput(1, priv.Public())}}
	b := Transaction{Outputs: []TransactionOutput{NewTransactionOutput(2, priv.Public())}}

	r1 := ComputeMerkleRoot([]Transaction{a, b})
	r2 := ComputeMerkleRoot([]Transaction{b, a})
	assert.NotEqual(t, r1.Hash, r2.Hash)
}

func TestMerkleRootOddLengthDuplicatesLast(t *testing.T) {
	priv := mustKey(t)
	a := Transaction{Outputs: []TransactionOutput{NewTransactionOutput(1, priv.Public())}}
	b := Transaction{Outputs: []TransactionOutput{NewTransactionOutput(2, priv.Public())}}
	c := Transaction{Outputs: []TransactionOutput{NewTransactionOutput(3, priv.Public())}}

	got := ComputeMerkleRoot([]Transaction{a, b, c})

	// Hand-compute: pair(a,b), pair(c,c), then pair of those two.
	ha, hb, hc := a.Hash(), b.Hash(), c.Hash()
	pairHash := func(l, r hash.Hash) hash.Hash {
		enc := hash.NewEncoder(2 * hash.Size)
		enc.PutRaw(l[:])
		enc.PutRaw(r[:])
		return enc.Hash()
	}
	left := pairHash(ha, hb)
	right := pairHash(hc, hc)
	want := pairHash(left, right)

	assert.Equal(t, want, got.Hash)
}

func TestSignatureVerifyRoundTrip(t *testing.T) {
	priv := mustKey(t)
	msg := hash.Sum([]byte("pay alice"))
	sig := priv.Sign(msg)

	assert.True(t, priv.Public().Verify(msg, sig))

	other := hash.Sum([]byte("pay mallory"))
	assert.False(t, priv.Public().Verify(other, sig))

	priv2 := mustKey(t)
	assert.False(t, priv2.Public().Verify(msg, sig))
}

func TestHeaderMineFindsValidNonce(t *testing.T) {
	priv := mustKey(t)
	tx := Transaction{Outputs: []TransactionOutput{NewTransactionOutput(1, priv.Public())}}
	h := BlockHeader{
		Timestamp:  time.Now().UTC(),
		MerkleRoot: ComputeMerkleRoot([]Transaction{tx}),
		Target:     MinTarget(),
	}
	ok := h.Mine(10_000_000)
	require.True(t, ok)
	assert.True(t, h.IsProofOfWorkValid())
}

func TestHeaderMineExhaustsBudget(t *testing.T) {
	priv := mustKey(t)
	tx := Transaction{Outputs: []TransactionOutput{NewTransactionOutput(1, priv.Public())}}
	h := BlockHeader{
		Timestamp:  time.Now().UTC(),
		MerkleRoot: ComputeMerkleRoot([]Transaction{tx}),
		Target:     hash.NewTarget(nil), // zero target: essentially unreachable
	}
	ok := h.Mine(64)
	assert.False(t, ok)
}

func TestTransactionCodecRoundTrip(t *testing.T) {
	priv := mustKey(t)
	out := NewTransactionOutput(42, priv.Public())
	sig := priv.Sign(out.Hash())
	tx := Transaction{
		Inputs:  []TransactionInput{{PrevTransactionOutputHash: out.Hash(), Signature: sig}},
		Outputs: []TransactionOutput{NewTransactionOutput(7, priv.Public())},
	}

	var buf bytes.Buffer
	require.NoError(t, EncodeTransaction(&buf, tx))

	decoded, err := DecodeTransaction(&buf)
	require.NoError(t, err)
	assert.Equal(t, tx.Hash(), decoded.Hash())
}

func TestBlockCodecRoundTrip(t *testing.T) {
	priv := mustKey(t)
	coinbase := Transaction{Outputs: []TransactionOutput{NewTransactionOutput(50, priv.Public())}}
	b := Block{
		Header: BlockHeader{
			Timestamp:  time.Now().UTC(),
			Nonce:      7,
			MerkleRoot: ComputeMerkleRoot([]Transaction{coinbase}),
			Target:     MinTarget(),
		},
		Transactions: []Transaction{coinbase},
	}

	var buf bytes.Buffer
	require.NoError(t, EncodeBlock(&buf, b))

	decoded, err := DecodeBlock(&buf)
	require.NoError(t, err)
	assert.Equal(t, b.Header.Hash(), decoded.Header.Hash())
	require.Len(t, decoded.Transactions, 1)
	assert.Equal(t, b.Transactions[0].Hash(), decoded.Transactions[0].Hash())
}

func TestOutputHashDistinctForStructurallyIdenticalPayments(t *testing.T) {
	priv := mustKey(t)
	a := NewTransactionOutput(10, priv.Public())
	b := NewTransactionOutput(10, priv.Public())
	assert.NotEqual(t, a.Hash(), b.Hash())
}
