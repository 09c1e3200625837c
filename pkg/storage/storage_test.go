package storage

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledgerforge/chain/pkg/block"
	"github.com/ledgerforge/chain/pkg/chainstate"
	"github.com/ledgerforge/chain/pkg/hash"
	"github.com/ledgerforge/chain/pkg/xsig"
)

func TestSaveLoadRoundTrip(t *testing.T) {
	priv, err := xsig.GeneratePrivateKey()
	require.NoError(t, err)

	bc := chainstate.New()
	coinbase := block.Transaction{
		Outputs: []block.TransactionOutput{block.NewTransactionOutput(block.BlockReward(0), priv.Public())},
	}
	genesis := block.Block{
		Header: block.BlockHeader{
			Timestamp:     time.Unix(1_700_000_000, 0).UTC(),
			PrevBlockHash: hash.Hash{},
			MerkleRoot:    block.ComputeMerkleRoot([]block.Transaction{coinbase}),
			Target:        block.MinTarget(),
		},
		Transactions: []block.Transaction{coinbase},
	}
	require.NoError(t, bc.AddBlock(genesis))
	bc.RebuildUTXOs()

	dir := t.TempDir()
	store := New(&Config{Path: filepath.Join(dir, "chain.bin")})
	require.NoError(t, store.Save(bc))

	loaded := chainstate.New()
	found, err := store.Load(loaded)
	require.NoError(t, err)
	require.True(t, found)

	assert.Equal(t, bc.Height(), loaded.Height())
	assert.Equal(t, 0, bc.Target().Int().Cmp(loaded.Target().Int()))

	views := loaded.UTXOsFor(priv.Public())
	require.Len(t, views, 1)
	assert.Equal(t, block.BlockReward(0), views[0].Output.Value)
}

func TestLoadMissingFileReturnsFalse(t *testing.T) {
	dir := t.TempDir()
	store := New(&Config{Path: filepath.Join(dir, "missing.bin")})
	bc := chainstate.New()
	found, err := store.Load(bc)
	require.NoError(t, err)
	assert.False(t, found)
}
