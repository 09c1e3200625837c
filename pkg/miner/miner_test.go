package miner

import (
	"context"
	"net"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledgerforge/chain/pkg/block"
	"github.com/ledgerforge/chain/pkg/chainstate"
	"github.com/ledgerforge/chain/pkg/hash"
	"github.com/ledgerforge/chain/pkg/logging"
	"github.com/ledgerforge/chain/pkg/node"
	"github.com/ledgerforge/chain/pkg/storage"
	"github.com/ledgerforge/chain/pkg/xsig"
)

func startTestNode(t *testing.T) (net.Addr, *chainstate.Blockchain) {
	t.Helper()
	minerKey, err := xsig.GeneratePrivateKey()
	require.NoError(t, err)

	bc := chainstate.New()
	coinbase := block.Transaction{
		Outputs: []block.TransactionOutput{
			block.NewTransactionOutput(block.BlockReward(0), minerKey.Public()),
		},
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

	store := storage.New(&storage.Config{Path: filepath.Join(t.TempDir(), "chain.bin")})
	log := logging.New(logging.DefaultConfig())

	cfg := node.DefaultConfig()
	cfg.ListenAddr = "127.0.0.1:0"
	n := node.New(cfg, bc, store, log, nil)

	addr, err := n.Listen()
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go n.Serve(ctx)
	return addr, bc
}

func TestMinerSolvesAndSubmitsBlock(t *testing.T) {
	addr, bc := startTestNode(t)

	payoutKey, err := xsig.GeneratePrivateKey()
	require.NoError(t, err)

	m := New(Config{NodeAddr: addr.String(), PubKey: payoutKey.Public()}, logging.New(logging.DefaultConfig()))

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- m.Run(ctx) }()

	assert.Eventually(t, func() bool {
		return m.IsMining()
	}, time.Second, 10*time.Millisecond)

	// The solved block is submitted and accepted on top of genesis.
	assert.Eventually(t, func() bool {
		return bc.Height() == 2
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	<-done
}
