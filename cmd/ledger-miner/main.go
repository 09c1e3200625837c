// Command ledger-miner runs the standalone mining client against a
// node address, loading its payout key from a hex-encoded scalar file.
// Grounded on the teacher's cobra-based cmd/gochain entry point and
// its --mining flag, adapted to a process that owns no chain state of
// its own.
package main

import (
	"context"
	"encoding/hex"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ledgerforge/chain/pkg/logging"
	"github.com/ledgerforge/chain/pkg/miner"
	"github.com/ledgerforge/chain/pkg/xsig"
)

var (
	nodeAddr string
	keyFile  string
)

func main() {
	root := &cobra.Command{
		Use:   "ledger-miner",
		Short: "ledger-miner mines against a ledgerd node",
		RunE:  run,
	}
	root.Flags().StringVar(&nodeAddr, "node", "127.0.0.1:9000", "address of the node to mine against")
	root.Flags().StringVar(&keyFile, "key-file", "miner.key", "path to the hex-encoded payout private key")

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	log := logging.New(logging.DefaultConfig())
	defer log.Sync()

	priv, err := loadOrCreateKey(keyFile)
	if err != nil {
		return fmt.Errorf("ledger-miner: %w", err)
	}
	log.Infow("mining for", "pubkey", priv.Public().String())

	m := miner.New(miner.Config{NodeAddr: nodeAddr, PubKey: priv.Public()}, log.Named("miner"))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Infow("shutting down ledger-miner")
		cancel()
	}()

	return m.Run(ctx)
}

// loadOrCreateKey reads a hex-encoded private key scalar from path,
// generating and persisting a fresh one if the file does not exist.
// On-disk key encoding choice is left external per the spec's
// non-goals; this is the binary's own bootstrap convenience, not a
// core-library concern.
func loadOrCreateKey(path string) (xsig.PrivateKey, error) {
	raw, err := os.ReadFile(path)
	if err == nil {
		b, decodeErr := hex.DecodeString(string(raw))
		if decodeErr != nil {
			return xsig.PrivateKey{}, fmt.Errorf("parse key file %s: %w", path, decodeErr)
		}
		return xsig.PrivateKeyFromBytes(b)
	}
	if !os.IsNotExist(err) {
		return xsig.PrivateKey{}, err
	}

	priv, err := xsig.GeneratePrivateKey()
	if err != nil {
		return xsig.PrivateKey{}, err
	}
	if err := os.WriteFile(path, []byte(hex.EncodeToString(priv.Bytes())), 0o600); err != nil {
		return xsig.PrivateKey{}, fmt.Errorf("write key file %s: %w", path, err)
	}
	return priv, nil
}
