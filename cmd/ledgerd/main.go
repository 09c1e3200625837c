// Command ledgerd runs a node: it serves peer connections, replicates
// the chain, and periodically persists its state. Grounded on the
// teacher's cmd/gochain entry point (cobra root command, viper config
// load, signal-driven graceful shutdown) but with the teacher's
// libp2p/monitoring-service wiring replaced by this repo's TCP
// pkg/node server and pkg/metrics HTTP endpoint.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/ledgerforge/chain/pkg/chainstate"
	"github.com/ledgerforge/chain/pkg/config"
	"github.com/ledgerforge/chain/pkg/logging"
	"github.com/ledgerforge/chain/pkg/metrics"
	"github.com/ledgerforge/chain/pkg/node"
	"github.com/ledgerforge/chain/pkg/storage"
)

var configFile string

func main() {
	root := &cobra.Command{
		Use:   "ledgerd",
		Short: "ledgerd runs a peer-to-peer ledger node",
		RunE:  runNode,
	}
	root.PersistentFlags().StringVar(&configFile, "config", "", "config file (default ./config.yaml)")

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func runNode(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("ledgerd: %w", err)
	}

	logCfg := logging.DefaultConfig()
	logCfg.UseJSON = cfg.LogJSON
	switch cfg.LogLevel {
	case "debug":
		logCfg.Level = logging.DEBUG
	case "warn":
		logCfg.Level = logging.WARN
	case "error":
		logCfg.Level = logging.ERROR
	default:
		logCfg.Level = logging.INFO
	}
	log := logging.New(logCfg)
	defer log.Sync()

	store := storage.New(&storage.Config{Path: cfg.ChainFile})
	bc := chainstate.New()
	found, err := store.Load(bc)
	if err != nil {
		return fmt.Errorf("ledgerd: load chain: %w", err)
	}
	if found {
		log.Infow("loaded chain snapshot", "height", bc.Height())
	} else {
		log.Infow("no prior chain snapshot, starting empty")
	}

	nodeCfg := node.DefaultConfig()
	nodeCfg.ListenAddr = fmt.Sprintf(":%d", cfg.ListenPort)
	nodeCfg.MaxConnections = cfg.MaxConnections
	nodeCfg.BootstrapPeers = cfg.BootstrapPeers

	reg := prometheus.NewRegistry()
	n := node.New(nodeCfg, bc, store, log, reg)

	if cfg.MetricsAddr != "" {
		go func() {
			if err := metrics.Serve(cfg.MetricsAddr, reg); err != nil {
				log.Errorw("metrics server stopped", "error", err)
			}
		}()
		log.Infow("metrics endpoint", "addr", cfg.MetricsAddr)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Infow("shutting down ledgerd")
		cancel()
	}()

	log.Infow("ledgerd starting", "listen_port", cfg.ListenPort, "height", bc.Height())
	if err := n.Run(ctx); err != nil {
		return fmt.Errorf("ledgerd: %w", err)
	}

	if err := store.Save(bc); err != nil {
		log.Errorw("final save failed", "error", err)
	}
	log.Infow("ledgerd stopped")
	return nil
}
