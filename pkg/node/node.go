// Package node implements the server role: it owns the authoritative
// Blockchain, serves peer requests, fans out newly accepted blocks and
// transactions, and periodically persists state. Modeled on the
// teacher's per-peer-task concurrency idiom (goroutine per accepted
// connection, two long-lived periodic tasks) but hand-rolled over raw
// TCP instead of libp2p, since the spec's framing and non-goals (no
// gossip dedup, no DHT) rule out that transport.
package node

import (
	"context"
	"net"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/ledgerforge/chain/pkg/block"
	"github.com/ledgerforge/chain/pkg/chainstate"
	"github.com/ledgerforge/chain/pkg/logging"
	"github.com/ledgerforge/chain/pkg/metrics"
	"github.com/ledgerforge/chain/pkg/storage"
	"github.com/ledgerforge/chain/pkg/wire"
)

// Config configures a Node's listen address, persistence and admission
// limits.
type Config struct {
	ListenAddr        string
	MaxConnections    int
	BootstrapPeers    []string
	CleanupInterval   time.Duration
	SaveInterval      time.Duration
	ConnectionTimeout time.Duration
}

// DefaultConfig mirrors the spec's §5 periodic-task cadence: cleanup
// every 30s, save every 15s.
func DefaultConfig() Config {
	return Config{
		ListenAddr:        ":9000",
		MaxConnections:    100,
		CleanupInterval:   30 * time.Second,
		SaveInterval:      15 * time.Second,
		ConnectionTimeout: 30 * time.Second,
	}
}

// Node is the server role: it owns the Blockchain and a registry of
// live peer connections.
type Node struct {
	cfg     Config
	bc      *chainstate.Blockchain
	store   *storage.Store
	metrics *metrics.Metrics
	log     *logging.Logger

	peersMu sync.Mutex
	peers   map[string]net.Conn

	sem chan struct{}

	listener net.Listener
}

// New builds a Node. reg may be nil, in which case metrics are
// registered against a fresh private registry.
func New(cfg Config, bc *chainstate.Blockchain, store *storage.Store, log *logging.Logger, reg *prometheus.Registry) *Node {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	if cfg.MaxConnections <= 0 {
		cfg.MaxConnections = 100
	}
	return &Node{
		cfg:     cfg,
		bc:      bc,
		store:   store,
		metrics: metrics.New(reg),
		log:     log,
		peers:   make(map[string]net.Conn),
		sem:     make(chan struct{}, cfg.MaxConnections),
	}
}

// Listen binds the node's listen address and returns it, splitting
// bind from serve so callers (and tests) can learn the actual address
// when ListenAddr uses an ephemeral port ("127.0.0.1:0").
func (n *Node) Listen() (net.Addr, error) {
	ln, err := net.Listen("tcp", n.cfg.ListenAddr)
	if err != nil {
		return nil, err
	}
	n.listener = ln
	return ln.Addr(), nil
}

// Serve runs the accept loop and the periodic cleanup/save tasks
// against a listener already bound by Listen. It blocks until ctx is
// cancelled, at which point the accept loop stops; in-flight peer
// tasks finish their current exchange and exit on their next
// send/receive error.
func (n *Node) Serve(ctx context.Context) error {
	n.log.Infow("node listening", "addr", n.listener.Addr())
	n.bootstrap(ctx)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		n.acceptLoop(ctx)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		n.periodicTasks(ctx)
	}()

	<-ctx.Done()
	n.listener.Close()
	wg.Wait()
	return nil
}

// Run is the convenience entry point for cmd/ledgerd: bind then serve.
func (n *Node) Run(ctx context.Context) error {
	if _, err := n.Listen(); err != nil {
		return err
	}
	return n.Serve(ctx)
}

func (n *Node) periodicTasks(ctx context.Context) {
	cleanupT := time.NewTicker(n.cfg.CleanupInterval)
	saveT := time.NewTicker(n.cfg.SaveInterval)
	defer cleanupT.Stop()
	defer saveT.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-cleanupT.C:
			evicted := n.bc.CleanupMempool()
			if evicted > 0 {
				n.log.Debugw("mempool cleanup", "evicted", evicted)
			}
		case <-saveT.C:
			if err := n.store.Save(n.bc); err != nil {
				n.log.Errorw("save failed", "error", err)
			}
		}
	}
}

func (n *Node) acceptLoop(ctx context.Context) {
	for {
		conn, err := n.listener.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return
			default:
				n.log.Errorw("accept failed", "error", err)
				return
			}
		}

		select {
		case n.sem <- struct{}{}:
		default:
			n.log.Warnw("connection admission gate full, dropping", "remote", conn.RemoteAddr())
			conn.Close()
			continue
		}

		addr := conn.RemoteAddr().String()
		n.registerPeer(addr, conn)
		n.metrics.ConnectedPeers.Set(float64(n.peerCount()))

		go func() {
			defer func() { <-n.sem }()
			n.handleConn(addr, conn)
		}()
	}
}

func (n *Node) registerPeer(addr string, conn net.Conn) {
	n.peersMu.Lock()
	defer n.peersMu.Unlock()
	n.peers[addr] = conn
}

func (n *Node) unregisterPeer(addr string) {
	n.peersMu.Lock()
	defer n.peersMu.Unlock()
	delete(n.peers, addr)
	n.metrics.ConnectedPeers.Set(float64(len(n.peers)))
}

func (n *Node) peerCount() int {
	n.peersMu.Lock()
	defer n.peersMu.Unlock()
	return len(n.peers)
}

func (n *Node) peerAddrs() []string {
	n.peersMu.Lock()
	defer n.peersMu.Unlock()
	out := make([]string, 0, len(n.peers))
	for addr := range n.peers {
		out = append(out, addr)
	}
	return out
}

// bootstrap dials every configured bootstrap peer and registers the
// connection, per the spec's one-hop-bootstrap non-goal (no further
// discovery beyond this explicit list).
func (n *Node) bootstrap(ctx context.Context) {
	for _, addr := range n.cfg.BootstrapPeers {
		conn, err := net.DialTimeout("tcp", addr, n.cfg.ConnectionTimeout)
		if err != nil {
			n.log.Warnw("bootstrap dial failed", "addr", addr, "error", err)
			continue
		}
		n.registerPeer(addr, conn)
		go n.handleConn(addr, conn)
	}
}

// SubmitTransaction admits tx to the mempool and rebroadcasts it, on
// behalf of a wallet submitting directly to this node's in-process API
// (used by tests and by a co-located wallet).
func (n *Node) SubmitTransaction(tx block.Transaction) error {
	if err := n.bc.AddTransactionToMempool(tx); err != nil {
		return err
	}
	n.metrics.MempoolSize.Set(float64(n.bc.MempoolLen()))
	n.broadcastExcept("", wire.NewTransaction{Tx: tx})
	return nil
}

// Blockchain exposes the node's chain state for in-process callers
// (tests, a co-located wallet or miner).
func (n *Node) Blockchain() *chainstate.Blockchain { return n.bc }
