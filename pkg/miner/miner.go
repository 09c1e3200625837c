// Package miner implements the standalone mining client: a process
// that holds no chain state of its own, but repeatedly fetches a
// template from a node, hashes it against a dedicated goroutine, and
// submits any solved block back over the wire. Grounded on the
// teacher's embedded Miner's goroutine/atomic-flag/stop-channel
// idiom (pkg/miner/miner.go in the teacher), adapted from an
// in-process chain-owning miner to a network client that speaks
// pkg/wire to a remote node, per the spec's explicit separate-process
// miner design.
package miner

import (
	"context"
	"fmt"
	"net"
	"sync/atomic"
	"time"

	"github.com/ledgerforge/chain/pkg/block"
	"github.com/ledgerforge/chain/pkg/logging"
	"github.com/ledgerforge/chain/pkg/wire"
	"github.com/ledgerforge/chain/pkg/xsig"
)

// StepsPerAttempt bounds how many nonces a single hashing pass tries
// before the hashing goroutine checks whether it has been told to stop.
const StepsPerAttempt = 2_000_000

// PollInterval is how often the control loop re-validates the template
// it's hashing against, fetching a fresh one only when it is stale.
const PollInterval = 5 * time.Second

// Config configures a Miner's target node and payout key.
type Config struct {
	NodeAddr string
	PubKey   xsig.PublicKey
}

// Miner is a standalone mining client: it owns no chain state, only a
// connection to a node and the block it is currently hashing.
type Miner struct {
	cfg Config
	log *logging.Logger

	mining   atomic.Bool
	solved   chan block.Block
	stopHash chan struct{}
}

// New returns a Miner ready to Run against cfg.NodeAddr.
func New(cfg Config, log *logging.Logger) *Miner {
	return &Miner{
		cfg:      cfg,
		log:      log,
		solved:   make(chan block.Block, 1),
		stopHash: make(chan struct{}),
	}
}

// IsMining reports whether the hashing goroutine currently holds a
// template.
func (m *Miner) IsMining() bool { return m.mining.Load() }

// Run drives the 5-second control loop described in the spec: fetch a
// template, hand it to the dedicated hashing goroutine, and on each
// tick either accept a solved block (submit it and fetch a fresh
// template) or re-validate the in-flight template and keep hashing.
// Blocks until ctx is cancelled.
func (m *Miner) Run(ctx context.Context) error {
	conn, err := net.Dial("tcp", m.cfg.NodeAddr)
	if err != nil {
		return fmt.Errorf("miner: dial %s: %w", m.cfg.NodeAddr, err)
	}
	defer conn.Close()

	tmpl, err := m.fetchTemplate(conn)
	if err != nil {
		return fmt.Errorf("miner: fetch_template: %w", err)
	}
	m.startHashing(tmpl)

	ticker := time.NewTicker(PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			m.stopHashing()
			return nil

		case solved := <-m.solved:
			if err := m.submitTemplate(conn, solved); err != nil {
				m.log.Errorw("submit_template failed", "error", err)
			} else {
				m.log.Infow("submitted solved block")
			}
			fresh, err := m.fetchTemplate(conn)
			if err != nil {
				m.log.Errorw("fetch_template failed", "error", err)
				continue
			}
			tmpl = fresh
			m.startHashing(fresh)

		case <-ticker.C:
			valid, err := m.validateTemplate(conn, tmpl)
			if err != nil {
				m.log.Errorw("validate_template failed", "error", err)
				continue
			}
			if valid {
				continue
			}
			m.log.Debugw("template stale, refetching")
			m.stopHashing()
			fresh, err := m.fetchTemplate(conn)
			if err != nil {
				m.log.Errorw("fetch_template failed", "error", err)
				continue
			}
			tmpl = fresh
			m.startHashing(fresh)
		}
	}
}

func (m *Miner) fetchTemplate(conn net.Conn) (block.Block, error) {
	if err := wire.WriteMessage(conn, wire.FetchTemplate{PubKey: m.cfg.PubKey}); err != nil {
		return block.Block{}, err
	}
	reply, err := wire.ReadMessage(conn)
	if err != nil {
		return block.Block{}, err
	}
	tmpl, ok := reply.(wire.Template)
	if !ok {
		return block.Block{}, fmt.Errorf("miner: unexpected reply to fetch_template")
	}
	return tmpl.Block, nil
}

func (m *Miner) validateTemplate(conn net.Conn, tmpl block.Block) (bool, error) {
	if err := wire.WriteMessage(conn, wire.ValidateTemplate{Block: tmpl}); err != nil {
		return false, err
	}
	reply, err := wire.ReadMessage(conn)
	if err != nil {
		return false, err
	}
	v, ok := reply.(wire.TemplateValidity)
	if !ok {
		return false, fmt.Errorf("miner: unexpected reply to validate_template")
	}
	return v.Valid, nil
}

func (m *Miner) submitTemplate(conn net.Conn, solved block.Block) error {
	return wire.WriteMessage(conn, wire.SubmitTemplate{Block: solved})
}

// startHashing stops any in-flight hashing goroutine and starts a new
// one against tmpl.
func (m *Miner) startHashing(tmpl block.Block) {
	m.stopHashing()
	m.stopHash = make(chan struct{})
	m.mining.Store(true)
	go m.hash(tmpl, m.stopHash)
}

func (m *Miner) stopHashing() {
	if m.mining.Load() {
		close(m.stopHash)
		m.mining.Store(false)
	}
}

// hash repeatedly mines tmpl's header in StepsPerAttempt chunks,
// posting a solved copy to m.solved the moment proof of work succeeds,
// until stop is closed.
func (m *Miner) hash(tmpl block.Block, stop chan struct{}) {
	for {
		select {
		case <-stop:
			return
		default:
		}
		if tmpl.Header.Mine(StepsPerAttempt) {
			select {
			case m.solved <- tmpl:
			case <-stop:
			}
			return
		}
	}
}
