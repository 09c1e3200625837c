// Package storage persists a node's Blockchain to a single file holding
// the canonical binary encoding of its block list and difficulty
// target (the mempool is ephemeral and excluded), grounded on the
// teacher's storage.StorageInterface/Config/Default*Config() shape but
// adapted to this spec's single-snapshot-file persistence model rather
// than a KV store.
package storage

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/ledgerforge/chain/pkg/block"
	"github.com/ledgerforge/chain/pkg/chainstate"
	"github.com/ledgerforge/chain/pkg/hash"
)

// Config configures where and how a node's chain is persisted.
type Config struct {
	Path string
}

// DefaultConfig returns a Config pointing at ./data/chain.bin.
func DefaultConfig() *Config {
	return &Config{Path: filepath.Join("data", "chain.bin")}
}

// Store reads and writes a Blockchain snapshot at Config.Path.
type Store struct {
	cfg *Config
}

// New returns a Store for cfg. A nil cfg uses DefaultConfig.
func New(cfg *Config) *Store {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	return &Store{cfg: cfg}
}

const snapshotMagic = "LEDGERCHAIN1"

// Save writes bc's block list and target to the store's path,
// atomically (write to a temp file, then rename).
func (s *Store) Save(bc *chainstate.Blockchain) error {
	if err := os.MkdirAll(filepath.Dir(s.cfg.Path), 0o755); err != nil {
		return fmt.Errorf("storage: create data dir: %w", err)
	}

	tmp := s.cfg.Path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("storage: create temp file: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteString(snapshotMagic); err != nil {
		return err
	}
	blocks := bc.Blocks()
	if err := writeUint32(f, uint32(len(blocks))); err != nil {
		return err
	}
	for _, b := range blocks {
		if err := block.EncodeBlock(f, b); err != nil {
			return fmt.Errorf("storage: encode block: %w", err)
		}
	}
	targetBytes := bc.Target().Bytes32()
	if _, err := f.Write(targetBytes[:]); err != nil {
		return err
	}
	if err := f.Sync(); err != nil {
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, s.cfg.Path)
}

// Load reads a previously saved snapshot into bc, then triggers
// RebuildUTXOs and TryAdjustTarget as the persisted-file load sequence
// requires. Returns (false, nil) if no snapshot file exists yet.
func (s *Store) Load(bc *chainstate.Blockchain) (bool, error) {
	f, err := os.Open(s.cfg.Path)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("storage: open snapshot: %w", err)
	}
	defer f.Close()

	magic := make([]byte, len(snapshotMagic))
	if _, err := io.ReadFull(f, magic); err != nil {
		return false, fmt.Errorf("storage: read magic: %w", err)
	}
	if string(magic) != snapshotMagic {
		return false, fmt.Errorf("storage: bad snapshot magic")
	}

	n, err := readUint32(f)
	if err != nil {
		return false, err
	}
	blocks := make([]block.Block, 0, n)
	for i := uint32(0); i < n; i++ {
		b, err := block.DecodeBlock(f)
		if err != nil {
			return false, fmt.Errorf("storage: decode block %d: %w", i, err)
		}
		blocks = append(blocks, b)
	}

	var tb [hash.Size]byte
	if _, err := io.ReadFull(f, tb[:]); err != nil {
		return false, fmt.Errorf("storage: read target: %w", err)
	}

	bc.LoadBlocks(blocks, hash.TargetFromBytes32(tb))
	bc.RebuildUTXOs()
	bc.TryAdjustTarget()
	return true, nil
}

func writeUint32(f *os.File, v uint32) error {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	_, err := f.Write(b[:])
	return err
}

func readUint32(f *os.File) (uint32, error) {
	var b [4]byte
	if _, err := io.ReadFull(f, b[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b[:]), nil
}
