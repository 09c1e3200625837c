package logging

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLevelString(t *testing.T) {
	tests := []struct {
		level    Level
		expected string
	}{
		{DEBUG, "DEBUG"},
		{INFO, "INFO"},
		{WARN, "WARN"},
		{ERROR, "ERROR"},
		{FATAL, "FATAL"},
		{Level(99), "UNKNOWN"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, tt.level.String())
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, INFO, cfg.Level)
	assert.Equal(t, "ledger", cfg.Prefix)
	assert.False(t, cfg.UseJSON)
	assert.Empty(t, cfg.LogFile)
}

func TestNewWithNilConfigFallsBackToDefault(t *testing.T) {
	log := New(nil)
	require.NotNil(t, log)
	log.Infow("hello")
	assert.NoError(t, log.Sync())
}

func TestNewWritesToLogFile(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/node.log"

	cfg := DefaultConfig()
	cfg.LogFile = path
	log := New(cfg)
	log.Infow("hitting the log file", "height", 3)
	_ = log.Sync()

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "hitting the log file")
}

func TestNamedTagsSubcomponent(t *testing.T) {
	log := New(DefaultConfig())
	sub := log.Named("peer")
	assert.Equal(t, "ledger.peer", sub.prefix)
	sub.Infow("peer connected")
}

func TestLevelFiltersBelowThreshold(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/warn.log"

	cfg := DefaultConfig()
	cfg.Level = WARN
	cfg.LogFile = path
	log := New(cfg)
	log.Debugw("should not appear")
	log.Warnw("should appear")
	_ = log.Sync()

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "should not appear")
	assert.Contains(t, string(raw), "should appear")
}
