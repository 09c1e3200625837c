package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultNodeConfig(t *testing.T) {
	cfg := DefaultNodeConfig()
	assert.Equal(t, 9000, cfg.ListenPort)
	assert.Equal(t, "chain.bin", cfg.ChainFile)
	assert.Equal(t, 100, cfg.MaxConnections)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Empty(t, cfg.MetricsAddr)
}

func TestLoadWithNoFileOrEnvReturnsDefaults(t *testing.T) {
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, DefaultNodeConfig(), cfg)
}

func TestLoadReadsExplicitConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/node.yaml"
	require.NoError(t, os.WriteFile(path, []byte("listen_port: 9100\nmax_connections: 7\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9100, cfg.ListenPort)
	assert.Equal(t, 7, cfg.MaxConnections)
	assert.Equal(t, "chain.bin", cfg.ChainFile)
}

func TestLoadRespectsEnvOverride(t *testing.T) {
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	t.Setenv("LEDGER_LISTEN_PORT", "9200")
	t.Setenv("LEDGER_LOG_LEVEL", "debug")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 9200, cfg.ListenPort)
	assert.Equal(t, "debug", cfg.LogLevel)
}
