// Package config layers a config file and environment variables over
// built-in defaults using viper, grounded on the teacher's
// cmd/gochain loadConfig (explicit file or ./config.yaml, plus
// AutomaticEnv).
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// NodeConfig is the node binary's full configuration surface.
type NodeConfig struct {
	ListenPort     int      `mapstructure:"listen_port"`
	ChainFile      string   `mapstructure:"chain_file"`
	BootstrapPeers []string `mapstructure:"bootstrap_peers"`
	MaxConnections int      `mapstructure:"max_connections"`
	LogLevel       string   `mapstructure:"log_level"`
	LogJSON        bool     `mapstructure:"log_json"`
	MetricsAddr    string   `mapstructure:"metrics_addr"`
}

// DefaultNodeConfig mirrors the spec's node CLI defaults: listen port
// 9000, max 100 simultaneous connections.
func DefaultNodeConfig() NodeConfig {
	return NodeConfig{
		ListenPort:     9000,
		ChainFile:      "chain.bin",
		MaxConnections: 100,
		LogLevel:       "info",
		MetricsAddr:    "",
	}
}

// Load reads an optional configFile, layers environment variables
// prefixed LEDGER_, and unmarshals into a NodeConfig seeded with
// defaults.
func Load(configFile string) (NodeConfig, error) {
	cfg := DefaultNodeConfig()

	v := viper.New()
	v.SetEnvPrefix("LEDGER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// AutomaticEnv only overrides keys viper already knows about, so
	// every field needs a registered default before Unmarshal.
	v.SetDefault("listen_port", cfg.ListenPort)
	v.SetDefault("chain_file", cfg.ChainFile)
	v.SetDefault("bootstrap_peers", cfg.BootstrapPeers)
	v.SetDefault("max_connections", cfg.MaxConnections)
	v.SetDefault("log_level", cfg.LogLevel)
	v.SetDefault("log_json", cfg.LogJSON)
	v.SetDefault("metrics_addr", cfg.MetricsAddr)

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return cfg, fmt.Errorf("config: read %s: %w", configFile, err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		_ = v.ReadInConfig() // absence of an optional config file is not an error
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("config: unmarshal: %w", err)
	}
	return cfg, nil
}
