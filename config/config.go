package config

import (
	"fmt"
	"os"
	"path"
)

const DefaultListenAddr = "127.0.0.1:8560"

type Config struct {
	Home string `mapstructure:"-"`

	// LogLevel filters the tm logger ("debug", "info", "error", ...).
	LogLevel string `mapstructure:"log_level"`

	// SourcePath points at the block dump to replay. The live archive client
	// plugs in through the same source interface.
	SourcePath string `mapstructure:"source_path"`

	// BatchSize is the number of blocks applied and committed together.
	BatchSize int `mapstructure:"batch_size"`

	// SS58Prefix selects the network a beneficiary address is rendered for.
	// 0 is the Polkadot relay chain.
	SS58Prefix uint16 `mapstructure:"ss58_prefix"`

	// ListenAddr is the query API bind address.
	ListenAddr string `mapstructure:"listen_addr"`
}

func DefaultConfig(home string) *Config {
	if len(home) == 0 {
		home = os.ExpandEnv("$HOME/.treasuryd")
	}
	_ = os.MkdirAll(home+"/config", 0o755)
	return &Config{
		Home:       home,
		LogLevel:   "info",
		SourcePath: path.Join(home, "blocks.jsonl"),
		BatchSize:  500,
		SS58Prefix: 0,
		ListenAddr: DefaultListenAddr,
	}
}

func (c *Config) StateDir() string {
	return path.Join(c.Home, "data")
}

func (c *Config) IndexDBPath() string {
	return path.Join(c.Home, "indexer.db")
}

func (c *Config) ConfigFile() string {
	return path.Join(c.Home, "config", "config.toml")
}

func (c *Config) ValidateBasic() error {
	if c.BatchSize <= 0 {
		return fmt.Errorf("batch_size must be positive, got %d", c.BatchSize)
	}
	if c.SourcePath == "" {
		return fmt.Errorf("source_path is required")
	}
	if c.SS58Prefix > 0x3fff {
		return fmt.Errorf("ss58_prefix out of range: %d", c.SS58Prefix)
	}
	return nil
}
