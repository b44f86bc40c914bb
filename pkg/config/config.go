// Package config loads mcadecode's persistent settings from
// ~/.mcadecode/config.toml.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config holds settings shared across the decode, watch, agent, and
// schedule subcommands so they don't need to be repeated as flags.
type Config struct {
	Database  DatabaseConfig  `toml:"database"`
	Decode    DecodeConfig    `toml:"decode"`
	Agent     AgentConfig     `toml:"agent"`
	Telemetry TelemetryConfig `toml:"telemetry"`
}

// DatabaseConfig points at the SQLite store used for runs/events/warnings.
type DatabaseConfig struct {
	Path string `toml:"path"`
}

// DecodeConfig sets the default decode behavior applied when a subcommand
// doesn't override it with a flag.
type DecodeConfig struct {
	// ProcessorSignature, in "FF_MMH" form, selects the family.Dispatch
	// handler. Empty disables family-specific enrichment.
	ProcessorSignature string `toml:"processor_signature"`
	// ErrorControlBit1 mirrors mca.Options.ErrorControlBit1.
	ErrorControlBit1 bool `toml:"error_control_bit1"`
}

// AgentConfig sets default mTLS material for `mcadecode agent`.
type AgentConfig struct {
	CertFile string `toml:"cert_file"`
	KeyFile  string `toml:"key_file"`
	CAFile   string `toml:"ca_file"`
	Port     int    `toml:"port"`
}

// TelemetryConfig sets the opt-in telemetry defaults.
type TelemetryConfig struct {
	Enabled  bool   `toml:"enabled"`
	Endpoint string `toml:"endpoint"`
	APIKey   string `toml:"api_key"`
}

// Default returns the built-in defaults used when no config file exists.
func Default() Config {
	home, _ := os.UserHomeDir()
	return Config{
		Database: DatabaseConfig{
			Path: filepath.Join(home, ".mcadecode", "mcadecode.db"),
		},
		Decode: DecodeConfig{
			ErrorControlBit1: true,
		},
		Agent: AgentConfig{
			Port: 8443,
		},
	}
}

// Path returns the default config file location, honoring
// MCADECODE_CONFIG when set.
func Path() string {
	if p := os.Getenv("MCADECODE_CONFIG"); p != "" {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".mcadecode/config.toml"
	}
	return filepath.Join(home, ".mcadecode", "config.toml")
}

// Load reads the config file at path, layering it over Default(). A
// missing file is not an error; Default() is returned unchanged.
func Load(path string) (Config, error) {
	cfg := Default()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, fmt.Errorf("config: decode %s: %w", path, err)
	}

	return cfg, nil
}

// Save writes cfg to path as TOML, creating parent directories as needed.
func Save(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("config: create directory: %w", err)
	}

	f, err := os.Create(path) // #nosec G304 -- path is the operator's own config location
	if err != nil {
		return fmt.Errorf("config: create %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	if err := toml.NewEncoder(f).Encode(cfg); err != nil {
		return fmt.Errorf("config: encode: %w", err)
	}

	return nil
}
