// Package daemon manages the teeline runtime lifecycle and configuration.
package daemon

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config holds all runtime configuration.
type Config struct {
	Backend   BackendConfig   `toml:"backend"`
	API       APIConfig       `toml:"api"`
	Dial      DialConfig      `toml:"dial"`
	Reconcile ReconcileConfig `toml:"reconcile"`
	Telemetry TelemetryConfig `toml:"telemetry"`
}

// BackendConfig points at the AI-calling backend.
type BackendConfig struct {
	BaseURL string `toml:"base_url"`
	Timeout string `toml:"timeout"`
}

// APIConfig controls the local HTTP API consumed by the dashboard UI.
type APIConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// DialConfig controls manual call placement. Command is run through the
// shell with {number} substituted; empty means log-only.
type DialConfig struct {
	Command string `toml:"command"`
}

// ReconcileConfig controls polling cadence.
type ReconcileConfig struct {
	PollInterval        string `toml:"poll_interval"`
	TriggerScanInterval string `toml:"trigger_scan_interval"`
}

// TelemetryConfig controls observability endpoints.
type TelemetryConfig struct {
	Prometheus bool `toml:"prometheus"`
}

// DefaultConfig returns a sensible default configuration.
func DefaultConfig() Config {
	return Config{
		Backend: BackendConfig{
			BaseURL: "http://127.0.0.1:8000",
			Timeout: "30s",
		},
		API: APIConfig{
			Host: "127.0.0.1",
			Port: 7380,
		},
		Dial: DialConfig{
			Command: "",
		},
		Reconcile: ReconcileConfig{
			PollInterval:        "5s",
			TriggerScanInterval: "1s",
		},
		Telemetry: TelemetryConfig{
			Prometheus: false,
		},
	}
}

// LoadConfig reads config from $TEELINE_HOME/config.toml, falling back to
// defaults when no file exists yet.
func LoadConfig() (Config, error) {
	cfg := DefaultConfig()
	path := filepath.Join(teelineHome(), "config.toml")

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil // No config file yet — use defaults
	}

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// SaveConfig writes the config to $TEELINE_HOME/config.toml.
func SaveConfig(cfg Config) error {
	path := filepath.Join(teelineHome(), "config.toml")
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	encoder := toml.NewEncoder(f)
	return encoder.Encode(cfg)
}

// teelineHome returns the teeline data directory.
func teelineHome() string {
	if env := os.Getenv("TEELINE_HOME"); env != "" {
		return env
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".teeline")
}

// Home is exported for use by other packages.
func Home() string {
	return teelineHome()
}
