// Package config loads the pyro.json configuration used by the pyro
// CLI and the inspector.
package config

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

const (
	// ConfigFileName is the name of the configuration file.
	ConfigFileName = "pyro.json"

	// DefaultAddr is the default inspector listen address.
	DefaultAddr = "localhost:7311"

	// DefaultLogLevel is the default slog level name.
	DefaultLogLevel = "info"
)

// Config represents the complete pyro.json configuration.
type Config struct {
	// Addr is the inspector listen address.
	Addr string `json:"addr,omitempty"`

	// LogLevel is the slog level name: debug, info, warn, error.
	LogLevel string `json:"logLevel,omitempty"`

	// Metrics enables the Prometheus /metrics endpoint.
	Metrics bool `json:"metrics,omitempty"`

	// FrameBuffer is the per-watcher live-feed queue depth.
	FrameBuffer int `json:"frameBuffer,omitempty"`
}

// Default returns the configuration used when no pyro.json exists.
func Default() *Config {
	return &Config{
		Addr:     DefaultAddr,
		LogLevel: DefaultLogLevel,
		Metrics:  true,
	}
}

// Load reads pyro.json from dir, falling back to defaults when the
// file does not exist.
func Load(dir string) (*Config, error) {
	return LoadFile(filepath.Join(dir, ConfigFileName))
}

// LoadFile reads the configuration from an explicit path.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	cfg := Default()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if cfg.Addr == "" {
		cfg.Addr = DefaultAddr
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = DefaultLogLevel
	}
	return cfg, nil
}

// SaveTo writes the configuration as indented JSON.
func (c *Config) SaveTo(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("config: encode: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("config: write %s: %w", path, err)
	}
	return nil
}

// SlogLevel maps the configured level name onto a slog.Level.
// Unknown names fall back to info.
func (c *Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
