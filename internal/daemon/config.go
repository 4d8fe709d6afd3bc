// Package daemon holds the process-level configuration for the sentinel
// service. Configuration is TOML on disk; every field has a working default
// so a missing file still boots.
package daemon

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// Config is the full daemon configuration tree.
type Config struct {
	API      APIConfig      `toml:"api"`
	Lock     LockConfig     `toml:"lock"`
	Replay   ReplayConfig   `toml:"replay"`
	Database DatabaseConfig `toml:"database"`
	Scan     ScanConfig     `toml:"scan"`
}

// APIConfig controls the HTTP listener.
type APIConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// Addr returns the host:port listen address.
func (c APIConfig) Addr() string { return fmt.Sprintf("%s:%d", c.Host, c.Port) }

// LockConfig controls the advisory balance locks.
type LockConfig struct {
	TTLMillis int `toml:"ttl_ms"`
}

// TTL returns the lock lifetime as a duration.
func (c LockConfig) TTL() time.Duration { return time.Duration(c.TTLMillis) * time.Millisecond }

// ReplayConfig controls the idempotency-key retention window.
type ReplayConfig struct {
	WindowMinutes int `toml:"window_minutes"`
}

// Window returns the retention window as a duration.
func (c ReplayConfig) Window() time.Duration {
	return time.Duration(c.WindowMinutes) * time.Minute
}

// DatabaseConfig locates the sqlite file.
type DatabaseConfig struct {
	Path string `toml:"path"`
}

// ScanConfig tunes the full-population scan.
type ScanConfig struct {
	Workers int `toml:"workers"`
}

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() Config {
	return Config{
		API:      APIConfig{Host: "127.0.0.1", Port: 8742},
		Lock:     LockConfig{TTLMillis: 5000},
		Replay:   ReplayConfig{WindowMinutes: 5},
		Database: DatabaseConfig{Path: "sentinel.db"},
		Scan:     ScanConfig{Workers: 8},
	}
}

// LoadConfig reads the TOML file at path, layering it over the defaults.
// A missing file is not an error; a malformed one is.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		path = DefaultConfigPath()
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// DefaultConfigPath returns ~/.sentinel/config.toml, or the relative
// fallback when the home directory cannot be resolved.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "config.toml"
	}
	return filepath.Join(home, ".sentinel", "config.toml")
}

func (c Config) validate() error {
	if c.API.Port < 1 || c.API.Port > 65535 {
		return fmt.Errorf("api.port %d out of range", c.API.Port)
	}
	if c.Lock.TTLMillis <= 0 {
		return fmt.Errorf("lock.ttl_ms must be positive, got %d", c.Lock.TTLMillis)
	}
	if c.Replay.WindowMinutes <= 0 {
		return fmt.Errorf("replay.window_minutes must be positive, got %d", c.Replay.WindowMinutes)
	}
	if c.Scan.Workers <= 0 {
		return fmt.Errorf("scan.workers must be positive, got %d", c.Scan.Workers)
	}
	return nil
}
