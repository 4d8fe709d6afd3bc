package daemon

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.API.Host != "127.0.0.1" {
		t.Errorf("API.Host = %q, want %q", cfg.API.Host, "127.0.0.1")
	}
	if cfg.API.Port != 8742 {
		t.Errorf("API.Port = %d, want %d", cfg.API.Port, 8742)
	}
	if got := cfg.Lock.TTL(); got != 5*time.Second {
		t.Errorf("Lock.TTL() = %v, want 5s", got)
	}
	if got := cfg.Replay.Window(); got != 5*time.Minute {
		t.Errorf("Replay.Window() = %v, want 5m", got)
	}
	if cfg.Database.Path != "sentinel.db" {
		t.Errorf("Database.Path = %q, want %q", cfg.Database.Path, "sentinel.db")
	}
	if cfg.Scan.Workers != 8 {
		t.Errorf("Scan.Workers = %d, want 8", cfg.Scan.Workers)
	}
}

func TestLoadConfigMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg != DefaultConfig() {
		t.Errorf("missing file should yield defaults, got %+v", cfg)
	}
}

func TestLoadConfigLayersOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	body := `
[api]
port = 9000

[scan]
workers = 2
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.API.Port != 9000 {
		t.Errorf("API.Port = %d, want 9000", cfg.API.Port)
	}
	if cfg.Scan.Workers != 2 {
		t.Errorf("Scan.Workers = %d, want 2", cfg.Scan.Workers)
	}
	// Untouched sections keep their defaults.
	if cfg.API.Host != "127.0.0.1" || cfg.Lock.TTLMillis != 5000 {
		t.Errorf("defaults lost: %+v", cfg)
	}
}

func TestLoadConfigRejectsBadValues(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"port out of range", "[api]\nport = 99999\n"},
		{"zero lock ttl", "[lock]\nttl_ms = 0\n"},
		{"negative workers", "[scan]\nworkers = -1\n"},
		{"malformed toml", "[api\nport ="},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.toml")
			if err := os.WriteFile(path, []byte(tt.body), 0o644); err != nil {
				t.Fatalf("write config: %v", err)
			}
			if _, err := LoadConfig(path); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}
