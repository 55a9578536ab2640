package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	raw := `
api:
  base_url: http://quiz.internal
scratch:
  driver: redis
  namespace: alice
redis:
  addr: localhost:6379
session:
  warning_below: 120
`
	if err := os.WriteFile(path, []byte(raw), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.API.BaseURL != "http://quiz.internal" || cfg.Scratch.Driver != "redis" || cfg.Scratch.Namespace != "alice" {
		t.Fatalf("unexpected overrides %+v", cfg)
	}
	if cfg.Session.WarningBelow != 120 {
		t.Fatalf("expected warning threshold override, got %d", cfg.Session.WarningBelow)
	}
	if cfg.Session.CheckpointEvery != 15 || cfg.API.Timeout != "30s" {
		t.Fatalf("expected untouched defaults, got %+v", cfg.Session)
	}
}

func TestLoadOrDefaultMissingFile(t *testing.T) {
	cfg, err := LoadOrDefault(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("expected defaults, got %v", err)
	}
	if cfg.Scratch.Driver != "sqlite" || cfg.Session.WarningBelow != 300 {
		t.Fatalf("unexpected defaults %+v", cfg)
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("Load must still report a missing file")
	}
}

func TestLoadRejectsBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("server: [unterminated"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := LoadOrDefault(path); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestDuration(t *testing.T) {
	if got := Duration("", time.Minute); got != time.Minute {
		t.Fatalf("expected fallback, got %v", got)
	}
	if got := Duration("250ms", time.Minute); got != 250*time.Millisecond {
		t.Fatalf("expected parsed duration, got %v", got)
	}
	if got := Duration("soon", time.Second); got != time.Second {
		t.Fatalf("expected fallback for garbage, got %v", got)
	}
}
