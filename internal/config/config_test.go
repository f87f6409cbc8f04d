package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadFromPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte(`
listen_addr: ":9090"
database_url: "postgres://localhost/sonicpact"
log_level: debug
bootstrap:
  authority: auth-1
  fee_rate_bp: 250
`)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.ListenAddr != ":9090" {
		t.Fatalf("listen addr: %s", cfg.ListenAddr)
	}
	if cfg.Bootstrap.Authority != "auth-1" || cfg.Bootstrap.FeeRateBasisPoints != 250 {
		t.Fatalf("bootstrap not parsed: %+v", cfg.Bootstrap)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(`listen_addr: ":9090"`), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv("SONICPACT_LISTEN_ADDR", ":7070")
	t.Setenv("SONICPACT_BOOTSTRAP_FEE_BP", "500")

	cfg, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.ListenAddr != ":7070" {
		t.Fatalf("env should override file: %s", cfg.ListenAddr)
	}
	if cfg.Bootstrap.FeeRateBasisPoints != 500 {
		t.Fatalf("env fee override missing: %d", cfg.Bootstrap.FeeRateBasisPoints)
	}
}

func TestLoadOrDefaultWithoutFile(t *testing.T) {
	cfg := LoadOrDefault(filepath.Join(t.TempDir(), "missing.yaml"))
	if cfg.ListenAddr != ":8080" || cfg.LogLevel != "info" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
}
