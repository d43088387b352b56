package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Database.JournalMode != "WAL" {
		t.Errorf("journal mode = %q, want WAL", cfg.Database.JournalMode)
	}
	if cfg.Daemon.Addr != ":8080" {
		t.Errorf("addr = %q, want :8080", cfg.Daemon.Addr)
	}
	if cfg.Daemon.ShutdownTimeout != 10*time.Second {
		t.Errorf("shutdown timeout = %s, want 10s", cfg.Daemon.ShutdownTimeout)
	}
	if cfg.Core.DataDir == "" {
		t.Error("data dir should default to a non-empty path")
	}
	if cfg.IsWebhookEnabled() {
		t.Error("webhook should be disabled by default")
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("PLANTLINE_ADDR", "127.0.0.1:9090")
	t.Setenv("PLANTLINE_LOG_LEVEL", "debug")
	t.Setenv("PLANTLINE_WEBHOOK_URL", "https://hooks.example.com/plantline")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Daemon.Addr != "127.0.0.1:9090" {
		t.Errorf("addr = %q, want 127.0.0.1:9090", cfg.Daemon.Addr)
	}
	if cfg.Core.LogLevel != "debug" {
		t.Errorf("log level = %q, want debug", cfg.Core.LogLevel)
	}
	if !cfg.IsWebhookEnabled() {
		t.Error("webhook should be enabled when URL is set")
	}
}

func TestValidateRejectsBadJournalMode(t *testing.T) {
	t.Setenv("PLANTLINE_DB_JOURNAL_MODE", "ROLLBACK")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for invalid journal mode")
	}
}
