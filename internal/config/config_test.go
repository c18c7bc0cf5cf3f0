package config

import (
	"flag"
	"os"
	"strings"
	"testing"
	"time"
)

// resetFlagSet создаёт новый FlagSet перед каждым вызовом NewConfig,
// чтобы избежать повторной регистрации одних и тех же флагов между тестами.
func resetFlagSet(t *testing.T) {
	t.Helper()
	flag.CommandLine = flag.NewFlagSet(os.Args[0], flag.ContinueOnError)
	// подавляем вывод парсера флагов в тестах
	flag.CommandLine.SetOutput(os.Stderr)
	old := os.Args
	os.Args = []string{old[0]}
	t.Cleanup(func() { os.Args = old })
}

func TestNewConfig_DefaultsWhenEnvEmpty(t *testing.T) {
	for _, k := range []string{
		"DATABASE_URI", "AUTH_SECRET", "BASE_URL", "ENABLE_HTTPS", "CLIENT_DB_PATH", "AUTH_DIR",
		"DEFAULT_TIER", "LOG_LEVEL", "SYNC_DEBOUNCE", "SYNC_POLL_INTERVAL", "SYNC_TIMEOUT",
		"SYNC_KEEP_FAILED_OPS", "PROBE_INTERVAL",
	} {
		t.Setenv(k, "")
	}

	resetFlagSet(t)
	cfg := NewConfig()

	if cfg.AuthSecret != "dev-secret-key" {
		t.Fatalf("AuthSecret default expected 'dev-secret-key', got %q", cfg.AuthSecret)
	}
	if cfg.BaseURL != "localhost:8081" {
		t.Fatalf("BaseURL default expected 'localhost:8081', got %q", cfg.BaseURL)
	}
	if cfg.ServerURL != "http://localhost:8081" {
		t.Fatalf("ServerURL default expected 'http://localhost:8081', got %q", cfg.ServerURL)
	}
	if cfg.ClientDBPath == "" || cfg.AuthDir == "" {
		t.Fatalf("client defaults must be non-empty: ClientDBPath=%q, AuthDir=%q", cfg.ClientDBPath, cfg.AuthDir)
	}
	if cfg.SyncDebounce != time.Second || cfg.SyncPollInterval != 30*time.Second || cfg.SyncTimeout != 30*time.Second {
		t.Fatalf("sync defaults: debounce=%v poll=%v timeout=%v", cfg.SyncDebounce, cfg.SyncPollInterval, cfg.SyncTimeout)
	}
	if cfg.KeepFailedOps {
		t.Fatalf("KeepFailedOps must be off by default")
	}
	if cfg.DefaultTier != "pro" {
		t.Fatalf("DefaultTier expected 'pro', got %q", cfg.DefaultTier)
	}
}

func TestNewConfig_BaseURLAndHTTPS(t *testing.T) {
	t.Setenv("BASE_URL", "example.com:443")
	t.Setenv("ENABLE_HTTPS", "true")
	t.Setenv("AUTH_SECRET", "top")

	resetFlagSet(t)
	cfg := NewConfig()

	if cfg.BaseURL != "example.com:443" {
		t.Fatalf("BaseURL expected 'example.com:443', got %q", cfg.BaseURL)
	}
	if cfg.ServerURL != "https://example.com:443" {
		t.Fatalf("ServerURL expected 'https://example.com:443', got %q", cfg.ServerURL)
	}
	if cfg.AuthSecret != "top" {
		t.Fatalf("AuthSecret expected from env 'top', got %q", cfg.AuthSecret)
	}
}

func TestNewConfig_InvalidBaseURLFallback(t *testing.T) {
	// Невалидный BASE_URL (со схемой) должен откатиться на localhost:8081
	t.Setenv("BASE_URL", "http://bad:8080")
	t.Setenv("ENABLE_HTTPS", "false")

	resetFlagSet(t)
	cfg := NewConfig()

	if cfg.BaseURL != "localhost:8081" {
		t.Fatalf("invalid BASE_URL must fallback to 'localhost:8081', got %q", cfg.BaseURL)
	}
	if !strings.HasPrefix(cfg.ServerURL, "http://localhost:8081") {
		t.Fatalf("ServerURL must reflect fallback base, got %q", cfg.ServerURL)
	}
}

func TestNewConfig_SyncSettingsFromEnv(t *testing.T) {
	t.Setenv("SYNC_DEBOUNCE", "250ms")
	t.Setenv("SYNC_POLL_INTERVAL", "1m")
	t.Setenv("SYNC_TIMEOUT", "5s")
	t.Setenv("SYNC_KEEP_FAILED_OPS", "true")
	t.Setenv("DEFAULT_TIER", "free")
	t.Setenv("LOG_LEVEL", "debug")

	resetFlagSet(t)
	cfg := NewConfig()

	if cfg.SyncDebounce != 250*time.Millisecond {
		t.Fatalf("SyncDebounce: %v", cfg.SyncDebounce)
	}
	if cfg.SyncPollInterval != time.Minute {
		t.Fatalf("SyncPollInterval: %v", cfg.SyncPollInterval)
	}
	if cfg.SyncTimeout != 5*time.Second {
		t.Fatalf("SyncTimeout: %v", cfg.SyncTimeout)
	}
	if !cfg.KeepFailedOps {
		t.Fatalf("KeepFailedOps expected true")
	}
	if cfg.DefaultTier != "free" {
		t.Fatalf("DefaultTier: %q", cfg.DefaultTier)
	}
	if cfg.LogLevel != "debug" {
		t.Fatalf("LogLevel: %q", cfg.LogLevel)
	}
}
