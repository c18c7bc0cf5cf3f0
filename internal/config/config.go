package config

import (
	"flag"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

type Config struct {
	// Server-side settings
	DatabaseDSN string `env:"DATABASE_URI"`
	AuthSecret  string `env:"AUTH_SECRET"`
	// DefaultTier — план новых пользователей.
	DefaultTier string `env:"DEFAULT_TIER" envDefault:"pro"`

	// Shared settings
	BaseURL     string `env:"BASE_URL"`
	EnableHTTPS bool   `env:"ENABLE_HTTPS"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"warn"`

	// Client-side settings
	ServerURL    string `env:"-"`
	ClientDBPath string `env:"CLIENT_DB_PATH"` // каталог с базами пользователей
	AuthDir      string `env:"AUTH_DIR"`       // каталог токена и последнего логина
	Version      bool   `env:"-"`              // show client version and exit (flag only)

	// Sync settings
	SyncDebounce     time.Duration `env:"SYNC_DEBOUNCE" envDefault:"1s"`
	SyncPollInterval time.Duration `env:"SYNC_POLL_INTERVAL" envDefault:"30s"`
	SyncTimeout      time.Duration `env:"SYNC_TIMEOUT" envDefault:"30s"`
	KeepFailedOps    bool          `env:"SYNC_KEEP_FAILED_OPS"`
	ProbeInterval    time.Duration `env:"PROBE_INTERVAL" envDefault:"10s"`
}

func NewConfig() *Config {
	_ = godotenv.Load()

	cfg := &Config{}
	_ = env.Parse(cfg)

	// flags работают ТОЛЬКО если переменные из env не заданы
	// Server flags
	flag.StringVar(&cfg.DatabaseDSN, "d", cfg.DatabaseDSN, "строка подключения к БД")
	flag.StringVar(&cfg.AuthSecret, "auth-secret", cfg.AuthSecret, "секрет для подписи JWT")
	flag.StringVar(&cfg.DefaultTier, "default-tier", cfg.DefaultTier, "plan of newly registered users (free|pro)")
	// Shared/client flags
	flag.StringVar(&cfg.BaseURL, "base-url", cfg.BaseURL, "address of the Notico server (host:port)")
	flag.BoolVar(&cfg.EnableHTTPS, "https", cfg.EnableHTTPS, "enable HTTPS (client: prefer https scheme for BaseURL)")
	flag.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "debug|info|warn|error")
	// Client flags
	flag.StringVar(&cfg.ClientDBPath, "client-db", cfg.ClientDBPath, "directory with per-user SQLite databases")
	flag.StringVar(&cfg.AuthDir, "auth-dir", cfg.AuthDir, "directory for the auth token and last login")
	flag.BoolVar(&cfg.Version, "version", cfg.Version, "Show client version and exit")
	flag.DurationVar(&cfg.SyncDebounce, "sync-debounce", cfg.SyncDebounce, "delay between a local change and the sync round")
	flag.DurationVar(&cfg.SyncPollInterval, "sync-poll", cfg.SyncPollInterval, "periodic sync interval while watching")
	flag.DurationVar(&cfg.SyncTimeout, "sync-timeout", cfg.SyncTimeout, "timeout of one sync request")
	flag.BoolVar(&cfg.KeepFailedOps, "keep-failed-ops", cfg.KeepFailedOps, "keep operations the server rejected for retry")
	flag.DurationVar(&cfg.ProbeInterval, "probe-interval", cfg.ProbeInterval, "connectivity check interval while watching")

	flag.Parse()

	// Defaults
	if cfg.AuthSecret == "" {
		cfg.AuthSecret = "dev-secret-key"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "warn"
	}
	if cfg.DefaultTier != "free" {
		cfg.DefaultTier = "pro"
	}
	// validate BaseURL: must be in "address:port" (no scheme, no path). Otherwise use default.
	hostPortRe := regexp.MustCompile(`^[A-Za-z0-9\.\-]+:\d{1,5}$`)
	if !hostPortRe.MatchString(cfg.BaseURL) {
		cfg.BaseURL = "localhost:8081"
	}

	if cfg.EnableHTTPS {
		cfg.ServerURL = "https://" + cfg.BaseURL
	} else {
		cfg.ServerURL = "http://" + cfg.BaseURL
	}

	// Fill client defaults if empty
	base, err := os.UserConfigDir()
	if err != nil {
		base, _ = os.UserHomeDir()
	}
	if cfg.ClientDBPath == "" {
		cfg.ClientDBPath = filepath.Join(base, "Notico", "users")
	}
	if cfg.AuthDir == "" {
		cfg.AuthDir = filepath.Join(base, "Notico")
	}
	if cfg.SyncDebounce <= 0 {
		cfg.SyncDebounce = time.Second
	}
	if cfg.SyncPollInterval <= 0 {
		cfg.SyncPollInterval = 30 * time.Second
	}
	if cfg.SyncTimeout <= 0 {
		cfg.SyncTimeout = 30 * time.Second
	}
	if cfg.ProbeInterval <= 0 {
		cfg.ProbeInterval = 10 * time.Second
	}

	return cfg
}
