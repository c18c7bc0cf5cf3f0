package commands

import (
	"bytes"
	"context"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"Notico/internal/config"
)

// testConfig направляет базы и токен во временный каталог.
func testConfig(t *testing.T, serverURL string) *config.Config {
	t.Helper()
	dir := t.TempDir()
	if serverURL == "" {
		serverURL = "http://127.0.0.1:1"
	}
	return &config.Config{
		ServerURL:        serverURL,
		ClientDBPath:     filepath.Join(dir, "users"),
		AuthDir:          filepath.Join(dir, "auth"),
		LogLevel:         "error",
		SyncDebounce:     time.Hour,
		SyncPollInterval: time.Hour,
		SyncTimeout:      2 * time.Second,
		ProbeInterval:    20 * time.Millisecond,
	}
}

// перехват stdout на время теста
func withStdoutCapture(t *testing.T, fn func()) string {
	t.Helper()
	old := Out
	var buf bytes.Buffer
	Out = &buf
	defer func() { Out = old }()
	fn()
	return buf.String()
}

// run выполняет команду через Dispatch и возвращает код и вывод.
func run(t *testing.T, cfg *config.Config, args ...string) (int, string) {
	t.Helper()
	var code int
	out := withStdoutCapture(t, func() { code = Dispatch(context.Background(), cfg, args) })
	return code, out
}

var idRe = regexp.MustCompile(`id:\s+([0-9a-f-]{36})`)

func createdID(t *testing.T, out string) string {
	t.Helper()
	m := idRe.FindStringSubmatch(out)
	if m == nil {
		t.Fatalf("no id in output: %s", out)
	}
	return m[1]
}

var uuidRe = regexp.MustCompile(`[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}`)
