// Package store opens the per-user local database and keeps its schema
// up to date.
package store

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sync"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"Notico/internal/cli/repo"
	"Notico/internal/cli/repo/sqlite"
	"Notico/internal/dbx"
)

// AnonymousLogin — каталог БД для работы без входа (только локально).
const AnonymousLogin = "anonymous"

//go:embed migrations/*.sql
var migrationsFS embed.FS

// goose keeps its dialect and base FS in package globals.
var gooseMu sync.Mutex

// Store wraps the SQLite database of one user.
type Store struct {
	db   *sql.DB
	path string
}

var _ repo.Transactor = (*Store)(nil)

// DefaultBaseDir returns <UserConfigDir>/Notico/users.
func DefaultBaseDir() (string, error) {
	cfgDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(cfgDir, "Notico", "users"), nil
}

// OpenForUser opens (and creates if needed) <base>/<login>/client.sqlite and
// applies pending migrations. An empty base falls back to DefaultBaseDir.
func OpenForUser(ctx context.Context, base, login string) (*Store, error) {
	if err := ValidateLogin(login); err != nil {
		return nil, err
	}
	if base == "" {
		var err error
		if base, err = DefaultBaseDir(); err != nil {
			return nil, err
		}
	}
	dir := filepath.Join(base, login)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create user dir: %w", err)
	}
	dbPath := filepath.Join(dir, "client.sqlite")
	s, err := Open(ctx, "file:"+dbPath+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, err
	}
	s.path = dbPath
	return s, nil
}

// Open opens a database by DSN and migrates it. Tests use in-memory DSNs.
func Open(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open local db: %w", err)
	}
	// один писатель: транзакции выполняются строго последовательно
	db.SetMaxOpenConns(1)
	s := &Store{db: db}
	if err := s.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// Migrate applies embedded goose migrations.
func (s *Store) Migrate(ctx context.Context) error {
	gooseMu.Lock()
	defer gooseMu.Unlock()

	goose.SetBaseFS(migrationsFS)
	goose.SetLogger(goose.NopLogger())
	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}
	if err := goose.UpContext(ctx, s.db, "migrations"); err != nil {
		return fmt.Errorf("migrate local db: %w", err)
	}
	return nil
}

// Version returns the applied schema version.
func (s *Store) Version(ctx context.Context) (int64, error) {
	gooseMu.Lock()
	defer gooseMu.Unlock()
	if err := goose.SetDialect("sqlite3"); err != nil {
		return 0, err
	}
	return goose.GetDBVersionContext(ctx, s.db)
}

// InTx runs fn with repositories bound to one transaction.
func (s *Store) InTx(ctx context.Context, fn func(ctx context.Context, r repo.Repositories) error) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return fn(ctx, sqlite.New(tx))
	})
}

// Repos returns repositories bound to the connection pool, outside any transaction.
func (s *Store) Repos() repo.Repositories {
	return sqlite.New(s.db)
}

func (s *Store) DB() *sql.DB { return s.db }

// Path is the database file path; empty for DSN-opened stores.
func (s *Store) Path() string { return s.path }

// Close closes the underlying DB.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

var loginRe = regexp.MustCompile(`^[A-Za-z0-9._-]+$`)

// ValidateLogin checks that login is safe to use as a directory name.
func ValidateLogin(login string) error {
	if login == "" {
		return errors.New("empty login for user store")
	}
	if login == "." || login == ".." || !loginRe.MatchString(login) {
		return fmt.Errorf("invalid login: %q (allowed: letters, digits, . _ -)", login)
	}
	return nil
}
