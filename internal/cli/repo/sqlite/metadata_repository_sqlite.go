package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"Notico/internal/cli/repo"
	"Notico/internal/dbx"
)

type MetadataRepositorySQLite struct {
	db dbx.DBTX
}

var _ repo.MetadataRepository = (*MetadataRepositorySQLite)(nil)

func NewMetadataRepository(db dbx.DBTX) *MetadataRepositorySQLite {
	return &MetadataRepositorySQLite{db: db}
}

func (r *MetadataRepositorySQLite) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := r.db.QueryRowContext(ctx, `SELECT value FROM metadata WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get metadata[%s]: %w", key, err)
	}
	return value, nil
}

func (r *MetadataRepositorySQLite) Set(ctx context.Context, key string, value []byte) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO metadata (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	if err != nil {
		return fmt.Errorf("failed to set metadata[%s]: %w", key, err)
	}
	return nil
}

func (r *MetadataRepositorySQLite) Delete(ctx context.Context, key string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM metadata WHERE key = ?`, key); err != nil {
		return fmt.Errorf("failed to delete metadata[%s]: %w", key, err)
	}
	return nil
}
