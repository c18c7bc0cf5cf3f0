package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"Notico/internal/cli/model"
	"Notico/internal/cli/repo"
	"Notico/internal/dbx"
)

// FolderRepositorySQLite — репозиторий папок в локальной SQLite.
type FolderRepositorySQLite struct {
	db dbx.DBTX
}

var _ repo.FolderRepository = (*FolderRepositorySQLite)(nil)

func NewFolderRepository(db dbx.DBTX) *FolderRepositorySQLite {
	return &FolderRepositorySQLite{db: db}
}

const folderColumns = `client_id, server_id, name, color, deleted, deleted_at, created_at, updated_at`

func folderArgs(f *model.Folder) []any {
	var serverID any
	if f.ServerID != "" {
		serverID = f.ServerID
	}
	return []any{
		f.ClientID, serverID, f.Name, f.Color, boolToInt(f.Deleted),
		formatTimePtr(f.DeletedAt), formatTime(f.CreatedAt), formatTime(f.UpdatedAt),
	}
}

func scanFolder(s rowScanner) (*model.Folder, error) {
	var (
		f                    model.Folder
		serverID, deletedAt  sql.NullString
		createdAt, updatedAt string
		deleted              int
	)
	if err := s.Scan(&f.ClientID, &serverID, &f.Name, &f.Color, &deleted, &deletedAt, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	f.ServerID = serverID.String
	f.Deleted = deleted != 0
	var err error
	if f.DeletedAt, err = parseTimePtr(deletedAt); err != nil {
		return nil, err
	}
	if f.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if f.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &f, nil
}

func (r *FolderRepositorySQLite) queryFolders(ctx context.Context, query string, args ...any) ([]model.Folder, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	res := []model.Folder{}
	for rows.Next() {
		f, err := scanFolder(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, *f)
	}
	return res, rows.Err()
}

func (r *FolderRepositorySQLite) Get(ctx context.Context, clientID string) (*model.Folder, error) {
	f, err := scanFolder(r.db.QueryRowContext(ctx, `SELECT `+folderColumns+` FROM folders WHERE client_id = ?`, clientID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repo.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get folder %s: %w", clientID, err)
	}
	return f, nil
}

func (r *FolderRepositorySQLite) Insert(ctx context.Context, f *model.Folder) error {
	if _, err := r.db.ExecContext(ctx, `INSERT INTO folders(`+folderColumns+`)
		VALUES(?, ?, ?, ?, ?, ?, ?, ?)`, folderArgs(f)...); err != nil {
		return fmt.Errorf("insert folder %s: %w", f.ClientID, err)
	}
	return nil
}

func (r *FolderRepositorySQLite) Upsert(ctx context.Context, f *model.Folder) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO folders(`+folderColumns+`)
		VALUES(?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(client_id) DO UPDATE SET
			server_id = excluded.server_id,
			name = excluded.name,
			color = excluded.color,
			deleted = excluded.deleted,
			deleted_at = excluded.deleted_at,
			created_at = excluded.created_at,
			updated_at = excluded.updated_at`, folderArgs(f)...)
	if err != nil {
		return fmt.Errorf("upsert folder %s: %w", f.ClientID, err)
	}
	return nil
}

func (r *FolderRepositorySQLite) Delete(ctx context.Context, clientID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM folders WHERE client_id = ?`, clientID); err != nil {
		return fmt.Errorf("delete folder %s: %w", clientID, err)
	}
	return nil
}

func (r *FolderRepositorySQLite) List(ctx context.Context) ([]model.Folder, error) {
	res, err := r.queryFolders(ctx, `SELECT `+folderColumns+` FROM folders WHERE deleted = 0
		ORDER BY name COLLATE NOCASE, client_id`)
	if err != nil {
		return nil, fmt.Errorf("list folders: %w", err)
	}
	return res, nil
}

func (r *FolderRepositorySQLite) ListDeleted(ctx context.Context) ([]model.Folder, error) {
	res, err := r.queryFolders(ctx, `SELECT `+folderColumns+` FROM folders WHERE deleted = 1
		ORDER BY deleted_at DESC, client_id`)
	if err != nil {
		return nil, fmt.Errorf("list deleted folders: %w", err)
	}
	return res, nil
}

func (r *FolderRepositorySQLite) PurgeDeletedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM folders
		WHERE deleted = 1 AND deleted_at IS NOT NULL AND deleted_at < ?`, formatTime(cutoff))
	if err != nil {
		return 0, fmt.Errorf("purge folders: %w", err)
	}
	return res.RowsAffected()
}
