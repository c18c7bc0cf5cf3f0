package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"Notico/internal/cli/model"
	"Notico/internal/cli/repo"
	"Notico/internal/dbx"
)

// ItemRepositorySQLite — репозиторий записей в локальной SQLite.
type ItemRepositorySQLite struct {
	db dbx.DBTX
}

var _ repo.ItemRepository = (*ItemRepositorySQLite)(nil)

func NewItemRepository(db dbx.DBTX) *ItemRepositorySQLite {
	return &ItemRepositorySQLite{db: db}
}

const itemColumns = `client_id, server_id, type, title, content, url, reminder_date, reminder_completed,
	tags, pinned, color, folder_id, deleted, deleted_at, created_at, updated_at`

func itemArgs(it *model.Item) ([]any, error) {
	tags := it.Tags
	if tags == nil {
		tags = []string{}
	}
	tagsJSON, err := json.Marshal(tags)
	if err != nil {
		return nil, fmt.Errorf("encode tags: %w", err)
	}
	var serverID any
	if it.ServerID != "" {
		serverID = it.ServerID
	}
	return []any{
		it.ClientID, serverID, string(it.Type), it.Title, it.Content, it.URL,
		formatTimePtr(it.ReminderDate), boolToInt(it.ReminderCompleted),
		string(tagsJSON), boolToInt(it.Pinned), it.Color, it.FolderID,
		boolToInt(it.Deleted), formatTimePtr(it.DeletedAt),
		formatTime(it.CreatedAt), formatTime(it.UpdatedAt),
	}, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(s rowScanner) (*model.Item, error) {
	var (
		it                      model.Item
		serverID                sql.NullString
		typ, tags               string
		reminder, deletedAt     sql.NullString
		createdAt, updatedAt    string
		completed, pinned, dele int
	)
	if err := s.Scan(&it.ClientID, &serverID, &typ, &it.Title, &it.Content, &it.URL,
		&reminder, &completed, &tags, &pinned, &it.Color, &it.FolderID,
		&dele, &deletedAt, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	it.ServerID = serverID.String
	it.Type = model.ItemType(typ)
	it.ReminderCompleted = completed != 0
	it.Pinned = pinned != 0
	it.Deleted = dele != 0
	if err := json.Unmarshal([]byte(tags), &it.Tags); err != nil {
		return nil, fmt.Errorf("decode tags of %s: %w", it.ClientID, err)
	}
	var err error
	if it.ReminderDate, err = parseTimePtr(reminder); err != nil {
		return nil, err
	}
	if it.DeletedAt, err = parseTimePtr(deletedAt); err != nil {
		return nil, err
	}
	if it.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if it.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &it, nil
}

func (r *ItemRepositorySQLite) queryItems(ctx context.Context, query string, args ...any) ([]model.Item, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	res := []model.Item{}
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, *it)
	}
	return res, rows.Err()
}

func (r *ItemRepositorySQLite) Get(ctx context.Context, clientID string) (*model.Item, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+itemColumns+` FROM items WHERE client_id = ?`, clientID)
	it, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repo.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get item %s: %w", clientID, err)
	}
	return it, nil
}

func (r *ItemRepositorySQLite) Insert(ctx context.Context, it *model.Item) error {
	args, err := itemArgs(it)
	if err != nil {
		return err
	}
	if _, err := r.db.ExecContext(ctx, `INSERT INTO items(`+itemColumns+`)
		VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, args...); err != nil {
		return fmt.Errorf("insert item %s: %w", it.ClientID, err)
	}
	return nil
}

func (r *ItemRepositorySQLite) Upsert(ctx context.Context, it *model.Item) error {
	args, err := itemArgs(it)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, `INSERT INTO items(`+itemColumns+`)
		VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(client_id) DO UPDATE SET
			server_id = excluded.server_id,
			type = excluded.type,
			title = excluded.title,
			content = excluded.content,
			url = excluded.url,
			reminder_date = excluded.reminder_date,
			reminder_completed = excluded.reminder_completed,
			tags = excluded.tags,
			pinned = excluded.pinned,
			color = excluded.color,
			folder_id = excluded.folder_id,
			deleted = excluded.deleted,
			deleted_at = excluded.deleted_at,
			created_at = excluded.created_at,
			updated_at = excluded.updated_at`, args...)
	if err != nil {
		return fmt.Errorf("upsert item %s: %w", it.ClientID, err)
	}
	return nil
}

func (r *ItemRepositorySQLite) Delete(ctx context.Context, clientID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM items WHERE client_id = ?`, clientID); err != nil {
		return fmt.Errorf("delete item %s: %w", clientID, err)
	}
	return nil
}

// List фильтрует по типу и папке в SQL, а текстовый поиск делает в памяти:
// теги хранятся одной JSON-строкой.
func (r *ItemRepositorySQLite) List(ctx context.Context, filter model.ItemFilter) ([]model.Item, error) {
	query := `SELECT ` + itemColumns + ` FROM items WHERE deleted = 0`
	var args []any
	if filter.Type != "" {
		query += ` AND type = ?`
		args = append(args, string(filter.Type))
	}
	if filter.FolderID != "" {
		query += ` AND folder_id = ?`
		args = append(args, filter.FolderID)
	}
	query += ` ORDER BY pinned DESC, updated_at DESC, client_id`
	items, err := r.queryItems(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	res := items[:0]
	for _, it := range items {
		if filter.Match(it) {
			res = append(res, it)
		}
	}
	return res, nil
}

func (r *ItemRepositorySQLite) ListDeleted(ctx context.Context) ([]model.Item, error) {
	items, err := r.queryItems(ctx, `SELECT `+itemColumns+` FROM items WHERE deleted = 1
		ORDER BY deleted_at DESC, client_id`)
	if err != nil {
		return nil, fmt.Errorf("list deleted items: %w", err)
	}
	return items, nil
}

func (r *ItemRepositorySQLite) ListInFolder(ctx context.Context, folderID string) ([]model.Item, error) {
	items, err := r.queryItems(ctx, `SELECT `+itemColumns+` FROM items WHERE deleted = 0 AND folder_id = ?
		ORDER BY client_id`, folderID)
	if err != nil {
		return nil, fmt.Errorf("list items in folder %s: %w", folderID, err)
	}
	return items, nil
}

func (r *ItemRepositorySQLite) PurgeDeletedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM items
		WHERE deleted = 1 AND deleted_at IS NOT NULL AND deleted_at < ?`, formatTime(cutoff))
	if err != nil {
		return 0, fmt.Errorf("purge items: %w", err)
	}
	return res.RowsAffected()
}
