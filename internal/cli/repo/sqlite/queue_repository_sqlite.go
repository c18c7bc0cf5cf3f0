package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"Notico/internal/cli/model"
	"Notico/internal/cli/repo"
	"Notico/internal/dbx"
)

// QueueRepositorySQLite хранит очередь синхронизации в таблице sync_queue.
type QueueRepositorySQLite struct {
	db dbx.DBTX
}

var _ repo.QueueRepository = (*QueueRepositorySQLite)(nil)

func NewQueueRepository(db dbx.DBTX) *QueueRepositorySQLite {
	return &QueueRepositorySQLite{db: db}
}

// deleteChunk keeps IN (...) lists well below SQLite's bound parameter limit.
const deleteChunk = 500

func (r *QueueRepositorySQLite) Append(ctx context.Context, e *model.QueueEntry) error {
	var data any
	if len(e.Data) > 0 {
		data = string(e.Data)
	}
	res, err := r.db.ExecContext(ctx, `INSERT INTO sync_queue(action, entity_type, client_id, data, timestamp)
		VALUES(?, ?, ?, ?, ?)`, string(e.Action), string(e.EntityType), e.ClientID, data, formatTime(e.Timestamp))
	if err != nil {
		return fmt.Errorf("append queue entry for %s: %w", e.ClientID, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("append queue entry for %s: %w", e.ClientID, err)
	}
	e.ID = id
	return nil
}

func (r *QueueRepositorySQLite) List(ctx context.Context) ([]model.QueueEntry, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, action, entity_type, client_id, data, timestamp
		FROM sync_queue ORDER BY timestamp, id`)
	if err != nil {
		return nil, fmt.Errorf("list queue: %w", err)
	}
	defer rows.Close()
	res := []model.QueueEntry{}
	for rows.Next() {
		var (
			e                  model.QueueEntry
			action, entityType string
			data               sql.NullString
			ts                 string
		)
		if err := rows.Scan(&e.ID, &action, &entityType, &e.ClientID, &data, &ts); err != nil {
			return nil, fmt.Errorf("scan queue entry: %w", err)
		}
		e.Action = model.Action(action)
		e.EntityType = model.EntityType(entityType)
		if data.Valid {
			e.Data = []byte(data.String)
		}
		if e.Timestamp, err = parseTime(ts); err != nil {
			return nil, err
		}
		res = append(res, e)
	}
	return res, rows.Err()
}

func (r *QueueRepositorySQLite) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sync_queue`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count queue: %w", err)
	}
	return n, nil
}

func (r *QueueRepositorySQLite) CountFor(ctx context.Context, entityType model.EntityType, clientID string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sync_queue WHERE entity_type = ? AND client_id = ?`,
		string(entityType), clientID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count queue for %s: %w", clientID, err)
	}
	return n, nil
}

func (r *QueueRepositorySQLite) DeleteIDs(ctx context.Context, ids []int64) error {
	for start := 0; start < len(ids); start += deleteChunk {
		end := min(start+deleteChunk, len(ids))
		chunk := ids[start:end]
		args := make([]any, len(chunk))
		for i, id := range chunk {
			args[i] = id
		}
		placeholders := strings.TrimSuffix(strings.Repeat("?,", len(chunk)), ",")
		if _, err := r.db.ExecContext(ctx, `DELETE FROM sync_queue WHERE id IN (`+placeholders+`)`, args...); err != nil {
			return fmt.Errorf("delete queue entries: %w", err)
		}
	}
	return nil
}
