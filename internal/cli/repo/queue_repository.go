package repo

import (
	"context"

	"Notico/internal/cli/model"
)

// QueueRepository — журнал локальных изменений, ожидающих отправки.
// Entries are only appended by the entity services and only removed by the
// sync engine.
type QueueRepository interface {
	// Append stores e and sets e.ID.
	Append(ctx context.Context, e *model.QueueEntry) error
	// List returns all entries in replay order (timestamp, then id).
	List(ctx context.Context) ([]model.QueueEntry, error)
	Count(ctx context.Context) (int, error)
	// CountFor returns the number of pending entries for one entity.
	CountFor(ctx context.Context, entityType model.EntityType, clientID string) (int, error)
	DeleteIDs(ctx context.Context, ids []int64) error
}
