package repo

import (
	"context"
	"errors"
	"time"

	"Notico/internal/cli/model"
)

// ErrNotFound возвращается, когда сущности с таким clientId нет в локальной БД.
var ErrNotFound = errors.New("not found")

// ItemRepository определяет порт доступа к локальному хранилищу записей.
type ItemRepository interface {
	// Get returns ErrNotFound when the item is absent.
	Get(ctx context.Context, clientID string) (*model.Item, error)
	Insert(ctx context.Context, it *model.Item) error
	// Upsert inserts the item or overwrites every column of the existing row.
	Upsert(ctx context.Context, it *model.Item) error
	Delete(ctx context.Context, clientID string) error

	// List returns non-deleted items, pinned first, then most recently updated.
	List(ctx context.Context, filter model.ItemFilter) ([]model.Item, error)
	// ListDeleted returns the trash, most recently deleted first.
	ListDeleted(ctx context.Context) ([]model.Item, error)
	// ListInFolder returns non-deleted items whose folderId is folderID.
	ListInFolder(ctx context.Context, folderID string) ([]model.Item, error)
	// PurgeDeletedBefore removes soft-deleted items deleted before cutoff.
	PurgeDeletedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}
