package repo

import (
	"context"
	"time"

	"Notico/internal/cli/model"
)

// FolderRepository — порт локального хранилища папок.
type FolderRepository interface {
	Get(ctx context.Context, clientID string) (*model.Folder, error)
	Insert(ctx context.Context, f *model.Folder) error
	Upsert(ctx context.Context, f *model.Folder) error
	Delete(ctx context.Context, clientID string) error
	// List returns non-deleted folders ordered by name.
	List(ctx context.Context) ([]model.Folder, error)
	ListDeleted(ctx context.Context) ([]model.Folder, error)
	PurgeDeletedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}
