package repo

import "context"

// Known metadata keys.
const (
	MetaLastSyncAt = "last_sync_at"
	MetaTier       = "tier"
)

// MetadataRepository — простое key/value хранилище в локальной БД.
type MetadataRepository interface {
	// Get returns nil, nil for a missing key.
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}
