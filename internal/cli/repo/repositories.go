package repo

import "context"

// Repositories — набор репозиториев, привязанных к одному соединению или
// к одной транзакции.
type Repositories struct {
	Items   ItemRepository
	Folders FolderRepository
	Queue   QueueRepository
	Meta    MetadataRepository
}

// Transactor runs fn against repositories bound to a single transaction:
// everything fn does commits together or not at all.
type Transactor interface {
	InTx(ctx context.Context, fn func(ctx context.Context, r Repositories) error) error
}
