package sqlite

import (
	"Notico/internal/cli/repo"
	"Notico/internal/dbx"
)

// New binds all local repositories to db, which may be a *sql.DB or a *sql.Tx.
func New(db dbx.DBTX) repo.Repositories {
	return repo.Repositories{
		Items:   NewItemRepository(db),
		Folders: NewFolderRepository(db),
		Queue:   NewQueueRepository(db),
		Meta:    NewMetadataRepository(db),
	}
}
