package repo

import (
	"Notico/internal/model"
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// FolderRepository — то же, что ItemRepository, для папок.
type FolderRepository interface {
	GetByClientID(ctx context.Context, userID int64, clientID string) (*model.Folder, error)
	Create(ctx context.Context, f *model.Folder) error
	Save(ctx context.Context, f *model.Folder) error
	ListAll(ctx context.Context, userID int64) ([]model.Folder, error)
	GetFoldersUpdatedSince(ctx context.Context, userID int64, since time.Time) ([]model.Folder, error)
}

type folderRepo struct {
	db *gorm.DB
}

func NewFolderRepository(db *gorm.DB) FolderRepository {
	return &folderRepo{db: db}
}

func (r *folderRepo) GetByClientID(ctx context.Context, userID int64, clientID string) (*model.Folder, error) {
	var f model.Folder
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND client_id = ?", userID, clientID).
		First(&f).Error
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func (r *folderRepo) Create(ctx context.Context, f *model.Folder) error {
	if f.ID == "" {
		f.ID = uuid.NewString()
	}
	return r.db.WithContext(ctx).Create(f).Error
}

func (r *folderRepo) Save(ctx context.Context, f *model.Folder) error {
	return r.db.WithContext(ctx).Save(f).Error
}

func (r *folderRepo) ListAll(ctx context.Context, userID int64) ([]model.Folder, error) {
	var folders []model.Folder
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at").Find(&folders).Error
	return folders, err
}

func (r *folderRepo) GetFoldersUpdatedSince(ctx context.Context, userID int64, since time.Time) ([]model.Folder, error) {
	var folders []model.Folder
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND synced_at >= ?", userID, since.UTC()).
		Order("synced_at").
		Find(&folders).Error
	return folders, err
}
