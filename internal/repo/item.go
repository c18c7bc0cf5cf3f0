package repo

import (
	"Notico/internal/model"
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ItemRepository — доступ к записям пользователя на сервере.
// Записи адресуются парой (userID, clientID).
type ItemRepository interface {
	// GetByClientID возвращает gorm.ErrRecordNotFound, если записи нет.
	GetByClientID(ctx context.Context, userID int64, clientID string) (*model.Item, error)
	// Create присваивает ID, если он пустой.
	Create(ctx context.Context, it *model.Item) error
	Save(ctx context.Context, it *model.Item) error
	// MarkFolderItemsDeleted помечает удалёнными живые записи папки.
	MarkFolderItemsDeleted(ctx context.Context, userID int64, folderClientID string, at time.Time) (int64, error)
	ListAll(ctx context.Context, userID int64) ([]model.Item, error)
	// GetItemsUpdatedSince возвращает записи с SyncedAt >= since.
	GetItemsUpdatedSince(ctx context.Context, userID int64, since time.Time) ([]model.Item, error)
}

type itemRepo struct {
	db *gorm.DB
}

// NewItemRepository создаёт реализацию репозитория для Item.
func NewItemRepository(db *gorm.DB) ItemRepository {
	return &itemRepo{db: db}
}

func (r *itemRepo) GetByClientID(ctx context.Context, userID int64, clientID string) (*model.Item, error) {
	var it model.Item
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND client_id = ?", userID, clientID).
		First(&it).Error
	if err != nil {
		return nil, err
	}
	return &it, nil
}

func (r *itemRepo) Create(ctx context.Context, it *model.Item) error {
	if it.ID == "" {
		it.ID = uuid.NewString()
	}
	return r.db.WithContext(ctx).Create(it).Error
}

func (r *itemRepo) Save(ctx context.Context, it *model.Item) error {
	return r.db.WithContext(ctx).Save(it).Error
}

func (r *itemRepo) MarkFolderItemsDeleted(ctx context.Context, userID int64, folderClientID string, at time.Time) (int64, error) {
	tx := r.db.WithContext(ctx).Model(&model.Item{}).
		Where("user_id = ? AND folder_id = ? AND deleted = ?", userID, folderClientID, false).
		Updates(map[string]any{
			"deleted":    true,
			"deleted_at": at,
			"updated_at": at,
			"synced_at":  at,
		})
	return tx.RowsAffected, tx.Error
}

func (r *itemRepo) ListAll(ctx context.Context, userID int64) ([]model.Item, error) {
	var items []model.Item
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at").
		Find(&items).Error
	return items, err
}

func (r *itemRepo) GetItemsUpdatedSince(ctx context.Context, userID int64, since time.Time) ([]model.Item, error) {
	var items []model.Item
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND synced_at >= ?", userID, since.UTC()).
		Order("synced_at").
		Find(&items).Error
	return items, err
}
