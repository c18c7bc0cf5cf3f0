package model

import "time"

// Item — серверная копия заметки, закладки или напоминания.
// ClientID is unique per user; ID is assigned by the server.
type Item struct {
	ID     string `gorm:"primaryKey;type:uuid"`
	UserID int64  `gorm:"not null;uniqueIndex:idx_items_user_client,priority:1"`

	// Связи
	User *User `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`

	ClientID string `gorm:"not null;uniqueIndex:idx_items_user_client,priority:2"`

	Type              string `gorm:"not null"`
	Title             string
	Content           string
	URL               string
	ReminderDate      *time.Time
	ReminderCompleted bool     `gorm:"not null;default:false"`
	Tags              []string `gorm:"serializer:json"`
	Pinned            bool     `gorm:"not null;default:false"`
	Color             string
	FolderID          string `gorm:"index"` // clientId папки

	Deleted   bool `gorm:"not null;default:false"`
	DeletedAt *time.Time

	// Времена клиента, сервер их не трогает.
	CreatedAt time.Time `gorm:"autoCreateTime:false"`
	UpdatedAt time.Time `gorm:"autoUpdateTime:false"`

	// SyncedAt — момент последней записи на сервере, по нему отдаются изменения.
	SyncedAt time.Time `gorm:"not null;index"`
}
