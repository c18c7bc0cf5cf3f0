package model

import "time"

type Folder struct {
	ID     string `gorm:"primaryKey;type:uuid"`
	UserID int64  `gorm:"not null;uniqueIndex:idx_folders_user_client,priority:1"`

	User *User `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`

	ClientID string `gorm:"not null;uniqueIndex:idx_folders_user_client,priority:2"`
	Name     string `gorm:"not null"`
	Color    string

	Deleted   bool `gorm:"not null;default:false"`
	DeletedAt *time.Time

	CreatedAt time.Time `gorm:"autoCreateTime:false"`
	UpdatedAt time.Time `gorm:"autoUpdateTime:false"`
	SyncedAt  time.Time `gorm:"not null;index"`
}
