// Package dto описывает JSON-контракт между клиентом и сервером синхронизации.
package dto

import (
	"encoding/json"
	"time"
)

const (
	ActionCreate = "create"
	ActionUpdate = "update"
	ActionDelete = "delete"
)

// Per-operation result statuses.
const (
	StatusCreated  = "created"
	StatusUpdated  = "updated"
	StatusDeleted  = "deleted"
	StatusExists   = "exists"
	StatusNotFound = "not_found"
	StatusError    = "error"
)

// Operation — одна операция клиента. Data carries the full entity for create,
// the changed fields for update and is absent for delete.
type Operation struct {
	Action   string          `json:"action" validate:"required,oneof=create update delete"`
	ClientID string          `json:"clientId" validate:"required,max=64"`
	Data     json.RawMessage `json:"data,omitempty"`
}

// SyncRequest — тело POST /api/items/sync.
type SyncRequest struct {
	Operations       []Operation `json:"operations"`
	FolderOperations []Operation `json:"folderOperations"`
	LastSyncAt       *time.Time  `json:"lastSyncAt,omitempty"`
}

// OpResult reports what the server did with one operation.
type OpResult struct {
	ClientID   string `json:"clientId"`
	EntityType string `json:"entityType,omitempty"`
	Action     string `json:"action"`
	Status     string `json:"status"`
	Error      string `json:"error,omitempty"`
}

// SyncResponse — ответ сервера: результаты операций и всё, что изменилось
// с lastSyncAt.
type SyncResponse struct {
	Results       []OpResult `json:"results"`
	ServerItems   []Item     `json:"serverItems"`
	ServerFolders []Folder   `json:"serverFolders"`
	SyncedAt      time.Time  `json:"syncedAt"`
}

// Item is an item as the server sees it; ID is the server-assigned id.
type Item struct {
	ID                string     `json:"id,omitempty"`
	ClientID          string     `json:"clientId"`
	Type              string     `json:"type" validate:"required,oneof=note url reminder"`
	Title             string     `json:"title"`
	Content           string     `json:"content"`
	URL               string     `json:"url,omitempty"`
	ReminderDate      *time.Time `json:"reminderDate,omitempty"`
	ReminderCompleted bool       `json:"reminderCompleted"`
	Tags              []string   `json:"tags"`
	Pinned            bool       `json:"pinned"`
	Color             string     `json:"color,omitempty"`
	FolderID          string     `json:"folderId,omitempty"`
	Deleted           bool       `json:"deleted"`
	DeletedAt         *time.Time `json:"deletedAt,omitempty"`
	CreatedAt         time.Time  `json:"createdAt"`
	UpdatedAt         time.Time  `json:"updatedAt"`
}

type Folder struct {
	ID        string     `json:"id,omitempty"`
	ClientID  string     `json:"clientId"`
	Name      string     `json:"name" validate:"required"`
	Color     string     `json:"color,omitempty"`
	Deleted   bool       `json:"deleted"`
	DeletedAt *time.Time `json:"deletedAt,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// Credentials — тело register/login.
type Credentials struct {
	Login    string `json:"login" validate:"required,max=64"`
	Password string `json:"password" validate:"required"`
}

// UserInfo — ответ GET /api/user/me.
type UserInfo struct {
	ID       int64      `json:"id"`
	Login    string     `json:"login"`
	Tier     string     `json:"tier"`
	ProUntil *time.Time `json:"proUntil,omitempty"`
}
