package model

import (
	"encoding/json"
	"time"
)

// Action — тип операции в очереди синхронизации.
type Action string

const (
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// EntityType — к какой коллекции относится операция.
type EntityType string

const (
	EntityItem   EntityType = "item"
	EntityFolder EntityType = "folder"
)

// QueueEntry is one pending local mutation. Data holds the full entity for
// create, the changed fields for update and nothing for delete.
// ID is assigned by the store and breaks timestamp ties.
type QueueEntry struct {
	ID         int64
	Action     Action
	EntityType EntityType
	ClientID   string
	Data       json.RawMessage
	Timestamp  time.Time
}

// Tier — тарифный план пользователя. Only TierPro may sync.
type Tier string

const (
	TierFree Tier = "free"
	TierPro  Tier = "pro"
)
