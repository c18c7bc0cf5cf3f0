package model

import (
	"strings"
	"time"
)

// ItemType — вид записи: заметка, ссылка или напоминание.
type ItemType string

const (
	ItemTypeNote     ItemType = "note"
	ItemTypeURL      ItemType = "url"
	ItemTypeReminder ItemType = "reminder"
)

// Valid reports whether t is one of the known item types.
func (t ItemType) Valid() bool {
	switch t {
	case ItemTypeNote, ItemTypeURL, ItemTypeReminder:
		return true
	}
	return false
}

// Item — локальная запись. ClientID is the identity across devices,
// ServerID is informational only.
type Item struct {
	ClientID          string     `json:"clientId"`
	ServerID          string     `json:"serverId,omitempty"`
	Type              ItemType   `json:"type"`
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

// NewItem — входные данные для создания записи.
type NewItem struct {
	Type         ItemType   `json:"type" validate:"required,oneof=note url reminder"`
	Title        string     `json:"title" validate:"max=500"`
	Content      string     `json:"content"`
	URL          string     `json:"url" validate:"omitempty,url"`
	ReminderDate *time.Time `json:"reminderDate"`
	Completed    bool       `json:"reminderCompleted"`
	Tags         []string   `json:"tags" validate:"dive,required,max=64"`
	Pinned       bool       `json:"pinned"`
	Color        string     `json:"color" validate:"omitempty,max=32"`
	FolderID     string     `json:"folderId" validate:"omitempty,uuid"`
}

// ItemPatch — частичное изменение записи. nil fields are left untouched.
// A non-nil ReminderDate holding the zero time clears the reminder, an empty
// FolderID moves the item out of its folder and an empty URL clears the link.
type ItemPatch struct {
	Type              *ItemType  `json:"type,omitempty" validate:"omitempty,oneof=note url reminder"`
	Title             *string    `json:"title,omitempty" validate:"omitempty,max=500"`
	Content           *string    `json:"content,omitempty"`
	URL               *string    `json:"url,omitempty" validate:"omitempty,url|eq="`
	ReminderDate      *time.Time `json:"reminderDate,omitempty"`
	ReminderCompleted *bool      `json:"reminderCompleted,omitempty"`
	Tags              []string   `json:"tags,omitempty" validate:"omitempty,dive,required,max=64"`
	Pinned            *bool      `json:"pinned,omitempty"`
	Color             *string    `json:"color,omitempty" validate:"omitempty,max=32"`
	FolderID          *string    `json:"folderId,omitempty" validate:"omitempty,uuid|eq="`
}

// Empty reports whether the patch changes nothing.
func (p ItemPatch) Empty() bool {
	return p.Type == nil && p.Title == nil && p.Content == nil && p.URL == nil &&
		p.ReminderDate == nil && p.ReminderCompleted == nil && p.Tags == nil &&
		p.Pinned == nil && p.Color == nil && p.FolderID == nil
}

// Apply merges the patch into it field by field.
func (p ItemPatch) Apply(it *Item) {
	if p.Type != nil {
		it.Type = *p.Type
	}
	if p.Title != nil {
		it.Title = *p.Title
	}
	if p.Content != nil {
		it.Content = *p.Content
	}
	if p.URL != nil {
		it.URL = *p.URL
	}
	if p.ReminderDate != nil {
		if p.ReminderDate.IsZero() {
			it.ReminderDate = nil
		} else {
			t := p.ReminderDate.UTC()
			it.ReminderDate = &t
		}
	}
	if p.ReminderCompleted != nil {
		it.ReminderCompleted = *p.ReminderCompleted
	}
	if p.Tags != nil {
		it.Tags = append([]string{}, p.Tags...)
	}
	if p.Pinned != nil {
		it.Pinned = *p.Pinned
	}
	if p.Color != nil {
		it.Color = *p.Color
	}
	if p.FolderID != nil {
		it.FolderID = *p.FolderID
	}
}

// Fields returns the wire form of the patch: only the fields it sets, keyed
// by their JSON names. A cleared reminder is sent as null.
func (p ItemPatch) Fields() map[string]any {
	m := map[string]any{}
	if p.Type != nil {
		m["type"] = *p.Type
	}
	if p.Title != nil {
		m["title"] = *p.Title
	}
	if p.Content != nil {
		m["content"] = *p.Content
	}
	if p.URL != nil {
		m["url"] = *p.URL
	}
	if p.ReminderDate != nil {
		if p.ReminderDate.IsZero() {
			m["reminderDate"] = nil
		} else {
			m["reminderDate"] = p.ReminderDate.UTC()
		}
	}
	if p.ReminderCompleted != nil {
		m["reminderCompleted"] = *p.ReminderCompleted
	}
	if p.Tags != nil {
		m["tags"] = p.Tags
	}
	if p.Pinned != nil {
		m["pinned"] = *p.Pinned
	}
	if p.Color != nil {
		m["color"] = *p.Color
	}
	if p.FolderID != nil {
		m["folderId"] = *p.FolderID
	}
	return m
}

// ItemFilter задаёт выборку для списка записей.
type ItemFilter struct {
	Type     ItemType
	FolderID string
	// Query is split on whitespace; every term must occur (case-insensitive)
	// in the title, content, url or one of the tags.
	Query string
}

// Match reports whether it passes the filter. Deleted items never match.
func (f ItemFilter) Match(it Item) bool {
	if it.Deleted {
		return false
	}
	if f.Type != "" && it.Type != f.Type {
		return false
	}
	if f.FolderID != "" && it.FolderID != f.FolderID {
		return false
	}
	terms := strings.Fields(strings.ToLower(f.Query))
	if len(terms) == 0 {
		return true
	}
	hay := strings.ToLower(it.Title + "\n" + it.Content + "\n" + it.URL + "\n" + strings.Join(it.Tags, "\n"))
	for _, term := range terms {
		if !strings.Contains(hay, term) {
			return false
		}
	}
	return true
}
