package service

import (
	"Notico/internal/dto"
	"Notico/internal/model"
)

func itemToWire(m *model.Item) dto.Item {
	tags := m.Tags
	if tags == nil {
		tags = []string{}
	}
	return dto.Item{
		ID:                m.ID,
		ClientID:          m.ClientID,
		Type:              m.Type,
		Title:             m.Title,
		Content:           m.Content,
		URL:               m.URL,
		ReminderDate:      m.ReminderDate,
		ReminderCompleted: m.ReminderCompleted,
		Tags:              tags,
		Pinned:            m.Pinned,
		Color:             m.Color,
		FolderID:          m.FolderID,
		Deleted:           m.Deleted,
		DeletedAt:         m.DeletedAt,
		CreatedAt:         m.CreatedAt,
		UpdatedAt:         m.UpdatedAt,
	}
}

// applyItem переносит поля с провода в модель. ID, ClientID и UserID не меняются.
func applyItem(m *model.Item, w dto.Item) {
	m.Type = w.Type
	m.Title = w.Title
	m.Content = w.Content
	m.URL = w.URL
	m.ReminderDate = w.ReminderDate
	m.ReminderCompleted = w.ReminderCompleted
	m.Tags = w.Tags
	if m.Tags == nil {
		m.Tags = []string{}
	}
	m.Pinned = w.Pinned
	m.Color = w.Color
	m.FolderID = w.FolderID
	m.Deleted = w.Deleted
	m.DeletedAt = w.DeletedAt
	m.CreatedAt = w.CreatedAt
	m.UpdatedAt = w.UpdatedAt
}

func folderToWire(m *model.Folder) dto.Folder {
	return dto.Folder{
		ID:        m.ID,
		ClientID:  m.ClientID,
		Name:      m.Name,
		Color:     m.Color,
		Deleted:   m.Deleted,
		DeletedAt: m.DeletedAt,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

func applyFolder(m *model.Folder, w dto.Folder) {
	m.Name = w.Name
	m.Color = w.Color
	m.Deleted = w.Deleted
	m.DeletedAt = w.DeletedAt
	m.CreatedAt = w.CreatedAt
	m.UpdatedAt = w.UpdatedAt
}

func itemsToWire(items []model.Item) []dto.Item {
	out := make([]dto.Item, 0, len(items))
	for i := range items {
		out = append(out, itemToWire(&items[i]))
	}
	return out
}

func foldersToWire(folders []model.Folder) []dto.Folder {
	out := make([]dto.Folder, 0, len(folders))
	for i := range folders {
		out = append(out, folderToWire(&folders[i]))
	}
	return out
}
