package syncer

import (
	"Notico/internal/cli/model"
	"Notico/internal/dto"
)

func itemFromWire(w dto.Item) *model.Item {
	tags := w.Tags
	if tags == nil {
		tags = []string{}
	}
	return &model.Item{
		ClientID:          w.ClientID,
		ServerID:          w.ID,
		Type:              model.ItemType(w.Type),
		Title:             w.Title,
		Content:           w.Content,
		URL:               w.URL,
		ReminderDate:      w.ReminderDate,
		ReminderCompleted: w.ReminderCompleted,
		Tags:              tags,
		Pinned:            w.Pinned,
		Color:             w.Color,
		FolderID:          w.FolderID,
		Deleted:           w.Deleted,
		DeletedAt:         w.DeletedAt,
		CreatedAt:         w.CreatedAt,
		UpdatedAt:         w.UpdatedAt,
	}
}

func folderFromWire(w dto.Folder) *model.Folder {
	return &model.Folder{
		ClientID:  w.ClientID,
		ServerID:  w.ID,
		Name:      w.Name,
		Color:     w.Color,
		Deleted:   w.Deleted,
		DeletedAt: w.DeletedAt,
		CreatedAt: w.CreatedAt,
		UpdatedAt: w.UpdatedAt,
	}
}
