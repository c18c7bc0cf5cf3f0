package model

import "time"

// Folder — локальная папка для группировки записей.
type Folder struct {
	ClientID  string     `json:"clientId"`
	ServerID  string     `json:"serverId,omitempty"`
	Name      string     `json:"name"`
	Color     string     `json:"color,omitempty"`
	Deleted   bool       `json:"deleted"`
	DeletedAt *time.Time `json:"deletedAt,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

type NewFolder struct {
	Name  string `json:"name" validate:"required,max=200"`
	Color string `json:"color" validate:"omitempty,max=32"`
}

type FolderPatch struct {
	Name  *string `json:"name,omitempty" validate:"omitempty,min=1,max=200"`
	Color *string `json:"color,omitempty" validate:"omitempty,max=32"`
}

func (p FolderPatch) Empty() bool { return p.Name == nil && p.Color == nil }

func (p FolderPatch) Apply(f *Folder) {
	if p.Name != nil {
		f.Name = *p.Name
	}
	if p.Color != nil {
		f.Color = *p.Color
	}
}

func (p FolderPatch) Fields() map[string]any {
	m := map[string]any{}
	if p.Name != nil {
		m["name"] = *p.Name
	}
	if p.Color != nil {
		m["color"] = *p.Color
	}
	return m
}
