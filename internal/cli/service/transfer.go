package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"Notico/internal/cli/model"
	"Notico/internal/cli/repo"
	"Notico/internal/validation"
)

// ExportVersion — текущая версия формата файла экспорта.
const ExportVersion = 1

// ErrInvalidFormat is returned by Import before anything is written.
var ErrInvalidFormat = errors.New("invalid export file format")

// ExportFile — содержимое файла экспорта.
type ExportFile struct {
	Version    int            `json:"version"`
	ExportedAt time.Time      `json:"exportedAt"`
	Items      []model.Item   `json:"items"`
	Folders    []model.Folder `json:"folders"`
}

// ImportResult — сколько сущностей создано при импорте.
type ImportResult struct {
	Items   int `json:"items"`
	Folders int `json:"folders"`
}

// Transfer выгружает локальные данные в JSON и загружает их обратно.
type Transfer struct {
	tx       repo.Transactor
	items    *ItemService
	folders  *FolderService
	clock    *Clock
	validate *validation.Validator
}

func NewTransfer(tx repo.Transactor, items *ItemService, folders *FolderService, clock *Clock) *Transfer {
	if clock == nil {
		clock = NewClock(nil)
	}
	return &Transfer{tx: tx, items: items, folders: folders, clock: clock, validate: validation.New()}
}

// Export writes every local item and folder, trash included.
func (t *Transfer) Export(ctx context.Context, w io.Writer) error {
	file := ExportFile{Version: ExportVersion, ExportedAt: t.clock.Now()}
	err := t.tx.InTx(ctx, func(ctx context.Context, r repo.Repositories) error {
		live, err := r.Items.List(ctx, model.ItemFilter{})
		if err != nil {
			return err
		}
		trash, err := r.Items.ListDeleted(ctx)
		if err != nil {
			return err
		}
		folders, err := r.Folders.List(ctx)
		if err != nil {
			return err
		}
		deletedFolders, err := r.Folders.ListDeleted(ctx)
		if err != nil {
			return err
		}
		file.Items = append(live, trash...)
		file.Folders = append(folders, deletedFolders...)
		return nil
	})
	if err != nil {
		return fmt.Errorf("export: %w", err)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(file)
}

type importFile struct {
	Version int            `json:"version"`
	Items   *[]model.Item  `json:"items"`
	Folders []model.Folder `json:"folders"`
}

// Import creates fresh copies of the non-deleted folders and items in r.
// Entities get new clientIds; item folder references are remapped to the new
// folders. The whole file is validated before the first write.
func (t *Transfer) Import(ctx context.Context, r io.Reader) (*ImportResult, error) {
	var in importFile
	if err := json.NewDecoder(r).Decode(&in); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	if in.Version != ExportVersion || in.Items == nil {
		return nil, ErrInvalidFormat
	}

	var folders []model.NewFolder
	var folderIDs []string
	for _, f := range in.Folders {
		if f.Deleted {
			continue
		}
		nf := model.NewFolder{Name: f.Name, Color: f.Color}
		if err := t.validate.Validate(nf); err != nil {
			return nil, fmt.Errorf("%w: folder %q: %v", ErrInvalidFormat, f.ClientID, err)
		}
		folders = append(folders, nf)
		folderIDs = append(folderIDs, f.ClientID)
	}

	var items []model.NewItem
	var itemFolders []string
	for _, it := range *in.Items {
		if it.Deleted {
			continue
		}
		ni := model.NewItem{
			Type:         it.Type,
			Title:        it.Title,
			Content:      it.Content,
			URL:          it.URL,
			ReminderDate: it.ReminderDate,
			Completed:    it.ReminderCompleted,
			Tags:         it.Tags,
			Pinned:       it.Pinned,
			Color:        it.Color,
		}
		if err := t.validate.Validate(ni); err != nil {
			return nil, fmt.Errorf("%w: item %q: %v", ErrInvalidFormat, it.ClientID, err)
		}
		items = append(items, ni)
		itemFolders = append(itemFolders, it.FolderID)
	}

	res := &ImportResult{}
	remap := make(map[string]string, len(folders))
	for i, nf := range folders {
		f, err := t.folders.Create(ctx, nf)
		if err != nil {
			return res, err
		}
		remap[folderIDs[i]] = f.ClientID
		res.Folders++
	}
	for i, ni := range items {
		ni.FolderID = remap[itemFolders[i]]
		if _, err := t.items.Create(ctx, ni); err != nil {
			return res, err
		}
		res.Items++
	}
	return res, nil
}
