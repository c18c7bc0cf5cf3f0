package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"Notico/internal/cli/model"
	"Notico/internal/cli/repo"
	"Notico/internal/validation"
)

// FolderService — операции над папками. Удаление папки каскадно отправляет
// в корзину все её записи.
type FolderService struct {
	tx       repo.Transactor
	trigger  SyncTrigger
	clock    *Clock
	validate *validation.Validator
	logger   *zap.SugaredLogger
}

func NewFolderService(tx repo.Transactor, trigger SyncTrigger, clock *Clock, logger *zap.SugaredLogger) *FolderService {
	if trigger == nil {
		trigger = noopTrigger{}
	}
	if clock == nil {
		clock = NewClock(nil)
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &FolderService{tx: tx, trigger: trigger, clock: clock, validate: validation.New(), logger: logger}
}

func (s *FolderService) Create(ctx context.Context, in model.NewFolder) (*model.Folder, error) {
	if err := s.validate.Validate(in); err != nil {
		return nil, err
	}
	now := s.clock.Now()
	f := &model.Folder{
		ClientID:  uuid.NewString(),
		Name:      in.Name,
		Color:     in.Color,
		CreatedAt: now,
		UpdatedAt: now,
	}
	data, err := json.Marshal(f)
	if err != nil {
		return nil, fmt.Errorf("encode folder: %w", err)
	}
	err = s.tx.InTx(ctx, func(ctx context.Context, r repo.Repositories) error {
		if err := r.Folders.Insert(ctx, f); err != nil {
			return err
		}
		return r.Queue.Append(ctx, &model.QueueEntry{
			Action: model.ActionCreate, EntityType: model.EntityFolder, ClientID: f.ClientID, Data: data, Timestamp: now,
		})
	})
	if err != nil {
		return nil, fmt.Errorf("create folder: %w", err)
	}
	s.trigger.TriggerSync()
	return f, nil
}

func (s *FolderService) Update(ctx context.Context, clientID string, patch model.FolderPatch) (*model.Folder, error) {
	if err := s.validate.Validate(patch); err != nil {
		return nil, err
	}
	var updated *model.Folder
	err := s.tx.InTx(ctx, func(ctx context.Context, r repo.Repositories) error {
		f, err := r.Folders.Get(ctx, clientID)
		if err != nil {
			return err
		}
		if f.Deleted {
			return ErrNotFound
		}
		updated = f
		if patch.Empty() {
			return nil
		}
		now := s.clock.Now()
		patch.Apply(f)
		f.UpdatedAt = now
		if err := r.Folders.Upsert(ctx, f); err != nil {
			return err
		}
		fields := patch.Fields()
		fields["updatedAt"] = now
		data, err := json.Marshal(fields)
		if err != nil {
			return err
		}
		return r.Queue.Append(ctx, &model.QueueEntry{
			Action: model.ActionUpdate, EntityType: model.EntityFolder, ClientID: clientID, Data: data, Timestamp: now,
		})
	})
	if err != nil {
		return nil, fmt.Errorf("update folder %s: %w", clientID, err)
	}
	if !patch.Empty() {
		s.trigger.TriggerSync()
	}
	return updated, nil
}

// Delete soft-deletes the folder and every live item in it; each gets its
// own delete entry. Returns the number of cascaded items.
func (s *FolderService) Delete(ctx context.Context, clientID string) (int, error) {
	var cascaded int
	err := s.tx.InTx(ctx, func(ctx context.Context, r repo.Repositories) error {
		f, err := r.Folders.Get(ctx, clientID)
		if err != nil {
			return err
		}
		now := s.clock.Now()
		at := now
		f.Deleted = true
		f.DeletedAt = &at
		f.UpdatedAt = now
		if err := r.Folders.Upsert(ctx, f); err != nil {
			return err
		}
		if err := r.Queue.Append(ctx, &model.QueueEntry{
			Action: model.ActionDelete, EntityType: model.EntityFolder, ClientID: clientID, Timestamp: now,
		}); err != nil {
			return err
		}

		items, err := r.Items.ListInFolder(ctx, clientID)
		if err != nil {
			return err
		}
		for i := range items {
			if err := softDeleteItem(ctx, r, &items[i], now); err != nil {
				return err
			}
		}
		cascaded = len(items)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("delete folder %s: %w", clientID, err)
	}
	s.logger.Debugw("folder deleted", "client_id", clientID, "cascaded_items", cascaded)
	s.trigger.TriggerSync()
	return cascaded, nil
}

// Restore returns the folder from the trash. Items deleted with it stay in
// the trash and are restored one by one.
func (s *FolderService) Restore(ctx context.Context, clientID string) (*model.Folder, error) {
	var restored *model.Folder
	err := s.tx.InTx(ctx, func(ctx context.Context, r repo.Repositories) error {
		f, err := r.Folders.Get(ctx, clientID)
		if err != nil {
			return err
		}
		now := s.clock.Now()
		f.Deleted = false
		f.DeletedAt = nil
		f.UpdatedAt = now
		if err := r.Folders.Upsert(ctx, f); err != nil {
			return err
		}
		data, err := json.Marshal(restoreFields(now))
		if err != nil {
			return err
		}
		restored = f
		return r.Queue.Append(ctx, &model.QueueEntry{
			Action: model.ActionUpdate, EntityType: model.EntityFolder, ClientID: clientID, Data: data, Timestamp: now,
		})
	})
	if err != nil {
		return nil, fmt.Errorf("restore folder %s: %w", clientID, err)
	}
	s.trigger.TriggerSync()
	return restored, nil
}

func (s *FolderService) PermanentlyDelete(ctx context.Context, clientID string) error {
	err := s.tx.InTx(ctx, func(ctx context.Context, r repo.Repositories) error {
		if _, err := r.Folders.Get(ctx, clientID); err != nil {
			return err
		}
		return r.Folders.Delete(ctx, clientID)
	})
	if err != nil {
		return fmt.Errorf("permanently delete folder %s: %w", clientID, err)
	}
	return nil
}

func (s *FolderService) Get(ctx context.Context, clientID string) (*model.Folder, error) {
	var f *model.Folder
	err := s.tx.InTx(ctx, func(ctx context.Context, r repo.Repositories) error {
		var err error
		f, err = r.Folders.Get(ctx, clientID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("get folder %s: %w", clientID, err)
	}
	return f, nil
}

// List returns live folders sorted by name.
func (s *FolderService) List(ctx context.Context) ([]model.Folder, error) {
	var res []model.Folder
	err := s.tx.InTx(ctx, func(ctx context.Context, r repo.Repositories) error {
		var err error
		res, err = r.Folders.List(ctx)
		return err
	})
	return res, err
}

func (s *FolderService) ListDeleted(ctx context.Context) ([]model.Folder, error) {
	var res []model.Folder
	err := s.tx.InTx(ctx, func(ctx context.Context, r repo.Repositories) error {
		var err error
		res, err = r.Folders.ListDeleted(ctx)
		return err
	})
	return res, err
}

func (s *FolderService) PurgeExpired(ctx context.Context) (int64, error) {
	cutoff := s.clock.Now().Add(-TrashRetention)
	var n int64
	err := s.tx.InTx(ctx, func(ctx context.Context, r repo.Repositories) error {
		var err error
		n, err = r.Folders.PurgeDeletedBefore(ctx, cutoff)
		return err
	})
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.logger.Infow("purged expired folders", "count", n)
	}
	return n, nil
}
