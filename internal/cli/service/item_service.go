package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"Notico/internal/cli/model"
	"Notico/internal/cli/repo"
	"Notico/internal/validation"
)

// ItemService — единственный путь изменения записей. Every mutation writes
// the entity and its queue entry in one transaction, then pokes the trigger.
type ItemService struct {
	tx       repo.Transactor
	trigger  SyncTrigger
	clock    *Clock
	validate *validation.Validator
	logger   *zap.SugaredLogger
}

// NewItemService конструктор сервиса записей. trigger may be nil.
func NewItemService(tx repo.Transactor, trigger SyncTrigger, clock *Clock, logger *zap.SugaredLogger) *ItemService {
	if trigger == nil {
		trigger = noopTrigger{}
	}
	if clock == nil {
		clock = NewClock(nil)
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &ItemService{tx: tx, trigger: trigger, clock: clock, validate: validation.New(), logger: logger}
}

// Create сохраняет новую запись и ставит create в очередь.
func (s *ItemService) Create(ctx context.Context, in model.NewItem) (*model.Item, error) {
	if err := s.validate.Validate(in); err != nil {
		return nil, err
	}
	now := s.clock.Now()
	it := &model.Item{
		ClientID:          uuid.NewString(),
		Type:              in.Type,
		Title:             in.Title,
		Content:           in.Content,
		URL:               in.URL,
		ReminderCompleted: in.Completed,
		Tags:              append([]string{}, in.Tags...),
		Pinned:            in.Pinned,
		Color:             in.Color,
		FolderID:          in.FolderID,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if in.ReminderDate != nil && !in.ReminderDate.IsZero() {
		t := in.ReminderDate.UTC()
		it.ReminderDate = &t
	}
	data, err := json.Marshal(it)
	if err != nil {
		return nil, fmt.Errorf("encode item: %w", err)
	}

	err = s.tx.InTx(ctx, func(ctx context.Context, r repo.Repositories) error {
		if err := r.Items.Insert(ctx, it); err != nil {
			return err
		}
		return r.Queue.Append(ctx, &model.QueueEntry{
			Action: model.ActionCreate, EntityType: model.EntityItem, ClientID: it.ClientID, Data: data, Timestamp: now,
		})
	})
	if err != nil {
		return nil, fmt.Errorf("create item: %w", err)
	}
	s.logger.Debugw("item created", "client_id", it.ClientID, "type", it.Type)
	s.trigger.TriggerSync()
	return it, nil
}

// Update применяет patch и ставит в очередь только изменённые поля + updatedAt.
func (s *ItemService) Update(ctx context.Context, clientID string, patch model.ItemPatch) (*model.Item, error) {
	if err := s.validate.Validate(patch); err != nil {
		return nil, err
	}
	var updated *model.Item
	err := s.tx.InTx(ctx, func(ctx context.Context, r repo.Repositories) error {
		it, err := r.Items.Get(ctx, clientID)
		if err != nil {
			return err
		}
		// запись в корзине не редактируется, сначала Restore
		if it.Deleted {
			return ErrNotFound
		}
		if patch.Empty() {
			updated = it
			return nil
		}
		now := s.clock.Now()
		patch.Apply(it)
		it.UpdatedAt = now
		if err := r.Items.Upsert(ctx, it); err != nil {
			return err
		}
		fields := patch.Fields()
		fields["updatedAt"] = now
		data, err := json.Marshal(fields)
		if err != nil {
			return fmt.Errorf("encode patch: %w", err)
		}
		updated = it
		return r.Queue.Append(ctx, &model.QueueEntry{
			Action: model.ActionUpdate, EntityType: model.EntityItem, ClientID: clientID, Data: data, Timestamp: now,
		})
	})
	if err != nil {
		return nil, fmt.Errorf("update item %s: %w", clientID, err)
	}
	if !patch.Empty() {
		s.trigger.TriggerSync()
	}
	return updated, nil
}

// Delete помещает запись в корзину.
func (s *ItemService) Delete(ctx context.Context, clientID string) error {
	err := s.tx.InTx(ctx, func(ctx context.Context, r repo.Repositories) error {
		it, err := r.Items.Get(ctx, clientID)
		if err != nil {
			return err
		}
		return softDeleteItem(ctx, r, it, s.clock.Now())
	})
	if err != nil {
		return fmt.Errorf("delete item %s: %w", clientID, err)
	}
	s.trigger.TriggerSync()
	return nil
}

// softDeleteItem marks it deleted and enqueues a delete without data.
func softDeleteItem(ctx context.Context, r repo.Repositories, it *model.Item, now time.Time) error {
	at := now
	it.Deleted = true
	it.DeletedAt = &at
	it.UpdatedAt = now
	if err := r.Items.Upsert(ctx, it); err != nil {
		return err
	}
	return r.Queue.Append(ctx, &model.QueueEntry{
		Action: model.ActionDelete, EntityType: model.EntityItem, ClientID: it.ClientID, Timestamp: now,
	})
}

// Restore достаёт запись из корзины.
func (s *ItemService) Restore(ctx context.Context, clientID string) (*model.Item, error) {
	var restored *model.Item
	err := s.tx.InTx(ctx, func(ctx context.Context, r repo.Repositories) error {
		it, err := r.Items.Get(ctx, clientID)
		if err != nil {
			return err
		}
		now := s.clock.Now()
		it.Deleted = false
		it.DeletedAt = nil
		it.UpdatedAt = now
		if err := r.Items.Upsert(ctx, it); err != nil {
			return err
		}
		data, err := json.Marshal(restoreFields(now))
		if err != nil {
			return err
		}
		restored = it
		return r.Queue.Append(ctx, &model.QueueEntry{
			Action: model.ActionUpdate, EntityType: model.EntityItem, ClientID: clientID, Data: data, Timestamp: now,
		})
	})
	if err != nil {
		return nil, fmt.Errorf("restore item %s: %w", clientID, err)
	}
	s.trigger.TriggerSync()
	return restored, nil
}

// PermanentlyDelete удаляет строку без записи в очередь: the server copy, if
// any, stays soft-deleted.
func (s *ItemService) PermanentlyDelete(ctx context.Context, clientID string) error {
	err := s.tx.InTx(ctx, func(ctx context.Context, r repo.Repositories) error {
		if _, err := r.Items.Get(ctx, clientID); err != nil {
			return err
		}
		return r.Items.Delete(ctx, clientID)
	})
	if err != nil {
		return fmt.Errorf("permanently delete item %s: %w", clientID, err)
	}
	return nil
}

func (s *ItemService) Get(ctx context.Context, clientID string) (*model.Item, error) {
	var it *model.Item
	err := s.tx.InTx(ctx, func(ctx context.Context, r repo.Repositories) error {
		var err error
		it, err = r.Items.Get(ctx, clientID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("get item %s: %w", clientID, err)
	}
	return it, nil
}

// List returns live items matching filter, pinned first then newest.
func (s *ItemService) List(ctx context.Context, filter model.ItemFilter) ([]model.Item, error) {
	var items []model.Item
	err := s.tx.InTx(ctx, func(ctx context.Context, r repo.Repositories) error {
		var err error
		items, err = r.Items.List(ctx, filter)
		return err
	})
	return items, err
}

// ListDeleted returns the trash, most recently deleted first.
func (s *ItemService) ListDeleted(ctx context.Context) ([]model.Item, error) {
	var items []model.Item
	err := s.tx.InTx(ctx, func(ctx context.Context, r repo.Repositories) error {
		var err error
		items, err = r.Items.ListDeleted(ctx)
		return err
	})
	return items, err
}

// PurgeExpired окончательно удаляет записи, пролежавшие в корзине дольше TrashRetention.
func (s *ItemService) PurgeExpired(ctx context.Context) (int64, error) {
	cutoff := s.clock.Now().Add(-TrashRetention)
	var n int64
	err := s.tx.InTx(ctx, func(ctx context.Context, r repo.Repositories) error {
		var err error
		n, err = r.Items.PurgeDeletedBefore(ctx, cutoff)
		return err
	})
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.logger.Infow("purged expired items", "count", n)
	}
	return n, nil
}

func restoreFields(now time.Time) map[string]any {
	return map[string]any{"deleted": false, "deletedAt": nil, "updatedAt": now}
}
