package service

import (
	"Notico/internal/dto"
	"Notico/internal/model"
	"Notico/internal/repo"
	"Notico/internal/validation"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	entityItem   = "item"
	entityFolder = "folder"
)

// SyncService применяет пачки операций клиента и отдаёт изменения сервера.
type SyncService struct {
	items    repo.ItemRepository
	folders  repo.FolderRepository
	logger   *zap.SugaredLogger
	validate *validation.Validator
	now      func() time.Time

	// Синки одного пользователя идут по очереди: apply, syncedAt и выборка
	// изменений не должны перемежаться с чужой записью.
	locks sync.Map // int64 -> *sync.Mutex
}

func NewSyncService(items repo.ItemRepository, folders repo.FolderRepository, logger *zap.SugaredLogger) *SyncService {
	return &SyncService{
		items:    items,
		folders:  folders,
		logger:   logger,
		validate: validation.New(),
		now:      func() time.Time { return time.Now().UTC().Truncate(time.Microsecond) },
	}
}

func (s *SyncService) lock(userID int64) func() {
	mu, _ := s.locks.LoadOrStore(userID, &sync.Mutex{})
	m := mu.(*sync.Mutex)
	m.Lock()
	return m.Unlock
}

// Sync применяет сначала операции над папками, затем над записями.
// Ошибка одной операции попадает в её результат и не прерывает пачку.
func (s *SyncService) Sync(ctx context.Context, userID int64, req dto.SyncRequest) (*dto.SyncResponse, error) {
	unlock := s.lock(userID)
	defer unlock()

	results := make([]dto.OpResult, 0, len(req.FolderOperations)+len(req.Operations))
	for _, op := range req.FolderOperations {
		results = append(results, s.result(userID, entityFolder, op, s.applyFolderOp(ctx, userID, op)))
	}
	for _, op := range req.Operations {
		results = append(results, s.result(userID, entityItem, op, s.applyItemOp(ctx, userID, op)))
	}

	syncedAt := s.now()
	var (
		items   []model.Item
		folders []model.Folder
		err     error
	)
	if req.LastSyncAt != nil {
		items, err = s.items.GetItemsUpdatedSince(ctx, userID, *req.LastSyncAt)
		if err == nil {
			folders, err = s.folders.GetFoldersUpdatedSince(ctx, userID, *req.LastSyncAt)
		}
	} else {
		items, err = s.items.ListAll(ctx, userID)
		if err == nil {
			folders, err = s.folders.ListAll(ctx, userID)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("load changes: %w", err)
	}

	return &dto.SyncResponse{
		Results:       results,
		ServerItems:   itemsToWire(items),
		ServerFolders: foldersToWire(folders),
		SyncedAt:      syncedAt,
	}, nil
}

type opOutcome struct {
	status string
	err    error
}

func (s *SyncService) result(userID int64, entity string, op dto.Operation, o opOutcome) dto.OpResult {
	res := dto.OpResult{ClientID: op.ClientID, EntityType: entity, Action: op.Action, Status: o.status}
	if o.err != nil {
		res.Status = dto.StatusError
		res.Error = o.err.Error()
		s.logger.Warnw("sync operation failed",
			"user_id", userID,
			"entity_type", entity,
			"client_id", op.ClientID,
			"action", op.Action,
			"error", o.err,
		)
	}
	return res
}

func failed(err error) opOutcome { return opOutcome{err: err} }

func done(status string) opOutcome { return opOutcome{status: status} }

func (s *SyncService) applyFolderOp(ctx context.Context, userID int64, op dto.Operation) opOutcome {
	if err := s.validate.Validate(op); err != nil {
		return failed(err)
	}
	now := s.now()

	cur, err := s.folders.GetByClientID(ctx, userID, op.ClientID)
	notFound := errors.Is(err, gorm.ErrRecordNotFound)
	if err != nil && !notFound {
		return failed(err)
	}

	switch op.Action {
	case dto.ActionCreate:
		if !notFound {
			return done(dto.StatusExists)
		}
		var w dto.Folder
		if err := decodeData(op.Data, &w); err != nil {
			return failed(err)
		}
		if err := s.validate.Validate(w); err != nil {
			return failed(err)
		}
		f := &model.Folder{UserID: userID, ClientID: op.ClientID}
		applyFolder(f, w)
		stampCreated(&f.CreatedAt, &f.UpdatedAt, now)
		f.SyncedAt = now
		if err := s.folders.Create(ctx, f); err != nil {
			return failed(err)
		}
		return done(dto.StatusCreated)

	case dto.ActionUpdate:
		if notFound {
			return done(dto.StatusNotFound)
		}
		w := folderToWire(cur)
		if err := decodeData(op.Data, &w); err != nil {
			return failed(err)
		}
		if err := s.validate.Validate(w); err != nil {
			return failed(err)
		}
		applyFolder(cur, w)
		if !hasField(op.Data, "updatedAt") {
			cur.UpdatedAt = now
		}
		cur.SyncedAt = now
		if err := s.folders.Save(ctx, cur); err != nil {
			return failed(err)
		}
		return done(dto.StatusUpdated)

	default: // delete
		if notFound {
			return done(dto.StatusNotFound)
		}
		markDeleted(&cur.Deleted, &cur.DeletedAt, &cur.UpdatedAt, now)
		cur.SyncedAt = now
		if err := s.folders.Save(ctx, cur); err != nil {
			return failed(err)
		}
		n, err := s.items.MarkFolderItemsDeleted(ctx, userID, cur.ClientID, now)
		if err != nil {
			return failed(fmt.Errorf("cascade to items: %w", err))
		}
		if n > 0 {
			s.logger.Debugw("folder delete cascaded", "user_id", userID, "folder", cur.ClientID, "items", n)
		}
		return done(dto.StatusDeleted)
	}
}

func (s *SyncService) applyItemOp(ctx context.Context, userID int64, op dto.Operation) opOutcome {
	if err := s.validate.Validate(op); err != nil {
		return failed(err)
	}
	now := s.now()

	cur, err := s.items.GetByClientID(ctx, userID, op.ClientID)
	notFound := errors.Is(err, gorm.ErrRecordNotFound)
	if err != nil && !notFound {
		return failed(err)
	}

	switch op.Action {
	case dto.ActionCreate:
		if !notFound {
			return done(dto.StatusExists)
		}
		var w dto.Item
		if err := decodeData(op.Data, &w); err != nil {
			return failed(err)
		}
		if err := s.validate.Validate(w); err != nil {
			return failed(err)
		}
		it := &model.Item{UserID: userID, ClientID: op.ClientID}
		applyItem(it, w)
		stampCreated(&it.CreatedAt, &it.UpdatedAt, now)
		it.SyncedAt = now
		if err := s.items.Create(ctx, it); err != nil {
			return failed(err)
		}
		return done(dto.StatusCreated)

	case dto.ActionUpdate:
		if notFound {
			return done(dto.StatusNotFound)
		}
		w := itemToWire(cur)
		if err := decodeData(op.Data, &w); err != nil {
			return failed(err)
		}
		if err := s.validate.Validate(w); err != nil {
			return failed(err)
		}
		applyItem(cur, w)
		if !hasField(op.Data, "updatedAt") {
			cur.UpdatedAt = now
		}
		cur.SyncedAt = now
		if err := s.items.Save(ctx, cur); err != nil {
			return failed(err)
		}
		return done(dto.StatusUpdated)

	default:
		if notFound {
			return done(dto.StatusNotFound)
		}
		markDeleted(&cur.Deleted, &cur.DeletedAt, &cur.UpdatedAt, now)
		cur.SyncedAt = now
		if err := s.items.Save(ctx, cur); err != nil {
			return failed(err)
		}
		return done(dto.StatusDeleted)
	}
}

// ListItems — полный список записей или изменённые начиная с since.
func (s *SyncService) ListItems(ctx context.Context, userID int64, since *time.Time) ([]dto.Item, error) {
	var (
		items []model.Item
		err   error
	)
	if since != nil {
		items, err = s.items.GetItemsUpdatedSince(ctx, userID, *since)
	} else {
		items, err = s.items.ListAll(ctx, userID)
	}
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	return itemsToWire(items), nil
}

func (s *SyncService) ListFolders(ctx context.Context, userID int64) ([]dto.Folder, error) {
	folders, err := s.folders.ListAll(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list folders: %w", err)
	}
	return foldersToWire(folders), nil
}

// decodeData накладывает JSON операции на dst; поля, которых нет в data, не трогаются.
func decodeData(data json.RawMessage, dst any) error {
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("decode data: %w", err)
	}
	return nil
}

func hasField(data json.RawMessage, name string) bool {
	var m map[string]json.RawMessage
	if err := json.Unmarshal(data, &m); err != nil {
		return false
	}
	_, ok := m[name]
	return ok
}

func stampCreated(createdAt, updatedAt *time.Time, now time.Time) {
	if createdAt.IsZero() {
		*createdAt = now
	}
	if updatedAt.IsZero() {
		*updatedAt = *createdAt
	}
}

func markDeleted(deleted *bool, deletedAt **time.Time, updatedAt *time.Time, now time.Time) {
	*deleted = true
	if *deletedAt == nil {
		at := now
		*deletedAt = &at
	}
	*updatedAt = now
}
