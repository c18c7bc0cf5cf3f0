// Package syncer reconciles the local store with the remote sync endpoint:
// the Engine runs sync rounds, the Scheduler decides when to run them.
package syncer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"Notico/internal/cli/model"
	"Notico/internal/cli/repo"
	"Notico/internal/dto"
)

// Reasons a round was skipped without touching the network.
var (
	ErrNotEntitled = errors.New("sync is not available on this plan")
	ErrInFlight    = errors.New("sync already in progress")
	ErrOffline     = errors.New("device is offline")
)

// IsSkip reports whether err only means the round did not run.
func IsSkip(err error) bool {
	return errors.Is(err, ErrNotEntitled) || errors.Is(err, ErrInFlight) || errors.Is(err, ErrOffline)
}

// Remote — серверная сторона синхронизации.
type Remote interface {
	Sync(ctx context.Context, req dto.SyncRequest) (*dto.SyncResponse, error)
	ListItems(ctx context.Context) ([]dto.Item, error)
	ListFolders(ctx context.Context) ([]dto.Folder, error)
}

// Options настраивают Engine.
type Options struct {
	// RequestTimeout bounds every remote call; zero means DefaultRequestTimeout.
	RequestTimeout time.Duration
	// KeepFailedOps keeps queue entries of entities the server reported as
	// "error" so they are retried; by default the whole batch is cleared.
	KeepFailedOps bool
	Logger        *zap.SugaredLogger
	// Now is used for the initial sync watermark; nil means time.Now.
	Now func() time.Time
}

const DefaultRequestTimeout = 30 * time.Second

// Report описывает результат успешного раунда.
type Report struct {
	Pushed        int
	Failed        int
	Results       []dto.OpResult
	ItemsMerged   int
	FoldersMerged int
	Cleared       int
	SyncedAt      time.Time
}

// Engine выполняет раунды синхронизации. At most one round (regular or
// initial) runs at a time per Engine.
type Engine struct {
	tx     repo.Transactor
	remote Remote
	opts   Options
	logger *zap.SugaredLogger

	tier     atomic.Value // model.Tier
	online   atomic.Bool
	inFlight atomic.Bool

	mu         sync.Mutex
	nextSubID  int
	onComplete map[int]func(Report)
	onError    map[int]func(error)
}

func NewEngine(tx repo.Transactor, remote Remote, opts Options) *Engine {
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = DefaultRequestTimeout
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop().Sugar()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	e := &Engine{
		tx:         tx,
		remote:     remote,
		opts:       opts,
		logger:     opts.Logger,
		onComplete: map[int]func(Report){},
		onError:    map[int]func(error){},
	}
	e.tier.Store(model.TierFree)
	e.online.Store(true)
	return e
}

// SetTier updates the plan; it is re-read before every round.
func (e *Engine) SetTier(t model.Tier) { e.tier.Store(t) }

func (e *Engine) Tier() model.Tier { return e.tier.Load().(model.Tier) }

// Entitled reports whether the current plan allows sync.
func (e *Engine) Entitled() bool { return e.Tier() == model.TierPro }

func (e *Engine) SetOnline(v bool) { e.online.Store(v) }

func (e *Engine) Online() bool { return e.online.Load() }

func (e *Engine) InFlight() bool { return e.inFlight.Load() }

// OnComplete registers fn for every successful round. The returned function
// unsubscribes it.
func (e *Engine) OnComplete(fn func(Report)) func() {
	e.mu.Lock()
	defer e.mu.Unlock()
	id := e.nextSubID
	e.nextSubID++
	e.onComplete[id] = fn
	return func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		delete(e.onComplete, id)
	}
}

// OnError registers fn for every failed round.
func (e *Engine) OnError(fn func(error)) func() {
	e.mu.Lock()
	defer e.mu.Unlock()
	id := e.nextSubID
	e.nextSubID++
	e.onError[id] = fn
	return func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		delete(e.onError, id)
	}
}

func (e *Engine) emitComplete(r Report) {
	e.mu.Lock()
	subs := make([]func(Report), 0, len(e.onComplete))
	for _, fn := range e.onComplete {
		subs = append(subs, fn)
	}
	e.mu.Unlock()
	for _, fn := range subs {
		fn(r)
	}
}

func (e *Engine) emitError(err error) {
	e.mu.Lock()
	subs := make([]func(error), 0, len(e.onError))
	for _, fn := range e.onError {
		subs = append(subs, fn)
	}
	e.mu.Unlock()
	for _, fn := range subs {
		fn(err)
	}
}

// acquire claims the in-flight flag; callers must release it.
func (e *Engine) acquire() error {
	if !e.Entitled() {
		return ErrNotEntitled
	}
	if !e.Online() {
		return ErrOffline
	}
	if !e.inFlight.CompareAndSwap(false, true) {
		return ErrInFlight
	}
	return nil
}

// PerformSync runs one round and reports whether it succeeded.
func (e *Engine) PerformSync(ctx context.Context) bool {
	_, err := e.SyncNow(ctx)
	return err == nil
}

// SyncNow runs one round: push the coalesced queue, merge what the server
// returns, clear the pushed entries and advance last_sync_at. Skips return
// ErrNotEntitled, ErrOffline or ErrInFlight. On failure the queue and local
// data are left as they were and error subscribers are notified.
func (e *Engine) SyncNow(ctx context.Context) (*Report, error) {
	if err := e.acquire(); err != nil {
		return nil, err
	}
	defer e.inFlight.Store(false)

	rep, err := e.round(ctx)
	if err != nil {
		e.logger.Warnw("sync failed", "error", err)
		e.emitError(err)
		return nil, err
	}
	e.logger.Infow("sync completed",
		"pushed", rep.Pushed,
		"failed", rep.Failed,
		"items_merged", rep.ItemsMerged,
		"folders_merged", rep.FoldersMerged,
	)
	e.emitComplete(*rep)
	return rep, nil
}

func (e *Engine) round(ctx context.Context) (*Report, error) {
	var (
		entries  []model.QueueEntry
		lastSync *time.Time
	)
	err := e.tx.InTx(ctx, func(ctx context.Context, r repo.Repositories) error {
		var err error
		if entries, err = r.Queue.List(ctx); err != nil {
			return err
		}
		lastSync, err = loadLastSync(ctx, r.Meta)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("read queue: %w", err)
	}

	batch := Coalesce(entries)
	if len(batch.Malformed) > 0 {
		e.logger.Warnw("queue entries with unreadable data", "ids", batch.Malformed)
	}

	req := dto.SyncRequest{
		Operations:       batch.Items,
		FolderOperations: batch.Folders,
		LastSyncAt:       lastSync,
	}
	if req.Operations == nil {
		req.Operations = []dto.Operation{}
	}
	if req.FolderOperations == nil {
		req.FolderOperations = []dto.Operation{}
	}

	rctx, cancel := context.WithTimeout(ctx, e.opts.RequestTimeout)
	resp, err := e.remote.Sync(rctx, req)
	cancel()
	if err != nil {
		return nil, fmt.Errorf("sync request: %w", err)
	}

	rep := &Report{Pushed: batch.Len(), Results: resp.Results, SyncedAt: resp.SyncedAt}
	toClear := e.idsToClear(batch, resp.Results, rep)

	err = e.tx.InTx(ctx, func(ctx context.Context, r repo.Repositories) error {
		for _, f := range resp.ServerFolders {
			if err := r.Folders.Upsert(ctx, folderFromWire(f)); err != nil {
				return err
			}
		}
		for _, it := range resp.ServerItems {
			if err := r.Items.Upsert(ctx, itemFromWire(it)); err != nil {
				return err
			}
		}
		if err := r.Queue.DeleteIDs(ctx, toClear); err != nil {
			return err
		}
		return storeLastSync(ctx, r.Meta, resp.SyncedAt)
	})
	if err != nil {
		return nil, fmt.Errorf("apply server changes: %w", err)
	}
	rep.FoldersMerged = len(resp.ServerFolders)
	rep.ItemsMerged = len(resp.ServerItems)
	rep.Cleared = len(toClear)
	return rep, nil
}

// idsToClear picks the snapshot entries to delete after a successful response.
func (e *Engine) idsToClear(batch *Batch, results []dto.OpResult, rep *Report) []int64 {
	failed := map[entityKey]bool{}
	for _, res := range results {
		if res.Status != dto.StatusError {
			continue
		}
		rep.Failed++
		e.logger.Warnw("server rejected operation",
			"client_id", res.ClientID,
			"entity_type", res.EntityType,
			"action", res.Action,
			"error", res.Error,
		)
		if res.EntityType != "" {
			failed[entityKey{model.EntityType(res.EntityType), res.ClientID}] = true
			continue
		}
		failed[entityKey{model.EntityItem, res.ClientID}] = true
		failed[entityKey{model.EntityFolder, res.ClientID}] = true
	}
	if !e.opts.KeepFailedOps || len(failed) == 0 {
		return batch.IDs
	}
	keep := map[int64]bool{}
	for key := range failed {
		for _, id := range batch.IDsFor(key.Type, key.ClientID) {
			keep[id] = true
		}
	}
	res := make([]int64, 0, len(batch.IDs))
	for _, id := range batch.IDs {
		if !keep[id] {
			res = append(res, id)
		}
	}
	return res
}

// InitialSync pulls the full server state. Entities missing locally are
// inserted; existing ones are overwritten only when they have no pending
// queue entries, so unsynced local edits survive. Afterwards last_sync_at is
// set to the local clock.
func (e *Engine) InitialSync(ctx context.Context) (*Report, error) {
	if err := e.acquire(); err != nil {
		return nil, err
	}
	defer e.inFlight.Store(false)

	rctx, cancel := context.WithTimeout(ctx, e.opts.RequestTimeout)
	defer cancel()
	items, err := e.remote.ListItems(rctx)
	if err != nil {
		err = fmt.Errorf("initial sync: list items: %w", err)
		e.emitError(err)
		return nil, err
	}
	folders, err := e.remote.ListFolders(rctx)
	if err != nil {
		err = fmt.Errorf("initial sync: list folders: %w", err)
		e.emitError(err)
		return nil, err
	}

	rep := &Report{SyncedAt: e.opts.Now().UTC()}
	err = e.tx.InTx(ctx, func(ctx context.Context, r repo.Repositories) error {
		for _, wf := range folders {
			ok, err := canOverwrite(ctx, r, model.EntityFolder, wf.ClientID)
			if err != nil {
				return err
			}
			if !ok {
				continue
			}
			if err := r.Folders.Upsert(ctx, folderFromWire(wf)); err != nil {
				return err
			}
			rep.FoldersMerged++
		}
		for _, wi := range items {
			ok, err := canOverwrite(ctx, r, model.EntityItem, wi.ClientID)
			if err != nil {
				return err
			}
			if !ok {
				continue
			}
			if err := r.Items.Upsert(ctx, itemFromWire(wi)); err != nil {
				return err
			}
			rep.ItemsMerged++
		}
		return storeLastSync(ctx, r.Meta, rep.SyncedAt)
	})
	if err != nil {
		err = fmt.Errorf("initial sync: %w", err)
		e.emitError(err)
		return nil, err
	}
	e.logger.Infow("initial sync completed", "items", rep.ItemsMerged, "folders", rep.FoldersMerged)
	e.emitComplete(*rep)
	return rep, nil
}

// canOverwrite: absent entities are always written; present ones only
// without pending local changes.
func canOverwrite(ctx context.Context, r repo.Repositories, t model.EntityType, clientID string) (bool, error) {
	n, err := r.Queue.CountFor(ctx, t, clientID)
	if err != nil {
		return false, err
	}
	return n == 0, nil
}

// PendingCount returns the number of queued local changes.
func (e *Engine) PendingCount(ctx context.Context) (int, error) {
	var n int
	err := e.tx.InTx(ctx, func(ctx context.Context, r repo.Repositories) error {
		var err error
		n, err = r.Queue.Count(ctx)
		return err
	})
	return n, err
}

// LastSyncAt returns the stored watermark, nil before the first sync.
func (e *Engine) LastSyncAt(ctx context.Context) (*time.Time, error) {
	var t *time.Time
	err := e.tx.InTx(ctx, func(ctx context.Context, r repo.Repositories) error {
		var err error
		t, err = loadLastSync(ctx, r.Meta)
		return err
	})
	return t, err
}

func loadLastSync(ctx context.Context, meta repo.MetadataRepository) (*time.Time, error) {
	raw, err := meta.Get(ctx, repo.MetaLastSyncAt)
	if err != nil || len(raw) == 0 {
		return nil, err
	}
	t, err := time.Parse(time.RFC3339Nano, string(raw))
	if err != nil {
		// испорченная метка: следующий раунд запросит всё заново
		return nil, nil
	}
	return &t, nil
}

func storeLastSync(ctx context.Context, meta repo.MetadataRepository, t time.Time) error {
	return meta.Set(ctx, repo.MetaLastSyncAt, []byte(t.UTC().Format(time.RFC3339Nano)))
}
