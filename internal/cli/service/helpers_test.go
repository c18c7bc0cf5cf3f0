package service

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"Notico/internal/cli/model"
	"Notico/internal/cli/repo"
	"Notico/internal/cli/store"
)

type countingTrigger struct{ n atomic.Int32 }

func (c *countingTrigger) TriggerSync() { c.n.Add(1) }

// manualClock — часы, которые двигает тест.
type manualClock struct {
	mu  sync.Mutex
	cur time.Time
}

func (m *manualClock) now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cur
}

func (m *manualClock) set(t time.Time) {
	m.mu.Lock()
	m.cur = t
	m.mu.Unlock()
}

type fixture struct {
	store    *store.Store
	items    *ItemService
	folders  *FolderService
	transfer *Transfer
	trigger  *countingTrigger
	clock    *manualClock
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	s, err := store.Open(context.Background(), "file:"+t.Name()+"?mode=memory&cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	mc := &manualClock{cur: time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)}
	clock := NewClock(mc.now)
	trig := &countingTrigger{}
	items := NewItemService(s, trig, clock, nil)
	folders := NewFolderService(s, trig, clock, nil)
	return &fixture{
		store:    s,
		items:    items,
		folders:  folders,
		transfer: NewTransfer(s, items, folders, clock),
		trigger:  trig,
		clock:    mc,
	}
}

func (f *fixture) queue(t *testing.T) []model.QueueEntry {
	t.Helper()
	var entries []model.QueueEntry
	err := f.store.InTx(context.Background(), func(ctx context.Context, r repo.Repositories) error {
		var err error
		entries, err = r.Queue.List(ctx)
		return err
	})
	require.NoError(t, err)
	return entries
}

func ptr[T any](v T) *T { return &v }
