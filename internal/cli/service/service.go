package service

import (
	"sync"
	"time"

	"Notico/internal/cli/repo"
)

// ErrNotFound is returned when no entity has the given clientId.
var ErrNotFound = repo.ErrNotFound

// TrashRetention — сколько хранится запись в корзине до окончательного удаления.
const TrashRetention = 30 * 24 * time.Hour

// SyncTrigger is notified after every local mutation.
type SyncTrigger interface {
	TriggerSync()
}

type noopTrigger struct{}

func (noopTrigger) TriggerSync() {}

// Clock выдаёт строго возрастающие метки времени: два изменения подряд
// никогда не получат одинаковый updatedAt.
type Clock struct {
	mu   sync.Mutex
	now  func() time.Time
	last time.Time
}

// NewClock wraps now; nil means time.Now.
func NewClock(now func() time.Time) *Clock {
	if now == nil {
		now = time.Now
	}
	return &Clock{now: now}
}

// Now returns a UTC time truncated to microseconds and strictly after any
// previously returned value.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.now().UTC().Truncate(time.Microsecond)
	if !t.After(c.last) {
		t = c.last.Add(time.Microsecond)
	}
	c.last = t
	return t
}
