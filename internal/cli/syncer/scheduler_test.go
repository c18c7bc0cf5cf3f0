package syncer

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRunner struct {
	calls    atomic.Int32
	entitled atomic.Bool
	online   atomic.Bool
	inFlight atomic.Bool
}

func newFakeRunner() *fakeRunner {
	r := &fakeRunner{}
	r.entitled.Store(true)
	r.online.Store(true)
	return r
}

func (r *fakeRunner) SyncNow(ctx context.Context) (*Report, error) {
	if !r.entitled.Load() {
		return nil, ErrNotEntitled
	}
	if !r.online.Load() {
		return nil, ErrOffline
	}
	r.calls.Add(1)
	return &Report{}, nil
}

func (r *fakeRunner) Entitled() bool   { return r.entitled.Load() }
func (r *fakeRunner) Online() bool     { return r.online.Load() }
func (r *fakeRunner) SetOnline(v bool) { r.online.Store(v) }
func (r *fakeRunner) InFlight() bool   { return r.inFlight.Load() }

const (
	waitFor = time.Second
	tick    = 5 * time.Millisecond
)

func TestScheduler_DebounceCollapsesBursts(t *testing.T) {
	r := newFakeRunner()
	s := NewScheduler(r, SchedulerOptions{Debounce: 30 * time.Millisecond, PollInterval: time.Hour})
	stop := s.Start(context.Background())
	defer stop()

	for i := 0; i < 5; i++ {
		s.TriggerSync()
		time.Sleep(5 * time.Millisecond)
	}
	assert.Eventually(t, func() bool { return r.calls.Load() == 1 }, waitFor, tick)
	time.Sleep(80 * time.Millisecond)
	assert.Equal(t, int32(1), r.calls.Load())
}

func TestScheduler_TriggerIgnoredWithoutPlan(t *testing.T) {
	r := newFakeRunner()
	r.entitled.Store(false)
	s := NewScheduler(r, SchedulerOptions{Debounce: 10 * time.Millisecond, PollInterval: time.Hour})
	s.TriggerSync()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(0), r.calls.Load())
	require.NoError(t, s.Flush(context.Background()))
	assert.Equal(t, int32(0), r.calls.Load())
}

func TestScheduler_OnlineTransition(t *testing.T) {
	r := newFakeRunner()
	s := NewScheduler(r, SchedulerOptions{Debounce: time.Hour, PollInterval: time.Hour})

	// без Start события не запускают раунд
	s.SetOnline(false)
	s.SetOnline(true)
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, int32(0), r.calls.Load())

	stop := s.Start(context.Background())
	defer stop()
	s.SetOnline(true) // уже онлайн
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, int32(0), r.calls.Load())

	s.SetOnline(false)
	assert.False(t, r.Online())
	s.SetOnline(true)
	assert.Eventually(t, func() bool { return r.calls.Load() == 1 }, waitFor, tick)
}

func TestScheduler_Foreground(t *testing.T) {
	r := newFakeRunner()
	s := NewScheduler(r, SchedulerOptions{Debounce: time.Hour, PollInterval: time.Hour})
	stop := s.Start(context.Background())
	defer stop()

	s.SetForeground(true)
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, int32(0), r.calls.Load())

	s.SetForeground(false)
	s.SetForeground(true)
	assert.Eventually(t, func() bool { return r.calls.Load() == 1 }, waitFor, tick)
}

func TestScheduler_PollAndTeardown(t *testing.T) {
	r := newFakeRunner()
	s := NewScheduler(r, SchedulerOptions{Debounce: time.Hour, PollInterval: 15 * time.Millisecond})
	stop := s.Start(context.Background())
	assert.Eventually(t, func() bool { return r.calls.Load() >= 2 }, waitFor, tick)

	stop()
	stop() // повторный вызов безопасен
	n := r.calls.Load()
	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, n, r.calls.Load())

	// после остановки триггеры игнорируются
	s.TriggerSync()
	s.SetOnline(false)
	s.SetOnline(true)
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, n, r.calls.Load())
}

func TestScheduler_PollSkipsOffline(t *testing.T) {
	r := newFakeRunner()
	r.online.Store(false)
	s := NewScheduler(r, SchedulerOptions{Debounce: time.Hour, PollInterval: 10 * time.Millisecond})
	stop := s.Start(context.Background())
	time.Sleep(60 * time.Millisecond)
	stop()
	assert.Equal(t, int32(0), r.calls.Load())
}

func TestScheduler_TeardownCancelsPendingDebounce(t *testing.T) {
	r := newFakeRunner()
	s := NewScheduler(r, SchedulerOptions{Debounce: 40 * time.Millisecond, PollInterval: time.Hour})
	stop := s.Start(context.Background())
	s.TriggerSync()
	stop()
	time.Sleep(80 * time.Millisecond)
	assert.Equal(t, int32(0), r.calls.Load())
}

func TestScheduler_Flush(t *testing.T) {
	r := newFakeRunner()
	s := NewScheduler(r, SchedulerOptions{Debounce: time.Hour, PollInterval: time.Hour})

	require.NoError(t, s.Flush(context.Background()))
	assert.Equal(t, int32(0), r.calls.Load(), "nothing pending")

	s.TriggerSync()
	require.NoError(t, s.Flush(context.Background()))
	assert.Equal(t, int32(1), r.calls.Load())

	// второй Flush без новых изменений ничего не делает
	require.NoError(t, s.Flush(context.Background()))
	assert.Equal(t, int32(1), r.calls.Load())
}

func TestScheduler_FlushOfflineReportsSkip(t *testing.T) {
	r := newFakeRunner()
	s := NewScheduler(r, SchedulerOptions{Debounce: time.Hour, PollInterval: time.Hour})
	s.TriggerSync()
	r.online.Store(false)
	err := s.Flush(context.Background())
	assert.ErrorIs(t, err, ErrOffline)
}

func TestScheduler_FlushWaitsForInFlight(t *testing.T) {
	r := newFakeRunner()
	r.inFlight.Store(true)
	s := NewScheduler(r, SchedulerOptions{Debounce: time.Hour, PollInterval: time.Hour})

	go func() {
		time.Sleep(30 * time.Millisecond)
		r.inFlight.Store(false)
	}()
	require.NoError(t, s.Flush(context.Background()))
	assert.Equal(t, int32(1), r.calls.Load())

	r.inFlight.Store(true)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, s.Flush(ctx), context.DeadlineExceeded)
}
