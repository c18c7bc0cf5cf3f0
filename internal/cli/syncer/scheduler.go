package syncer

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Runner is the part of Engine the Scheduler drives.
type Runner interface {
	SyncNow(ctx context.Context) (*Report, error)
	Entitled() bool
	Online() bool
	SetOnline(bool)
	InFlight() bool
}

var _ Runner = (*Engine)(nil)

const (
	DefaultDebounce     = time.Second
	DefaultPollInterval = 30 * time.Second
)

// SchedulerOptions — настройки планировщика.
type SchedulerOptions struct {
	Debounce     time.Duration
	PollInterval time.Duration
	Logger       *zap.SugaredLogger
}

// Scheduler решает, когда запускать синхронизацию: debounced after local
// changes, right away when the device comes back online or to the
// foreground, and periodically while listening. Overlapping firings are
// dropped by the engine's in-flight guard.
type Scheduler struct {
	runner Runner
	opts   SchedulerOptions
	logger *zap.SugaredLogger

	mu         sync.Mutex
	timer      *time.Timer
	pending    bool
	listening  bool
	stopped    bool
	foreground bool
	base       context.Context
	stopPoll   context.CancelFunc

	wg sync.WaitGroup
}

func NewScheduler(r Runner, opts SchedulerOptions) *Scheduler {
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop().Sugar()
	}
	return &Scheduler{
		runner:     r,
		opts:       opts,
		logger:     opts.Logger,
		foreground: true,
		base:       context.Background(),
	}
}

// TriggerSync schedules a round after the debounce delay; every call
// restarts the delay. Ignored when the plan does not include sync.
func (s *Scheduler) TriggerSync() {
	if !s.runner.Entitled() {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}
	s.pending = true
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(s.opts.Debounce, s.fireDebounced)
}

func (s *Scheduler) fireDebounced() {
	s.mu.Lock()
	if !s.pending {
		s.mu.Unlock()
		return
	}
	s.pending = false
	s.timer = nil
	s.mu.Unlock()
	s.run("debounce")
}

// SetOnline records connectivity; going from offline to online fires a round
// immediately while listening.
func (s *Scheduler) SetOnline(online bool) {
	was := s.runner.Online()
	s.runner.SetOnline(online)
	if online && !was {
		s.fireIfListening("online")
	}
}

// SetForeground records visibility; becoming visible fires a round
// immediately while listening.
func (s *Scheduler) SetForeground(visible bool) {
	s.mu.Lock()
	was := s.foreground
	s.foreground = visible
	s.mu.Unlock()
	if visible && !was {
		s.fireIfListening("foreground")
	}
}

func (s *Scheduler) fireIfListening(reason string) {
	s.mu.Lock()
	listening := s.listening
	s.mu.Unlock()
	if listening {
		go s.run(reason)
	}
}

// Start begins listening: periodic polling plus immediate rounds on
// connectivity and foreground events. The returned teardown stops all
// timers and waits for running rounds; it is safe to call more than once.
func (s *Scheduler) Start(ctx context.Context) func() {
	s.mu.Lock()
	if s.listening || s.stopped {
		s.mu.Unlock()
		return func() {}
	}
	s.listening = true
	s.base = ctx
	pollCtx, cancel := context.WithCancel(ctx)
	s.stopPoll = cancel
	s.wg.Add(1)
	s.mu.Unlock()

	go s.poll(pollCtx)
	s.logger.Debugw("sync scheduler started", "poll_interval", s.opts.PollInterval, "debounce", s.opts.Debounce)

	var once sync.Once
	return func() { once.Do(s.stop) }
}

func (s *Scheduler) poll(ctx context.Context) {
	defer s.wg.Done()
	ticker := time.NewTicker(s.opts.PollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if s.runner.Entitled() && s.runner.Online() {
				s.run("poll")
			}
		}
	}
}

func (s *Scheduler) stop() {
	s.mu.Lock()
	s.listening = false
	s.stopped = true
	s.pending = false
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	if s.stopPoll != nil {
		s.stopPoll()
	}
	s.mu.Unlock()

	s.wg.Wait()
	s.logger.Debugw("sync scheduler stopped")
}

// run executes one round unless the scheduler was torn down.
func (s *Scheduler) run(reason string) {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.wg.Add(1)
	ctx := s.base
	s.mu.Unlock()
	defer s.wg.Done()

	if _, err := s.runner.SyncNow(ctx); err != nil {
		if IsSkip(err) {
			s.logger.Debugw("sync skipped", "reason", reason, "why", err)
			return
		}
		s.logger.Debugw("sync round failed", "reason", reason, "error", err)
	}
}

// Flush runs a pending debounced round now, waiting for a round already in
// flight to finish first. One-shot commands call it before exiting.
func (s *Scheduler) Flush(ctx context.Context) error {
	s.mu.Lock()
	pending := s.pending
	s.pending = false
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.mu.Unlock()

	if !pending && !s.runner.InFlight() {
		return nil
	}
	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()
	for s.runner.InFlight() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
	_, err := s.runner.SyncNow(ctx)
	return err
}
