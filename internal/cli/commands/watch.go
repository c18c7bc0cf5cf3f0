package commands

import (
	"context"
	"fmt"
	"sync"
	"time"

	"Notico/internal/cli/bootstrap"
	"Notico/internal/cli/syncer"
	"Notico/internal/config"
)

type watchCmd struct{}

func (watchCmd) Name() string { return "watch" }
func (watchCmd) Description() string {
	return "Синхронизировать в фоне до Ctrl+C: опрос сервера и проверка связи"
}
func (watchCmd) Usage() string { return "watch" }

func (watchCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) != 0 {
		return ErrUsage
	}
	return withSession(ctx, cfg, func(s *bootstrap.Session) error {
		var mu sync.Mutex
		printf := func(format string, a ...any) {
			mu.Lock()
			defer mu.Unlock()
			fmt.Fprintf(Out, format, a...)
		}

		if _, err := s.RefreshTier(ctx); err != nil {
			s.Logger.Debugw("refresh tier", "error", err)
		}
		if !s.Engine.Entitled() {
			printf("• План %s: синхронизация недоступна\n", s.Engine.Tier())
		}

		unsubOK := s.Engine.OnComplete(func(r syncer.Report) {
			if r.Pushed > 0 || r.ItemsMerged > 0 || r.FoldersMerged > 0 {
				printf("✓ sync: отправлено %d, получено записей %d, папок %d\n", r.Pushed, r.ItemsMerged, r.FoldersMerged)
			}
		})
		defer unsubOK()
		unsubErr := s.Engine.OnError(func(err error) {
			printf("× sync: %v\n", err)
		})
		defer unsubErr()

		stop := s.Scheduler.Start(ctx)
		defer stop()
		printf("Watching %s as %s (Ctrl+C to stop)\n", cfg.ServerURL, s.Login)

		probe := func() {
			pctx, cancel := context.WithTimeout(ctx, cfg.ProbeInterval)
			defer cancel()
			online := s.Client.Ping(pctx) == nil
			if online != s.Engine.Online() {
				s.Logger.Infow("connectivity changed", "online", online)
			}
			s.Scheduler.SetOnline(online)
		}
		probe()
		if _, err := s.Engine.SyncNow(ctx); err != nil && !syncer.IsSkip(err) {
			s.Logger.Debugw("first round", "error", err)
		}

		interval := cfg.ProbeInterval
		if interval <= 0 {
			interval = 10 * time.Second
		}
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				probe()
			}
		}
	})
}

func init() { RegisterCmd(watchCmd{}) }
