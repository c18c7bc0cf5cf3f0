package commands

import (
	"context"
	"fmt"
	"time"

	"Notico/internal/cli/bootstrap"
	"Notico/internal/cli/store"
	"Notico/internal/config"
)

type statusCmd struct{}

func (statusCmd) Name() string { return "status" }
func (statusCmd) Description() string {
	return "Показать пользователя, план и состояние очереди"
}
func (statusCmd) Usage() string { return "status" }

func (statusCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) != 0 {
		return ErrUsage
	}
	return withSession(ctx, cfg, func(s *bootstrap.Session) error {
		pctx, cancel := context.WithTimeout(ctx, 3*time.Second)
		reachable := s.Client.Ping(pctx) == nil
		cancel()

		if reachable && s.Login != store.AnonymousLogin {
			if _, err := s.RefreshTier(ctx); err != nil {
				s.Logger.Warnw("refresh tier", "error", err)
			}
		}
		pending, err := s.Engine.PendingCount(ctx)
		if err != nil {
			return err
		}
		last, err := s.Engine.LastSyncAt(ctx)
		if err != nil {
			return err
		}

		fmt.Fprintf(Out, "User:      %s\n", s.Login)
		fmt.Fprintf(Out, "Plan:      %s\n", s.Engine.Tier())
		fmt.Fprintf(Out, "Pending:   %d\n", pending)
		if last != nil {
			fmt.Fprintf(Out, "Last sync: %s\n", last.Local().Format(time.DateTime))
		} else {
			fmt.Fprintln(Out, "Last sync: never")
		}
		if reachable {
			fmt.Fprintf(Out, "Server:    %s (online)\n", cfg.ServerURL)
		} else {
			fmt.Fprintf(Out, "Server:    %s (unreachable)\n", cfg.ServerURL)
		}
		return nil
	})
}

func init() { RegisterCmd(statusCmd{}) }
