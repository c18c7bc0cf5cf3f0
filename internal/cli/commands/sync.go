package commands

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"

	"Notico/internal/cli/bootstrap"
	"Notico/internal/cli/syncer"
	"Notico/internal/config"
)

type syncCmd struct{}

func (syncCmd) Name() string { return "sync" }
func (syncCmd) Description() string {
	return "Синхронизировать очередь с сервером (--initial: полная загрузка)"
}
func (syncCmd) Usage() string { return "sync [--initial]" }

func (syncCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("sync", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	initial := fs.Bool("initial", false, "загрузить всё с сервера, сохранив неотправленные изменения")
	if err := fs.Parse(args); err != nil || fs.NArg() != 0 {
		return ErrUsage
	}

	return withSession(ctx, cfg, func(s *bootstrap.Session) error {
		if _, err := s.RefreshTier(ctx); err != nil {
			s.Logger.Debugw("refresh tier", "error", err)
		}
		fmt.Fprintln(Out, "→ Запуск синхронизации…")

		var (
			rep *syncer.Report
			err error
		)
		if *initial {
			rep, err = s.Engine.InitialSync(ctx)
		} else {
			rep, err = s.Engine.SyncNow(ctx)
		}
		switch {
		case errors.Is(err, syncer.ErrNotEntitled):
			return errors.New("синхронизация доступна только на плане pro")
		case err != nil:
			return err
		}
		printReport(rep)
		return nil
	})
}

func printReport(rep *syncer.Report) {
	if rep.Pushed > 0 {
		fmt.Fprintf(Out, "✓ Отправлено операций: %d\n", rep.Pushed)
	}
	if rep.Failed > 0 {
		fmt.Fprintf(Out, "! Отклонено сервером: %d\n", rep.Failed)
	}
	if rep.ItemsMerged > 0 || rep.FoldersMerged > 0 {
		fmt.Fprintf(Out, "• Получено с сервера: записей %d, папок %d\n", rep.ItemsMerged, rep.FoldersMerged)
	}
	if !rep.SyncedAt.IsZero() {
		fmt.Fprintf(Out, "• Метка сервера: %s\n", rep.SyncedAt.UTC().Format("2006-01-02T15:04:05Z07:00"))
	}
	if rep.Pushed == 0 && rep.ItemsMerged == 0 && rep.FoldersMerged == 0 {
		fmt.Fprintln(Out, "• Синхронизация завершена: изменений нет")
	}
}

func init() { RegisterCmd(syncCmd{}) }
