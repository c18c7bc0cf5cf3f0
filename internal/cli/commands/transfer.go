package commands

import (
	"context"
	"fmt"
	"os"

	"Notico/internal/cli/bootstrap"
	"Notico/internal/config"
)

type exportCmd struct{}

func (exportCmd) Name() string { return "export" }
func (exportCmd) Description() string {
	return "Выгрузить все данные в JSON (без аргумента в stdout)"
}
func (exportCmd) Usage() string { return "export [<file>]" }

func (exportCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) > 1 {
		return ErrUsage
	}
	return withSession(ctx, cfg, func(s *bootstrap.Session) error {
		if len(args) == 0 || args[0] == "-" {
			return s.Transfer.Export(ctx, Out)
		}
		f, err := os.OpenFile(args[0], os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
		if err != nil {
			return err
		}
		if err := s.Transfer.Export(ctx, f); err != nil {
			_ = f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
		fmt.Fprintf(Out, "Exported to %s\n", args[0])
		return nil
	})
}

type importCmd struct{}

func (importCmd) Name() string { return "import" }
func (importCmd) Description() string {
	return "Загрузить данные из файла экспорта как новые записи"
}
func (importCmd) Usage() string { return "import <file>" }

func (importCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) != 1 {
		return ErrUsage
	}
	f, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer f.Close()
	return withSession(ctx, cfg, func(s *bootstrap.Session) error {
		res, err := s.Transfer.Import(ctx, f)
		if err != nil {
			return err
		}
		fmt.Fprintf(Out, "Imported: items %d, folders %d\n", res.Items, res.Folders)
		flushSync(ctx, s)
		return nil
	})
}

func init() {
	RegisterCmd(exportCmd{})
	RegisterCmd(importCmd{})
}
