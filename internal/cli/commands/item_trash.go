package commands

import (
	"context"
	"fmt"

	"Notico/internal/cli/bootstrap"
	"Notico/internal/config"
)

type itemDeleteCmd struct{}

func (itemDeleteCmd) Name() string { return "item-delete" }
func (itemDeleteCmd) Description() string {
	return "Переместить запись в корзину"
}
func (itemDeleteCmd) Usage() string { return "item-delete <id>" }

func (itemDeleteCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) != 1 {
		return ErrUsage
	}
	return withSession(ctx, cfg, func(s *bootstrap.Session) error {
		if err := s.Items.Delete(ctx, args[0]); err != nil {
			return err
		}
		fmt.Fprintf(Out, "Moved to trash: %s\n", args[0])
		flushSync(ctx, s)
		return nil
	})
}

type itemRestoreCmd struct{}

func (itemRestoreCmd) Name() string        { return "item-restore" }
func (itemRestoreCmd) Description() string { return "Вернуть запись из корзины" }
func (itemRestoreCmd) Usage() string       { return "item-restore <id>" }

func (itemRestoreCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) != 1 {
		return ErrUsage
	}
	return withSession(ctx, cfg, func(s *bootstrap.Session) error {
		it, err := s.Items.Restore(ctx, args[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(Out, "Restored: %s %s\n", it.ClientID, it.Title)
		flushSync(ctx, s)
		return nil
	})
}

type itemPurgeCmd struct{}

func (itemPurgeCmd) Name() string { return "item-purge" }
func (itemPurgeCmd) Description() string {
	return "Удалить запись с устройства навсегда (без синхронизации)"
}
func (itemPurgeCmd) Usage() string { return "item-purge <id>" }

func (itemPurgeCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) != 1 {
		return ErrUsage
	}
	return withSession(ctx, cfg, func(s *bootstrap.Session) error {
		if err := s.Items.PermanentlyDelete(ctx, args[0]); err != nil {
			return err
		}
		fmt.Fprintf(Out, "Permanently deleted: %s\n", args[0])
		return nil
	})
}

type trashCmd struct{}

func (trashCmd) Name() string        { return "trash" }
func (trashCmd) Description() string { return "Показать корзину" }
func (trashCmd) Usage() string       { return "trash" }

func (trashCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) != 0 {
		return ErrUsage
	}
	return withSession(ctx, cfg, func(s *bootstrap.Session) error {
		folders, err := s.Folders.ListDeleted(ctx)
		if err != nil {
			return err
		}
		items, err := s.Items.ListDeleted(ctx)
		if err != nil {
			return err
		}
		if len(folders) == 0 && len(items) == 0 {
			fmt.Fprintln(Out, "Trash is empty")
			return nil
		}
		for _, f := range folders {
			fmt.Fprintf(Out, "  %s  folder   %s\n", f.ClientID, f.Name)
		}
		for _, it := range items {
			printItemLine(it)
		}
		return nil
	})
}

type purgeCmd struct{}

func (purgeCmd) Name() string { return "purge" }
func (purgeCmd) Description() string {
	return "Очистить корзину от записей старше 30 дней"
}
func (purgeCmd) Usage() string { return "purge" }

func (purgeCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) != 0 {
		return ErrUsage
	}
	return withSession(ctx, cfg, func(s *bootstrap.Session) error {
		// Open уже чистит корзину; здесь повтор для явного отчёта
		items, err := s.Items.PurgeExpired(ctx)
		if err != nil {
			return err
		}
		folders, err := s.Folders.PurgeExpired(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(Out, "Purged: items %d, folders %d\n", items, folders)
		return nil
	})
}

func init() {
	RegisterCmd(itemDeleteCmd{})
	RegisterCmd(itemRestoreCmd{})
	RegisterCmd(itemPurgeCmd{})
	RegisterCmd(trashCmd{})
	RegisterCmd(purgeCmd{})
}
