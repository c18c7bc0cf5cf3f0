package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"Notico/internal/cli/bootstrap"
	"Notico/internal/cli/model"
	"Notico/internal/config"
)

type folderAddCmd struct{}

func (folderAddCmd) Name() string        { return "folder-add" }
func (folderAddCmd) Description() string { return "Создать папку" }
func (folderAddCmd) Usage() string       { return "folder-add [--color <c>] <name>" }

func (folderAddCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("folder-add", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	color := fs.String("color", "", "")
	if err := fs.Parse(args); err != nil || fs.NArg() != 1 {
		return ErrUsage
	}
	return withSession(ctx, cfg, func(s *bootstrap.Session) error {
		f, err := s.Folders.Create(ctx, model.NewFolder{Name: fs.Arg(0), Color: *color})
		if err != nil {
			return err
		}
		fmt.Fprintf(Out, "Created folder %s (%s)\n", f.Name, f.ClientID)
		flushSync(ctx, s)
		return nil
	})
}

type folderEditCmd struct{}

func (folderEditCmd) Name() string { return "folder-edit" }
func (folderEditCmd) Description() string {
	return "Переименовать папку или сменить цвет"
}
func (folderEditCmd) Usage() string { return "folder-edit [--name <n>] [--color <c>] <id>" }

func (folderEditCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("folder-edit", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	name := fs.String("name", "", "")
	color := fs.String("color", "", "")
	if err := fs.Parse(args); err != nil || fs.NArg() != 1 {
		return ErrUsage
	}
	var patch model.FolderPatch
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "name":
			patch.Name = name
		case "color":
			patch.Color = color
		}
	})
	if patch.Empty() {
		return ErrUsage
	}
	return withSession(ctx, cfg, func(s *bootstrap.Session) error {
		f, err := s.Folders.Update(ctx, fs.Arg(0), patch)
		if err != nil {
			return err
		}
		fmt.Fprintf(Out, "Updated folder %s (%s)\n", f.Name, f.ClientID)
		flushSync(ctx, s)
		return nil
	})
}

type folderDeleteCmd struct{}

func (folderDeleteCmd) Name() string { return "folder-delete" }
func (folderDeleteCmd) Description() string {
	return "Переместить папку и все её записи в корзину"
}
func (folderDeleteCmd) Usage() string { return "folder-delete <id>" }

func (folderDeleteCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) != 1 {
		return ErrUsage
	}
	return withSession(ctx, cfg, func(s *bootstrap.Session) error {
		n, err := s.Folders.Delete(ctx, args[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(Out, "Moved to trash: folder %s and %d item(s)\n", args[0], n)
		flushSync(ctx, s)
		return nil
	})
}

type folderRestoreCmd struct{}

func (folderRestoreCmd) Name() string { return "folder-restore" }
func (folderRestoreCmd) Description() string {
	return "Вернуть папку из корзины (записи восстанавливаются отдельно)"
}
func (folderRestoreCmd) Usage() string { return "folder-restore <id>" }

func (folderRestoreCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) != 1 {
		return ErrUsage
	}
	return withSession(ctx, cfg, func(s *bootstrap.Session) error {
		f, err := s.Folders.Restore(ctx, args[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(Out, "Restored folder %s (%s)\n", f.Name, f.ClientID)
		flushSync(ctx, s)
		return nil
	})
}

type foldersCmd struct{}

func (foldersCmd) Name() string        { return "folders" }
func (foldersCmd) Description() string { return "Список папок" }
func (foldersCmd) Usage() string       { return "folders" }

func (foldersCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) != 0 {
		return ErrUsage
	}
	return withSession(ctx, cfg, func(s *bootstrap.Session) error {
		list, err := s.Folders.List(ctx)
		if err != nil {
			return err
		}
		if len(list) == 0 {
			fmt.Fprintln(Out, "No folders")
			return nil
		}
		for _, f := range list {
			fmt.Fprintf(Out, "  %s  %s\n", f.ClientID, f.Name)
		}
		return nil
	})
}

func init() {
	RegisterCmd(folderAddCmd{})
	RegisterCmd(folderEditCmd{})
	RegisterCmd(folderDeleteCmd{})
	RegisterCmd(folderRestoreCmd{})
	RegisterCmd(foldersCmd{})
}
