package commands

import (
	"context"
	"flag"
	"fmt"
	"io"
	"time"

	"Notico/internal/cli/bootstrap"
	"Notico/internal/cli/model"
	"Notico/internal/config"
)

type itemEditCmd struct{}

func (itemEditCmd) Name() string { return "item-edit" }
func (itemEditCmd) Description() string {
	return "Изменить поля записи; неуказанные поля не трогаются"
}
func (itemEditCmd) Usage() string {
	return "item-edit [--title] [--content] [--url] [--type] [--remind|--no-remind] [--done] [--tags] [--pin] [--color] [--folder] <id>"
}

func (itemEditCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	// Парсим флагами: разрешаем только префиксные флаги перед позиционными аргументами
	fs := flag.NewFlagSet("item-edit", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	title := fs.String("title", "", "")
	content := fs.String("content", "", "")
	url := fs.String("url", "", "")
	typ := fs.String("type", "", "")
	remind := fs.String("remind", "", "")
	noRemind := fs.Bool("no-remind", false, "")
	done := fs.Bool("done", false, "")
	tags := fs.String("tags", "", "")
	pin := fs.Bool("pin", false, "")
	color := fs.String("color", "", "")
	folder := fs.String("folder", "", "пустое значение убирает из папки")
	if err := fs.Parse(args); err != nil {
		return ErrUsage
	}
	if fs.NArg() != 1 {
		return ErrUsage
	}
	id := fs.Arg(0)

	var patch model.ItemPatch
	var bad error
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "title":
			patch.Title = title
		case "content":
			patch.Content = content
		case "url":
			patch.URL = url
		case "type":
			t := model.ItemType(*typ)
			patch.Type = &t
		case "remind":
			t, err := parseWhen(*remind)
			if err != nil {
				bad = err
				return
			}
			patch.ReminderDate = &t
		case "no-remind":
			if *noRemind {
				patch.ReminderDate = &time.Time{}
			}
		case "done":
			patch.ReminderCompleted = done
		case "tags":
			patch.Tags = splitTags(*tags)
		case "pin":
			patch.Pinned = pin
		case "color":
			patch.Color = color
		case "folder":
			patch.FolderID = folder
		}
	})
	if bad != nil {
		return bad
	}
	if patch.Empty() {
		return ErrUsage
	}

	return withSession(ctx, cfg, func(s *bootstrap.Session) error {
		it, err := s.Items.Update(ctx, id, patch)
		if err != nil {
			return err
		}
		fmt.Fprintln(Out, "Updated:")
		fmt.Fprintf(Out, "  id:    %s\n", it.ClientID)
		fmt.Fprintf(Out, "  title: %s\n", it.Title)
		flushSync(ctx, s)
		return nil
	})
}

func init() { RegisterCmd(itemEditCmd{}) }
