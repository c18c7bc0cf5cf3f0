package commands

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strings"
	"time"

	"Notico/internal/cli/bootstrap"
	"Notico/internal/cli/model"
	"Notico/internal/config"
)

type itemsCmd struct{}

func (itemsCmd) Name() string { return "items" }
func (itemsCmd) Description() string {
	return "Список записей с фильтром и поиском"
}
func (itemsCmd) Usage() string {
	return "items [--type note|url|reminder] [--folder <id>] [-q <query>]"
}

func (itemsCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("items", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	typ := fs.String("type", "", "")
	folder := fs.String("folder", "", "")
	query := fs.String("q", "", "")
	if err := fs.Parse(args); err != nil {
		return ErrUsage
	}
	if fs.NArg() != 0 {
		return ErrUsage
	}
	filter := model.ItemFilter{Type: model.ItemType(*typ), FolderID: *folder, Query: *query}
	if filter.Type != "" && !filter.Type.Valid() {
		return ErrUsage
	}

	return withSession(ctx, cfg, func(s *bootstrap.Session) error {
		items, err := s.Items.List(ctx, filter)
		if err != nil {
			return err
		}
		if len(items) == 0 {
			fmt.Fprintln(Out, "No items")
			return nil
		}
		for _, it := range items {
			printItemLine(it)
		}
		return nil
	})
}

func printItemLine(it model.Item) {
	mark := " "
	if it.Pinned {
		mark = "*"
	}
	line := fmt.Sprintf("%s %s  %-8s %s", mark, it.ClientID, it.Type, it.Title)
	if it.Type == model.ItemTypeReminder && it.ReminderDate != nil {
		state := ""
		if it.ReminderCompleted {
			state = " done"
		}
		line += fmt.Sprintf("  [%s%s]", it.ReminderDate.Local().Format("2006-01-02 15:04"), state)
	}
	if len(it.Tags) > 0 {
		line += "  #" + strings.Join(it.Tags, " #")
	}
	if it.Deleted && it.DeletedAt != nil {
		line += "  (deleted " + it.DeletedAt.Local().Format(time.DateOnly) + ")"
	}
	fmt.Fprintln(Out, line)
}

func init() { RegisterCmd(itemsCmd{}) }
