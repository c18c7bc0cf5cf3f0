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

type itemAddCmd struct{}

func (itemAddCmd) Name() string { return "item-add" }
func (itemAddCmd) Description() string {
	return "Добавить заметку, ссылку или напоминание"
}
func (itemAddCmd) Usage() string {
	return "item-add [--type note|url|reminder] [--content] [--url] [--remind] [--tags a,b] [--pin] [--color] [--folder] <title>"
}

func (itemAddCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("item-add", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	typ := fs.String("type", string(model.ItemTypeNote), "note|url|reminder")
	content := fs.String("content", "", "текст")
	url := fs.String("url", "", "ссылка")
	remind := fs.String("remind", "", "дата напоминания (RFC3339 или 2006-01-02 15:04)")
	tags := fs.String("tags", "", "теги через запятую")
	pin := fs.Bool("pin", false, "закрепить")
	color := fs.String("color", "", "цвет")
	folder := fs.String("folder", "", "clientId папки")
	if err := fs.Parse(args); err != nil {
		return ErrUsage
	}
	if fs.NArg() != 1 {
		return ErrUsage
	}

	in := model.NewItem{
		Type:     model.ItemType(*typ),
		Title:    fs.Arg(0),
		Content:  *content,
		URL:      *url,
		Tags:     splitTags(*tags),
		Pinned:   *pin,
		Color:    *color,
		FolderID: *folder,
	}
	if *remind != "" {
		t, err := parseWhen(*remind)
		if err != nil {
			return err
		}
		in.ReminderDate = &t
	}

	return withSession(ctx, cfg, func(s *bootstrap.Session) error {
		it, err := s.Items.Create(ctx, in)
		if err != nil {
			return err
		}
		fmt.Fprintln(Out, "Created:")
		fmt.Fprintf(Out, "  id:    %s\n", it.ClientID)
		fmt.Fprintf(Out, "  type:  %s\n", it.Type)
		fmt.Fprintf(Out, "  title: %s\n", it.Title)
		flushSync(ctx, s)
		return nil
	})
}

func splitTags(raw string) []string {
	tags := []string{}
	for _, t := range strings.Split(raw, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

// parseWhen понимает RFC3339 и локальное "2006-01-02 15:04".
func parseWhen(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	t, err := time.ParseInLocation("2006-01-02 15:04", s, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("bad date %q: use RFC3339 or \"2006-01-02 15:04\"", s)
	}
	return t, nil
}

func init() { RegisterCmd(itemAddCmd{}) }
