package commands

import (
	"context"
	"encoding/json"

	"Notico/internal/cli/bootstrap"
	"Notico/internal/config"
)

type itemGetCmd struct{}

func (itemGetCmd) Name() string        { return "item-get" }
func (itemGetCmd) Description() string { return "Показать запись целиком (JSON)" }
func (itemGetCmd) Usage() string       { return "item-get <id>" }

func (itemGetCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) != 1 {
		return ErrUsage
	}
	return withSession(ctx, cfg, func(s *bootstrap.Session) error {
		it, err := s.Items.Get(ctx, args[0])
		if err != nil {
			return err
		}
		enc := json.NewEncoder(Out)
		enc.SetIndent("", "  ")
		return enc.Encode(it)
	})
}

func init() { RegisterCmd(itemGetCmd{}) }
