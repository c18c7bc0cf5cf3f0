package commands

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"Notico/internal/cli/api"
	"Notico/internal/cli/service"
	"Notico/internal/cli/syncer"
	"Notico/internal/config"
)

// Dispatch is the single entry point to execute CLI commands.
// It prints help and usage messages and returns a process exit code.
func Dispatch(ctx context.Context, cfg *config.Config, args []string) int {
	// If user passed global --help after flags parsing, show global usage
	for _, a := range os.Args[1:] {
		if a == "--help" || a == "-h" {
			fmt.Fprint(Out, FormatGlobalUsage())
			return 0
		}
	}

	if !flag.Parsed() {
		flag.Parse()
	}

	if len(args) == 0 {
		fmt.Fprint(Out, FormatGlobalUsage())
		return 2
	}

	name := strings.ToLower(args[0])
	if name == "help" { // notico help [command]
		if len(args) == 1 {
			fmt.Fprint(Out, FormatGlobalUsage())
			return 0
		}
		if c, ok := Get(args[1]); ok {
			fmt.Fprintf(Out, "Usage: %s\n", c.Usage())
			return 0
		}
		fmt.Fprintf(Out, "Unknown command: %s\n\n", args[1])
		fmt.Fprint(Out, FormatGlobalUsage())
		return 2
	}

	c, ok := Get(name)
	if !ok {
		fmt.Fprintf(Out, "Unknown command: %s\n\n", name)
		fmt.Fprint(Out, FormatGlobalUsage())
		return 2
	}

	start := time.Now()
	err := c.Run(ctx, cfg, args[1:])
	cmdLogger().Debugw("command finished", "cmd", name, "elapsed", time.Since(start), "error", err)
	switch {
	case err == nil:
		return 0
	case errors.Is(err, ErrUsage):
		fmt.Fprintf(Out, "Usage: %s\n", c.Usage())
		return 2
	default:
		fmt.Fprintf(Out, "%s error: %v\n", name, err)
		if hint := errorHint(err); hint != "" {
			fmt.Fprintln(Out, hint)
		}
		return 1
	}
}

// errorHint подсказывает, что делать дальше, для известных ошибок.
func errorHint(err error) string {
	var se *api.StatusError
	switch {
	case errors.Is(err, service.ErrNotFound):
		return "Подсказка: удалённые записи и папки лежат в корзине (trash), вернуть: item-restore / folder-restore <id>"
	case errors.Is(err, syncer.ErrOffline):
		return "Подсказка: сервер недоступен, изменения остаются в очереди до следующей синхронизации"
	case errors.As(err, &se) && se.Code == http.StatusUnauthorized:
		return "Подсказка: сессия истекла, выполните login <login> <password>"
	case errors.As(err, &se) && se.Code == http.StatusForbidden:
		return "Подсказка: синхронизация доступна на плане pro"
	}
	return ""
}
