package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"go.uber.org/zap"

	"Notico/internal/cli/bootstrap"
	"Notico/internal/cli/syncer"
	"Notico/internal/config"
)

// ErrUsage is returned by a command when arguments are invalid and usage should be shown.
var ErrUsage = errors.New("usage")

// Command represents a CLI subcommand.
type Command interface {
	// Name returns the command name as typed by the user, e.g. "login".
	Name() string
	// Description is a short human-readable description shown in help.
	Description() string
	// Usage returns the exact usage string, e.g. "login <login> <password>".
	Usage() string
	// Run executes the command with provided args (without the command name).
	Run(ctx context.Context, cfg *config.Config, args []string) error
}

// registry holds available commands by name.
var registry = map[string]Command{}

// Out — общий writer для вывода CLI. По умолчанию os.Stdout, но в тестах может переназначаться.
var Out io.Writer = os.Stdout

// RegisterCmd adds a command to the registry. Should be called from init() of each command.
func RegisterCmd(cmd Command) {
	registry[cmd.Name()] = cmd
}

// Get returns a command by name.
func Get(name string) (Command, bool) {
	c, ok := registry[name]
	return c, ok
}

// List returns all registered commands sorted by name.
func List() []Command {
	list := make([]Command, 0, len(registry))
	for _, c := range registry {
		list = append(list, c)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Name() < list[j].Name() })
	return list
}

// FormatGlobalUsage builds a help text for all commands.
func FormatGlobalUsage() string {
	lines := []string{
		"Notico CLI",
		"",
		"Usage:",
		"  notico [--base-url <host:port>] <command> [args]",
		"",
		"Commands:",
	}
	for _, c := range List() {
		lines = append(lines, fmt.Sprintf("  %-44s %s", c.Usage(), c.Description()))
	}
	return strings.Join(lines, "\n") + "\n"
}

// logger задаётся из main; nil, пока не вызван SetLogger.
var logger *zap.SugaredLogger

// SetLogger makes every session opened by commands log through l.
func SetLogger(l *zap.SugaredLogger) { logger = l }

func cmdLogger() *zap.SugaredLogger {
	if logger == nil {
		return zap.NewNop().Sugar()
	}
	return logger
}

// openSession открывает базу текущего пользователя; тесты могут подменить.
var openSession = func(ctx context.Context, cfg *config.Config) (*bootstrap.Session, error) {
	if logger != nil {
		return bootstrap.OpenWithLogger(ctx, cfg, logger)
	}
	return bootstrap.Open(ctx, cfg)
}

// withSession opens the session, runs fn and closes it.
func withSession(ctx context.Context, cfg *config.Config, fn func(s *bootstrap.Session) error) error {
	s, err := openSession(ctx, cfg)
	if err != nil {
		return err
	}
	defer s.Close()
	return fn(s)
}

const localOnlyNotice = "• Сохранено локально (синхронизация доступна на плане pro)"

// flushSync отправляет изменения сразу после команды и печатает итог.
// Ошибка синхронизации не делает команду неуспешной: данные уже сохранены.
func flushSync(ctx context.Context, s *bootstrap.Session) {
	if !s.Engine.Entitled() {
		fmt.Fprintln(Out, localOnlyNotice)
		return
	}
	err := s.Scheduler.Flush(ctx)
	switch {
	case err == nil:
		fmt.Fprintln(Out, "✓ Синхронизировано")
	case errors.Is(err, syncer.ErrNotEntitled):
		fmt.Fprintln(Out, localOnlyNotice)
	case syncer.IsSkip(err):
		fmt.Fprintf(Out, "• Сохранено локально: %v\n", err)
	default:
		fmt.Fprintf(Out, "× Ошибка синхронизации: %v (изменения сохранены локально)\n", err)
	}
}
