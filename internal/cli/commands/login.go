package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"Notico/internal/cli/api"
	"Notico/internal/cli/bootstrap"
	"Notico/internal/cli/model"
	"Notico/internal/cli/service"
	"Notico/internal/cli/store"
	"Notico/internal/config"
	"Notico/internal/dto"
)

type loginCmd struct{}

func (loginCmd) Name() string { return "login" }
func (loginCmd) Description() string {
	return "Войти и переключиться на базу пользователя"
}
func (loginCmd) Usage() string { return "login <login> <password>" }

func (loginCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) != 2 {
		return ErrUsage
	}
	return authenticate(ctx, cfg, args[0], args[1], false)
}

type registerCmd struct{}

func (registerCmd) Name() string { return "register" }
func (registerCmd) Description() string {
	return "Создать аккаунт на сервере и войти"
}
func (registerCmd) Usage() string { return "register <login> <password>" }

func (registerCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) != 2 {
		return ErrUsage
	}
	return authenticate(ctx, cfg, args[0], args[1], true)
}

type logoutCmd struct{}

func (logoutCmd) Name() string { return "logout" }
func (logoutCmd) Description() string {
	return "Выйти; локальные данные остаются на диске"
}
func (logoutCmd) Usage() string { return "logout" }

func (logoutCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) != 0 {
		return ErrUsage
	}
	return withSession(ctx, cfg, func(s *bootstrap.Session) error {
		if err := s.Auth.Logout(); err != nil {
			return err
		}
		fmt.Fprintln(Out, "Logged out")
		return nil
	})
}

func authenticate(ctx context.Context, cfg *config.Config, login, password string, register bool) error {
	if err := store.ValidateLogin(login); err != nil {
		return err
	}
	var info *dto.UserInfo
	err := withSession(ctx, cfg, func(s *bootstrap.Session) error {
		var err error
		if register {
			info, err = s.Auth.Register(ctx, login, password)
		} else {
			info, err = s.Auth.Login(ctx, login, password)
		}
		return err
	})
	if err != nil {
		return authError(err)
	}

	// логин сохранён, сессия откроется уже под новым пользователем
	return withSession(ctx, cfg, func(s *bootstrap.Session) error {
		tier := service.TierOf(info, time.Now())
		if err := s.SetTier(ctx, tier); err != nil {
			return err
		}
		if register {
			fmt.Fprintf(Out, "Registered and logged in as %s (plan: %s)\n", s.Login, tier)
		} else {
			fmt.Fprintf(Out, "Logged in as %s (plan: %s)\n", s.Login, tier)
		}
		if tier != model.TierPro {
			return nil
		}
		rep, err := s.Engine.InitialSync(ctx)
		if err != nil {
			fmt.Fprintf(Out, "× Ошибка начальной синхронизации: %v\n", err)
			return nil
		}
		fmt.Fprintf(Out, "• Получено с сервера: записей %d, папок %d\n", rep.ItemsMerged, rep.FoldersMerged)
		if n, _ := s.Engine.PendingCount(ctx); n > 0 {
			if _, err := s.Engine.SyncNow(ctx); err != nil {
				fmt.Fprintf(Out, "× Ошибка отправки локальных изменений: %v\n", err)
				return nil
			}
			fmt.Fprintf(Out, "✓ Отправлено локальных изменений: %d\n", n)
		}
		return nil
	})
}

func authError(err error) error {
	if errors.Is(err, api.ErrUnauthorized) {
		return errors.New("invalid login or password")
	}
	var se *api.StatusError
	if errors.As(err, &se) && se.Code == http.StatusConflict {
		return errors.New("login already taken")
	}
	return err
}

func init() {
	RegisterCmd(loginCmd{})
	RegisterCmd(registerCmd{})
	RegisterCmd(logoutCmd{})
}
