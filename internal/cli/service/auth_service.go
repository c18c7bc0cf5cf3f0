package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"Notico/internal/cli/model"
	"Notico/internal/cli/repo"
	"Notico/internal/dto"
)

// ErrNotLoggedIn — на устройстве нет сохранённого пользователя.
var ErrNotLoggedIn = errors.New("not logged in")

// AuthRemote is the part of the server API used for authentication.
type AuthRemote interface {
	Register(ctx context.Context, login, password string) (string, error)
	Login(ctx context.Context, login, password string) (string, error)
	Me(ctx context.Context) (*dto.UserInfo, error)
	// SetToken switches the credentials used by later calls; "" drops them.
	SetToken(token string)
}

// AuthService описывает юзкейс-уровень аутентификации для CLI: token and
// login are kept in the fs stores, the plan is read from the server.
type AuthService struct {
	remote AuthRemote
	tokens repo.TokenStore
	users  repo.UserContextStore
}

func NewAuthService(remote AuthRemote, tokens repo.TokenStore, users repo.UserContextStore) *AuthService {
	return &AuthService{remote: remote, tokens: tokens, users: users}
}

// Register создаёт аккаунт и сразу входит в него.
func (s *AuthService) Register(ctx context.Context, login, password string) (*dto.UserInfo, error) {
	token, err := s.remote.Register(ctx, login, password)
	if err != nil {
		return nil, err
	}
	return s.persist(ctx, login, token)
}

// Login логирование пользователя.
func (s *AuthService) Login(ctx context.Context, login, password string) (*dto.UserInfo, error) {
	token, err := s.remote.Login(ctx, login, password)
	if err != nil {
		return nil, err
	}
	return s.persist(ctx, login, token)
}

func (s *AuthService) persist(ctx context.Context, login, token string) (*dto.UserInfo, error) {
	if err := s.tokens.Save(token); err != nil {
		return nil, fmt.Errorf("saving auth: %w", err)
	}
	if err := s.users.SaveLogin(login); err != nil {
		return nil, fmt.Errorf("saving login: %w", err)
	}
	s.remote.SetToken(token)
	return s.remote.Me(ctx)
}

// Logout очищает локальный контекст аутентификации. Local data of the user
// stays on disk.
func (s *AuthService) Logout() error {
	if err := s.tokens.Clear(); err != nil {
		return err
	}
	s.remote.SetToken("")
	return s.users.ClearLogin()
}

// CurrentUser возвращает логин текущего пользователя, если он установлен.
func (s *AuthService) CurrentUser() (string, error) {
	login, err := s.users.LoadLogin()
	if err != nil {
		return "", ErrNotLoggedIn
	}
	return login, nil
}

// Account asks the server for the current user and plan.
func (s *AuthService) Account(ctx context.Context) (*dto.UserInfo, error) {
	return s.remote.Me(ctx)
}

// TierOf derives the effective plan: pro only while the subscription lasts.
func TierOf(info *dto.UserInfo, now time.Time) model.Tier {
	if info == nil || model.Tier(info.Tier) != model.TierPro {
		return model.TierFree
	}
	if info.ProUntil != nil && !info.ProUntil.After(now) {
		return model.TierFree
	}
	return model.TierPro
}
