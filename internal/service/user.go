package service

import (
	"Notico/internal/dto"
	"Notico/internal/model"
	"Notico/internal/repo"
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrLoginTaken         = errors.New("login already taken")
	ErrInvalidCredentials = errors.New("invalid login or password")
	ErrUserNotFound       = errors.New("user not found")
	ErrNotEntitled        = errors.New("sync requires the pro plan")
)

// UserService — регистрация, вход и тариф пользователя.
type UserService struct {
	repo        repo.UserRepository
	defaultTier string
	now         func() time.Time
}

// NewUserService создаёт сервис; новые пользователи получают defaultTier.
func NewUserService(r repo.UserRepository, defaultTier string) *UserService {
	if defaultTier != model.TierFree {
		defaultTier = model.TierPro
	}
	return &UserService{repo: r, defaultTier: defaultTier, now: time.Now}
}

// Register создаёт пользователя с bcrypt-хешем пароля.
func (s *UserService) Register(ctx context.Context, login, password string) (*model.User, error) {
	existing, err := s.repo.GetUserByLogin(ctx, login)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	if existing != nil {
		return nil, ErrLoginTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	user, err := s.repo.CreateUser(ctx, &model.User{Login: login, Password: string(hash), Tier: s.defaultTier})
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

// Login проверяет пароль.
func (s *UserService) Login(ctx context.Context, login, password string) (*model.User, error) {
	user, err := s.repo.GetUserByLogin(ctx, login)
	if errors.Is(err, gorm.ErrRecordNotFound) || (err == nil && user == nil) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

func (s *UserService) GetByID(ctx context.Context, id int64) (*model.User, error) {
	user, err := s.repo.GetUserByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) || (err == nil && user == nil) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	return user, nil
}

// RequirePro returns ErrNotEntitled unless the user is on an active pro plan.
func (s *UserService) RequirePro(ctx context.Context, id int64) (*model.User, error) {
	user, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !user.IsPro(s.now()) {
		return nil, ErrNotEntitled
	}
	return user, nil
}

// Info — представление пользователя для GET /api/user/me.
func Info(u *model.User) dto.UserInfo {
	return dto.UserInfo{ID: u.ID, Login: u.Login, Tier: u.Tier, ProUntil: u.ProUntil}
}
