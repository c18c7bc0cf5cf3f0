package service

import (
	"Notico/internal/model"
	"Notico/internal/repo"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// мок для repo.UserRepository
type mockUserRepo struct{ mock.Mock }

func (m *mockUserRepo) CreateUser(ctx context.Context, user *model.User) (*model.User, error) {
	args := m.Called(ctx, user)
	if u, ok := args.Get(0).(*model.User); ok {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockUserRepo) GetUserByLogin(ctx context.Context, login string) (*model.User, error) {
	args := m.Called(ctx, login)
	if u, ok := args.Get(0).(*model.User); ok {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockUserRepo) GetUserByID(ctx context.Context, id int64) (*model.User, error) {
	args := m.Called(ctx, id)
	if u, ok := args.Get(0).(*model.User); ok {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}

var _ repo.UserRepository = (*mockUserRepo)(nil)

func TestUserService_Register(t *testing.T) {
	ctx := context.Background()
	m := new(mockUserRepo)
	svc := NewUserService(m, model.TierPro)

	t.Run("ok when login free", func(t *testing.T) {
		m.ExpectedCalls = nil
		m.On("GetUserByLogin", mock.Anything, "john").Return((*model.User)(nil), gorm.ErrRecordNotFound).Once()
		created := &model.User{ID: 10, Login: "john", Tier: model.TierPro}
		m.On("CreateUser", mock.Anything, mock.MatchedBy(func(u *model.User) bool {
			return u.Login == "john" && u.Password != "" && u.Password != "p@ss" && u.Tier == model.TierPro
		})).Return(created, nil).Once()

		user, err := svc.Register(ctx, "john", "p@ss")
		assert.NoError(t, err)
		assert.Equal(t, int64(10), user.ID)
		m.AssertExpectations(t)
	})

	t.Run("conflict when login taken", func(t *testing.T) {
		m.ExpectedCalls = nil
		m.On("GetUserByLogin", mock.Anything, "john").Return(&model.User{ID: 1, Login: "john"}, nil).Once()

		user, err := svc.Register(ctx, "john", "p@ss")
		assert.Nil(t, user)
		assert.ErrorIs(t, err, ErrLoginTaken)
		m.AssertExpectations(t)
	})

	t.Run("lookup failure is wrapped", func(t *testing.T) {
		m.ExpectedCalls = nil
		boom := errors.New("db down")
		m.On("GetUserByLogin", mock.Anything, "john").Return((*model.User)(nil), boom).Once()

		_, err := svc.Register(ctx, "john", "p@ss")
		assert.ErrorIs(t, err, boom)
	})
}

func TestUserService_RegisterFreeTier(t *testing.T) {
	m := new(mockUserRepo)
	svc := NewUserService(m, model.TierFree)

	m.On("GetUserByLogin", mock.Anything, "kate").Return((*model.User)(nil), nil).Once()
	m.On("CreateUser", mock.Anything, mock.MatchedBy(func(u *model.User) bool {
		return u.Tier == model.TierFree
	})).Return(&model.User{ID: 3, Login: "kate", Tier: model.TierFree}, nil).Once()

	user, err := svc.Register(context.Background(), "kate", "pw")
	assert.NoError(t, err)
	assert.Equal(t, model.TierFree, user.Tier)
	m.AssertExpectations(t)
}

func TestUserService_Login(t *testing.T) {
	ctx := context.Background()
	m := new(mockUserRepo)
	svc := NewUserService(m, model.TierPro)

	// готовим хеш для пароля "secret"
	hash, _ := bcrypt.GenerateFromPassword([]byte("secret"), bcrypt.DefaultCost)

	t.Run("ok with valid credentials", func(t *testing.T) {
		m.ExpectedCalls = nil
		m.On("GetUserByLogin", mock.Anything, "alice").Return(&model.User{ID: 2, Login: "alice", Password: string(hash)}, nil).Once()

		user, err := svc.Login(ctx, "alice", "secret")
		assert.NoError(t, err)
		assert.Equal(t, int64(2), user.ID)
		m.AssertExpectations(t)
	})

	t.Run("invalid password", func(t *testing.T) {
		m.ExpectedCalls = nil
		m.On("GetUserByLogin", mock.Anything, "alice").Return(&model.User{ID: 2, Login: "alice", Password: string(hash)}, nil).Once()

		user, err := svc.Login(ctx, "alice", "wrong")
		assert.Nil(t, user)
		assert.ErrorIs(t, err, ErrInvalidCredentials)
		m.AssertExpectations(t)
	})

	t.Run("unknown login", func(t *testing.T) {
		m.ExpectedCalls = nil
		m.On("GetUserByLogin", mock.Anything, "ghost").Return((*model.User)(nil), gorm.ErrRecordNotFound).Once()

		_, err := svc.Login(ctx, "ghost", "x")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})
}

func TestUserService_RequirePro(t *testing.T) {
	ctx := context.Background()
	m := new(mockUserRepo)
	svc := NewUserService(m, model.TierPro)
	now := time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	cases := []struct {
		name string
		user *model.User
		want error
	}{
		{"pro without expiry", &model.User{ID: 1, Tier: model.TierPro}, nil},
		{"pro until future", &model.User{ID: 1, Tier: model.TierPro, ProUntil: &future}, nil},
		{"pro expired", &model.User{ID: 1, Tier: model.TierPro, ProUntil: &past}, ErrNotEntitled},
		{"free", &model.User{ID: 1, Tier: model.TierFree}, ErrNotEntitled},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			m.ExpectedCalls = nil
			m.On("GetUserByID", mock.Anything, int64(1)).Return(tc.user, nil).Once()
			_, err := svc.RequirePro(ctx, 1)
			if tc.want == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tc.want)
			}
		})
	}

	t.Run("missing user", func(t *testing.T) {
		m.ExpectedCalls = nil
		m.On("GetUserByID", mock.Anything, int64(5)).Return((*model.User)(nil), gorm.ErrRecordNotFound).Once()
		_, err := svc.RequirePro(ctx, 5)
		assert.ErrorIs(t, err, ErrUserNotFound)
	})
}

func TestInfo(t *testing.T) {
	until := time.Now().Add(time.Hour)
	info := Info(&model.User{ID: 4, Login: "ann", Tier: model.TierPro, ProUntil: &until})
	assert.Equal(t, int64(4), info.ID)
	assert.Equal(t, "ann", info.Login)
	assert.Equal(t, "pro", info.Tier)
	assert.Equal(t, &until, info.ProUntil)
}
