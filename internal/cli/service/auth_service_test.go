package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"Notico/internal/cli/model"
	"Notico/internal/cli/repo/fs"
	"Notico/internal/dto"
)

type mockAuthRemote struct {
	mock.Mock
}

func (m *mockAuthRemote) Register(ctx context.Context, login, password string) (string, error) {
	args := m.Called(ctx, login, password)
	return args.String(0), args.Error(1)
}

func (m *mockAuthRemote) Login(ctx context.Context, login, password string) (string, error) {
	args := m.Called(ctx, login, password)
	return args.String(0), args.Error(1)
}

func (m *mockAuthRemote) Me(ctx context.Context) (*dto.UserInfo, error) {
	args := m.Called(ctx)
	if u := args.Get(0); u != nil {
		return u.(*dto.UserInfo), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockAuthRemote) SetToken(token string) {
	m.Called(token)
}

func TestAuthService_LoginPersists(t *testing.T) {
	ctx := context.Background()
	st := fs.AuthFSStore{Dir: t.TempDir()}
	remote := new(mockAuthRemote)
	remote.On("Login", ctx, "alice", "pw").Return("tok", nil)
	remote.On("Me", ctx).Return(&dto.UserInfo{ID: 1, Login: "alice", Tier: "pro"}, nil)
	remote.On("SetToken", "tok").Return().Once()
	remote.On("SetToken", "").Return().Once()

	svc := NewAuthService(remote, st, st)
	_, err := svc.CurrentUser()
	assert.ErrorIs(t, err, ErrNotLoggedIn)

	info, err := svc.Login(ctx, "alice", "pw")
	require.NoError(t, err)
	assert.Equal(t, "alice", info.Login)

	tok, err := st.Load()
	require.NoError(t, err)
	assert.Equal(t, "tok", tok)
	login, err := svc.CurrentUser()
	require.NoError(t, err)
	assert.Equal(t, "alice", login)

	require.NoError(t, svc.Logout())
	_, err = svc.CurrentUser()
	assert.ErrorIs(t, err, ErrNotLoggedIn)
	remote.AssertExpectations(t)
}

func TestAuthService_RegisterFailureKeepsNothing(t *testing.T) {
	ctx := context.Background()
	st := fs.AuthFSStore{Dir: t.TempDir()}
	remote := new(mockAuthRemote)
	remote.On("Register", ctx, "bob", "pw").Return("", errors.New("login taken"))

	svc := NewAuthService(remote, st, st)
	_, err := svc.Register(ctx, "bob", "pw")
	require.Error(t, err)
	_, err = st.Load()
	assert.Error(t, err)
	remote.AssertNotCalled(t, "Me", mock.Anything)
	remote.AssertNotCalled(t, "SetToken", mock.Anything)
}

func TestTierOf(t *testing.T) {
	now := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	assert.Equal(t, model.TierFree, TierOf(nil, now))
	assert.Equal(t, model.TierFree, TierOf(&dto.UserInfo{Tier: "free"}, now))
	assert.Equal(t, model.TierPro, TierOf(&dto.UserInfo{Tier: "pro"}, now))
	assert.Equal(t, model.TierPro, TierOf(&dto.UserInfo{Tier: "pro", ProUntil: &future}, now))
	assert.Equal(t, model.TierFree, TierOf(&dto.UserInfo{Tier: "pro", ProUntil: &past}, now))
}
