package handlers_test

import (
	"Notico/internal/config"
	"Notico/internal/handlers"
	"Notico/internal/middleware"
	"Notico/internal/model"
	"Notico/internal/repo"
	"Notico/internal/service"
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const testSecret = "test-secret"

// Minimal mocks
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

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := repo.InitDB(filepath.Join(t.TempDir(), "server.db"))
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

// newMockRouter — роутер с замоканным репозиторием пользователей
func newMockRouter(t *testing.T, ur repo.UserRepository) http.Handler {
	t.Helper()
	db := openTestDB(t)
	cfg := &config.Config{AuthSecret: testSecret}
	logger := zap.NewNop().Sugar()

	userSvc := service.NewUserService(ur, model.TierPro)
	syncSvc := service.NewSyncService(repo.NewItemRepository(db), repo.NewFolderRepository(db), logger)
	return handlers.NewHandler(userSvc, syncSvc, logger, cfg).Router
}

// newDBRouter — роутер целиком на SQLite
func newDBRouter(t *testing.T, defaultTier string) (http.Handler, *gorm.DB) {
	t.Helper()
	db := openTestDB(t)
	cfg := &config.Config{AuthSecret: testSecret, DefaultTier: defaultTier}
	logger := zap.NewNop().Sugar()

	userSvc := service.NewUserService(repo.NewUserRepository(db), cfg.DefaultTier)
	syncSvc := service.NewSyncService(repo.NewItemRepository(db), repo.NewFolderRepository(db), logger)
	return handlers.NewHandler(userSvc, syncSvc, logger, cfg).Router, db
}

func addAuthCookie(t *testing.T, req *http.Request, userID int64, secret string) {
	t.Helper()
	rr := httptest.NewRecorder()
	require.NoError(t, middleware.SetLoginCookie(rr, userID, secret))
	for _, c := range rr.Result().Cookies() {
		req.AddCookie(c)
	}
}

func authCookie(rr *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range rr.Result().Cookies() {
		if c.Name == middleware.CookieName {
			return c
		}
	}
	return nil
}

// register регистрирует пользователя через API и возвращает его cookie
func register(t *testing.T, router http.Handler, login string) *http.Cookie {
	t.Helper()
	rr := doJSON(router, http.MethodPost, "/api/user/register", map[string]string{"login": login, "password": "pw"}, nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	c := authCookie(rr)
	require.NotNil(t, c, "Set-Cookie auth_token expected")
	return c
}

func doJSON(router http.Handler, method, path string, body any, cookie *http.Cookie) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}
