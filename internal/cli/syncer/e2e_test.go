package syncer_test

import (
	"context"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"Notico/internal/cli/api"
	"Notico/internal/cli/model"
	"Notico/internal/cli/service"
	"Notico/internal/cli/store"
	"Notico/internal/cli/syncer"
	"Notico/internal/config"
	"Notico/internal/handlers"
	srvrepo "Notico/internal/repo"
	srvservice "Notico/internal/service"
)

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	db, err := srvrepo.InitDB(filepath.Join(t.TempDir(), "server.db"))
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	logger := zap.NewNop().Sugar()
	users := srvservice.NewUserService(srvrepo.NewUserRepository(db), "pro")
	syncSvc := srvservice.NewSyncService(srvrepo.NewItemRepository(db), srvrepo.NewFolderRepository(db), logger)
	srv := httptest.NewServer(handlers.NewHandler(users, syncSvc, logger, &config.Config{AuthSecret: "e2e"}).Router)
	t.Cleanup(srv.Close)
	return srv
}

// device — отдельная локальная база со своим движком и клиентом.
type device struct {
	items   *service.ItemService
	folders *service.FolderService
	engine  *syncer.Engine
}

func newDevice(t *testing.T, client *api.Client) *device {
	t.Helper()
	s, err := store.Open(context.Background(), filepath.Join(t.TempDir(), "device.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	eng := syncer.NewEngine(s, client, syncer.Options{RequestTimeout: 5 * time.Second})
	eng.SetTier(model.TierPro)
	clock := service.NewClock(nil)
	return &device{
		items:   service.NewItemService(s, nil, clock, nil),
		folders: service.NewFolderService(s, nil, clock, nil),
		engine:  eng,
	}
}

func (d *device) sync(t *testing.T) *syncer.Report {
	t.Helper()
	rep, err := d.engine.SyncNow(context.Background())
	require.NoError(t, err)
	return rep
}

func (d *device) item(t *testing.T, clientID string) *model.Item {
	t.Helper()
	it, err := d.items.Get(context.Background(), clientID)
	require.NoError(t, err)
	return it
}

// Сценарий 4: два устройства правят одну запись офлайн; побеждает та
// правка, что дошла до сервера второй.
func TestTwoDevices_LastWriterWins(t *testing.T) {
	ctx := context.Background()
	srv := newServer(t)

	clientA := api.NewClient(srv.URL, "", 5*time.Second)
	_, err := clientA.Register(ctx, "alice", "pw")
	require.NoError(t, err)
	clientB := api.NewClient(srv.URL, "", 5*time.Second)
	_, err = clientB.Login(ctx, "alice", "pw")
	require.NoError(t, err)

	a := newDevice(t, clientA)
	b := newDevice(t, clientB)

	created, err := a.items.Create(ctx, model.NewItem{Type: model.ItemTypeNote, Title: "Plan", Content: "draft", Tags: []string{"trip"}})
	require.NoError(t, err)
	rep := a.sync(t)
	assert.Equal(t, 1, rep.Pushed)
	assert.NotEmpty(t, a.item(t, created.ClientID).ServerID, "server echo carries the server id")

	_, err = b.engine.InitialSync(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Plan", b.item(t, created.ClientID).Title)

	titleA, titleB := "Plan from A", "Plan from B"
	_, err = a.items.Update(ctx, created.ClientID, model.ItemPatch{Title: &titleA})
	require.NoError(t, err)
	_, err = b.items.Update(ctx, created.ClientID, model.ItemPatch{Title: &titleB})
	require.NoError(t, err)

	a.sync(t)
	b.sync(t)
	a.sync(t)

	for name, d := range map[string]*device{"A": a, "B": b} {
		it := d.item(t, created.ClientID)
		assert.Equal(t, titleB, it.Title, "device %s", name)
		assert.Equal(t, "draft", it.Content, "device %s: untouched fields survive", name)
		n, err := d.engine.PendingCount(ctx)
		require.NoError(t, err)
		assert.Zero(t, n, "device %s queue drained", name)
	}
}

func TestTwoDevices_FolderCascadePropagates(t *testing.T) {
	ctx := context.Background()
	srv := newServer(t)

	clientA := api.NewClient(srv.URL, "", 5*time.Second)
	_, err := clientA.Register(ctx, "bob", "pw")
	require.NoError(t, err)
	clientB := api.NewClient(srv.URL, "", 5*time.Second)
	_, err = clientB.Login(ctx, "bob", "pw")
	require.NoError(t, err)

	a := newDevice(t, clientA)
	b := newDevice(t, clientB)

	f, err := a.folders.Create(ctx, model.NewFolder{Name: "Work"})
	require.NoError(t, err)
	inside, err := a.items.Create(ctx, model.NewItem{Type: model.ItemTypeNote, Title: "memo", FolderID: f.ClientID})
	require.NoError(t, err)
	a.sync(t)

	_, err = b.engine.InitialSync(ctx)
	require.NoError(t, err)
	assert.Equal(t, f.ClientID, b.item(t, inside.ClientID).FolderID)

	_, err = a.folders.Delete(ctx, f.ClientID)
	require.NoError(t, err)
	a.sync(t)

	rep := b.sync(t)
	assert.Positive(t, rep.ItemsMerged)
	assert.True(t, b.item(t, inside.ClientID).Deleted)

	trash, err := b.items.ListDeleted(ctx)
	require.NoError(t, err)
	if assert.Len(t, trash, 1) {
		assert.Equal(t, inside.ClientID, trash[0].ClientID)
	}
}

func TestFreeAccount_ServerRefusesSync(t *testing.T) {
	ctx := context.Background()
	db, err := srvrepo.InitDB(filepath.Join(t.TempDir(), "server.db"))
	require.NoError(t, err)
	defer func() {
		sqlDB, _ := db.DB()
		_ = sqlDB.Close()
	}()
	logger := zap.NewNop().Sugar()
	users := srvservice.NewUserService(srvrepo.NewUserRepository(db), "free")
	syncSvc := srvservice.NewSyncService(srvrepo.NewItemRepository(db), srvrepo.NewFolderRepository(db), logger)
	srv := httptest.NewServer(handlers.NewHandler(users, syncSvc, logger, &config.Config{AuthSecret: "e2e"}).Router)
	defer srv.Close()

	client := api.NewClient(srv.URL, "", 5*time.Second)
	_, err = client.Register(ctx, "free", "pw")
	require.NoError(t, err)

	// клиент ошибочно считает себя pro; сервер всё равно отказывает
	d := newDevice(t, client)
	_, err = d.items.Create(ctx, model.NewItem{Type: model.ItemTypeNote, Title: "x"})
	require.NoError(t, err)

	_, err = d.engine.SyncNow(ctx)
	var se *api.StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, 403, se.Code)

	n, err := d.engine.PendingCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n, "rejected batch keeps the queue")
}
