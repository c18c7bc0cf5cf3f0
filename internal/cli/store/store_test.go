package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Notico/internal/cli/model"
	"Notico/internal/cli/repo"
)

func TestOpenForUser_CreatesFileAndMigrates(t *testing.T) {
	base := t.TempDir()
	ctx := context.Background()

	s, err := OpenForUser(ctx, base, "john")
	require.NoError(t, err)
	defer s.Close()

	assert.Equal(t, filepath.Join(base, "john", "client.sqlite"), s.Path())
	_, err = os.Stat(s.Path())
	require.NoError(t, err)

	v, err := s.Version(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), v)

	// повторное открытие не ломает уже мигрированную БД
	require.NoError(t, s.Close())
	s2, err := OpenForUser(ctx, base, "john")
	require.NoError(t, err)
	require.NoError(t, s2.Close())
}

func TestOpenForUser_RejectsBadLogin(t *testing.T) {
	for _, login := range []string{"", "..", "a/b", "with space"} {
		_, err := OpenForUser(context.Background(), t.TempDir(), login)
		assert.Error(t, err, login)
	}
}

func TestOpenForUser_FailsWhenBaseIsFile(t *testing.T) {
	f := filepath.Join(t.TempDir(), "not_dir")
	require.NoError(t, os.WriteFile(f, []byte("x"), 0o600))
	_, err := OpenForUser(context.Background(), f, "john")
	assert.Error(t, err)
}

func TestInTx_RollsBackEverything(t *testing.T) {
	ctx := context.Background()
	s, err := Open(ctx, "file:"+t.Name()+"?mode=memory&cache=shared")
	require.NoError(t, err)
	defer s.Close()

	now := time.Now().UTC()
	err = s.InTx(ctx, func(ctx context.Context, r repo.Repositories) error {
		if err := r.Items.Insert(ctx, &model.Item{ClientID: "c1", Type: model.ItemTypeNote, CreatedAt: now, UpdatedAt: now}); err != nil {
			return err
		}
		if err := r.Queue.Append(ctx, &model.QueueEntry{Action: model.ActionCreate, EntityType: model.EntityItem, ClientID: "c1", Timestamp: now}); err != nil {
			return err
		}
		return assert.AnError
	})
	require.ErrorIs(t, err, assert.AnError)

	_, err = s.Repos().Items.Get(ctx, "c1")
	assert.ErrorIs(t, err, repo.ErrNotFound)
	n, err := s.Repos().Queue.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}
