package repository

import (
	"context"
	"testing"

	"github.com/alexanderramin/boardsync/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKVRepo_PutGetOverwrite(t *testing.T) {
	repo := NewSQLiteKVRepo(testutil.NewTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.Put(ctx, "boardsync-board", `{"a":1}`))
	require.NoError(t, repo.Put(ctx, "boardsync-board", `{"a":2}`))

	got, err := repo.Get(ctx, "boardsync-board")
	require.NoError(t, err)
	assert.Equal(t, `{"a":2}`, got.Value)
	assert.False(t, got.UpdatedAt.IsZero())
}

func TestKVRepo_GetMissing(t *testing.T) {
	repo := NewSQLiteKVRepo(testutil.NewTestDB(t))

	_, err := repo.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestKVRepo_ListByPrefix(t *testing.T) {
	repo := NewSQLiteKVRepo(testutil.NewTestDB(t))
	ctx := context.Background()

	for _, k := range []string{"b-backup-2", "b", "b-backup-1", "users-backup-1", "b_backup%"} {
		require.NoError(t, repo.Put(ctx, k, "{}"))
	}

	entries, err := repo.ListByPrefix(ctx, "b-backup-")
	require.NoError(t, err)
	var keys []string
	for _, e := range entries {
		keys = append(keys, e.Key)
	}
	assert.Equal(t, []string{"b-backup-1", "b-backup-2"}, keys)
}

func TestKVRepo_Delete(t *testing.T) {
	repo := NewSQLiteKVRepo(testutil.NewTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.Put(ctx, "k", "v"))
	require.NoError(t, repo.Delete(ctx, "k"))
	require.NoError(t, repo.Delete(ctx, "k"))

	_, err := repo.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrNotFound)
}
