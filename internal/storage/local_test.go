package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexanderramin/boardsync/internal/clock"
	"github.com/alexanderramin/boardsync/internal/domain"
	"github.com/alexanderramin/boardsync/internal/repository"
	"github.com/alexanderramin/boardsync/internal/testutil"
)

var t0 = time.Date(2025, 3, 1, 9, 30, 15, 123_000_000, time.UTC)

func newTestLocal(t *testing.T) (*Local, *clock.Fake) {
	t.Helper()
	clk := clock.NewFake(t0)
	return NewLocal(testutil.NewTestDB(t), clk, nil), clk
}

func TestLocal_RoundTrip(t *testing.T) {
	l, _ := newTestLocal(t)
	ctx := context.Background()
	b := testutil.NewBoard(
		testutil.WithTask("column-1", domain.Task{ID: "t1", Content: "Buy milk", AssignedUserIDs: []string{"u2", "u1"}, Icons: []string{}, Progress: 40}),
		testutil.WithTask("column-3", domain.Task{ID: "t2", Content: "Stretch", Icons: []string{domain.IconDaily}, MovedToDoneAt: testutil.Ms(t0), LastUpdated: testutil.Ms(t0), BackgroundImageURL: "/images/cats/1.png"}),
	)

	l.SaveBoard(ctx, b)
	got := l.LoadBoard(ctx)
	require.NotNil(t, got)
	assert.Equal(t, b, *got)
}

func TestLocal_LoadMissingIsNil(t *testing.T) {
	l, _ := newTestLocal(t)
	assert.Nil(t, l.LoadBoard(context.Background()))
	assert.Nil(t, l.LoadUsers(context.Background()))
	assert.Nil(t, l.LoadSettings(context.Background()))
}

func TestLocal_BackupKeyFormat(t *testing.T) {
	l, _ := newTestLocal(t)
	assert.Equal(t, "boardsync-board-backup-2025-03-01T09-30-15-123Z", l.BackupKey(KeyBoard))
}

func TestLocal_KeepsFiveNewestBackups(t *testing.T) {
	l, clk := newTestLocal(t)
	ctx := context.Background()

	for i := 0; i < 8; i++ {
		b := domain.DefaultBoard()
		b.ColumnOrder = b.ColumnOrder[:1+i%3]
		l.SaveBoard(ctx, b)
		clk.Advance(time.Second)
	}

	keys, err := l.Backups(ctx, KeyBoard)
	require.NoError(t, err)
	require.Len(t, keys, MaxBackups)
	// Seven saves had a predecessor; the two oldest copies were pruned.
	assert.Equal(t, "boardsync-board-backup-2025-03-01T09-30-22-123Z", keys[0])
	assert.Equal(t, "boardsync-board-backup-2025-03-01T09-30-18-123Z", keys[4])
}

func TestLocal_FallsBackToNewestValidBackup(t *testing.T) {
	l, clk := newTestLocal(t)
	ctx := context.Background()

	older := domain.DefaultBoard()
	newer := domain.DefaultBoard()
	newer.ColumnOrder = []string{"column-3", "column-2", "column-1"}

	l.SaveBoard(ctx, older)
	clk.Advance(time.Second)
	l.SaveBoard(ctx, newer)
	clk.Advance(time.Second)
	l.SaveBoard(ctx, domain.DefaultBoard())

	// Corrupt the primary value behind the adapter's back.
	repo := repository.NewSQLiteKVRepo(l.db)
	require.NoError(t, repo.Put(ctx, KeyBoard, `{"tasks":{}}`))

	got := l.LoadBoard(ctx)
	require.NotNil(t, got)
	assert.Equal(t, newer.ColumnOrder, got.ColumnOrder)
}

func TestLocal_FallsBackWhenPrimaryDoesNotDecode(t *testing.T) {
	l, clk := newTestLocal(t)
	ctx := context.Background()

	good := testutil.NewBoard(testutil.WithTask("column-1", domain.Task{ID: "t1", Content: "Buy milk", AssignedUserIDs: []string{}, Icons: []string{}, Progress: 30}))
	l.SaveBoard(ctx, good)
	clk.Advance(time.Second)
	l.SaveBoard(ctx, good)

	// Right container types, wrong field type.
	repo := repository.NewSQLiteKVRepo(l.db)
	require.NoError(t, repo.Put(ctx, KeyBoard,
		`{"tasks":{"t1":{"id":"t1","content":"x","progress":"high"}},"columns":{},"columnOrder":[]}`))

	got := l.LoadBoard(ctx)
	require.NotNil(t, got)
	assert.Equal(t, good, *got)

	cur := "u1"
	r := domain.Roster{Users: map[string]domain.User{"u1": {ID: "u1", Name: "Ana", Color: "#FF6B6B"}}, CurrentUserID: &cur}
	l.SaveUsers(ctx, r)
	clk.Advance(time.Second)
	l.SaveUsers(ctx, r)
	require.NoError(t, repo.Put(ctx, KeyUsers, `{"users":{"u1":{"id":"u1","name":7}}}`))

	assert.Equal(t, &r, l.LoadUsers(ctx))
}

func TestLocal_RefusesMalformedSave(t *testing.T) {
	l, _ := newTestLocal(t)
	ctx := context.Background()

	l.SaveBoard(ctx, domain.Board{Tasks: map[string]domain.Task{}})
	assert.Nil(t, l.LoadBoard(ctx))

	l.SaveUsers(ctx, domain.Roster{})
	assert.Nil(t, l.LoadUsers(ctx))
}

func TestLocal_UsersAndSettings(t *testing.T) {
	l, _ := newTestLocal(t)
	ctx := context.Background()
	cur := "u1"
	r := domain.Roster{Users: map[string]domain.User{"u1": {ID: "u1", Name: "Ana", Color: "#FF6B6B"}}, CurrentUserID: &cur}

	l.SaveUsers(ctx, r)
	l.SaveSettings(ctx, domain.Settings{AutoDeleteHours: 12, IsEditMode: true})

	assert.Equal(t, &r, l.LoadUsers(ctx))
	assert.Equal(t, &domain.Settings{AutoDeleteHours: 12, IsEditMode: true}, l.LoadSettings(ctx))
	assert.Equal(t, KindLocal, KindOf(l))
}
