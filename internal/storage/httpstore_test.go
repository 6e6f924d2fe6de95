package storage

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexanderramin/boardsync/internal/docserver"
	"github.com/alexanderramin/boardsync/internal/domain"
	"github.com/alexanderramin/boardsync/internal/testutil"
)

func newHTTPStore(t *testing.T, secret string) *HTTPDocStore {
	t.Helper()
	srv := docserver.New(testutil.NewTestDB(t), docserver.Options{Secret: "s3cret"})
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		srv.Close()
		ts.Close()
	})
	store, err := NewHTTPDocStore(ts.URL, secret, "test", nil)
	require.NoError(t, err)
	return store
}

func TestHTTPDocStore_GetPut(t *testing.T) {
	store := newHTTPStore(t, "s3cret")
	ctx := context.Background()

	_, err := store.Get(ctx, "boards", "default-board")
	assert.ErrorIs(t, err, ErrDocNotFound)

	require.NoError(t, store.Put(ctx, "boards", "default-board", json.RawMessage(`{"a":1}`)))
	got, err := store.Get(ctx, "boards", "default-board")
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":1}`, string(got))
}

func TestHTTPDocStore_WrongSecret(t *testing.T) {
	store := newHTTPStore(t, "nope")
	err := store.Put(context.Background(), "boards", "default-board", json.RawMessage(`{}`))
	assert.Error(t, err)
}

func TestHTTPDocStore_RemoteAdapterLiveSync(t *testing.T) {
	store := newHTTPStore(t, "s3cret")
	ctx := context.Background()
	writer := NewRemote(store, DefaultDocs(), nil)
	reader := NewRemote(store, DefaultDocs(), nil)

	got := make(chan *domain.Board, 1)
	stop, err := reader.SubscribeBoard(ctx, func(b *domain.Board) { got <- b })
	require.NoError(t, err)
	defer stop()

	b := testutil.NewBoard(testutil.WithTask("column-1", domain.Task{ID: "t1", Content: "a", AssignedUserIDs: []string{}, Icons: []string{}}))
	writer.SaveBoard(ctx, b)

	select {
	case pushed := <-got:
		require.NotNil(t, pushed)
		assert.Equal(t, b, *pushed)
	case <-time.After(5 * time.Second):
		t.Fatal("no push received")
	}
}

func TestNewHTTPDocStore_RejectsBadURL(t *testing.T) {
	_, err := NewHTTPDocStore("ftp://example.com", "", "x", nil)
	assert.Error(t, err)
}

func TestLiveConn_SwapAfterStopClosesNewConn(t *testing.T) {
	store := newHTTPStore(t, "s3cret")
	ctx := context.Background()

	first, err := store.dial(ctx, "boards", "default-board")
	require.NoError(t, err)
	second, err := store.dial(ctx, "boards", "default-board")
	require.NoError(t, err)
	third, err := store.dial(ctx, "boards", "default-board")
	require.NoError(t, err)

	live := &liveConn{conn: first}
	wctx, cancel := context.WithCancel(ctx)
	require.True(t, live.swap(wctx, second))
	assert.Same(t, second, live.get())
	first.Close()

	cancel()
	live.close()
	assert.False(t, live.swap(wctx, third))
	assert.Same(t, second, live.get())

	_, _, err = third.ReadMessage()
	assert.Error(t, err, "conn dialed after stop must be closed")
}
