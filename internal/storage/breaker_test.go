package storage

import (
	"context"
	"testing"
	"time"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexanderramin/boardsync/internal/testutil"
)

func TestBreaker_OpensAfterConsecutiveFailures(t *testing.T) {
	docs := testutil.NewMemDocStore()
	settings := BreakerSettings("test", nil)
	settings.Timeout = time.Hour
	store := WithBreaker(docs, settings)
	ctx := context.Background()

	docs.FailPuts = true
	for i := 0; i < 4; i++ {
		assert.Error(t, store.Put(ctx, "boards", "b", []byte(`{}`)))
	}
	docs.FailPuts = false

	err := store.Put(ctx, "boards", "b", []byte(`{}`))
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, gobreaker.StateOpen, store.(*breakerDocStore).State())
	assert.Empty(t, docs.Puts)
}

func TestBreaker_PassesThrough(t *testing.T) {
	docs := testutil.NewMemDocStore()
	store := WithBreaker(docs, BreakerSettings("test", nil))
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "boards", "b", []byte(`{"x":1}`)))
	got, err := store.Get(ctx, "boards", "b")
	require.NoError(t, err)
	assert.JSONEq(t, `{"x":1}`, string(got))
}
