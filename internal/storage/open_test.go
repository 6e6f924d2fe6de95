package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexanderramin/boardsync/internal/config"
	"github.com/alexanderramin/boardsync/internal/domain"
)

func TestOpen_Local(t *testing.T) {
	cfg := config.Default().Storage
	cfg.LocalPath = filepath.Join(t.TempDir(), "board.db")

	a, closer, err := Open(context.Background(), cfg, nil)
	require.NoError(t, err)
	defer closer.Close()

	assert.Equal(t, KindLocal, KindOf(a))
	a.SaveBoard(context.Background(), domain.DefaultBoard())
	assert.NotNil(t, a.LoadBoard(context.Background()))
}

func TestOpen_RejectsUnknownKinds(t *testing.T) {
	cfg := config.Default().Storage
	cfg.Kind = "floppy"
	_, _, err := Open(context.Background(), cfg, nil)
	assert.Error(t, err)

	cfg.Kind = string(KindRemote)
	cfg.Backend = "carrier-pigeon"
	_, _, err = Open(context.Background(), cfg, nil)
	assert.Error(t, err)
}
