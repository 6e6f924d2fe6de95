package db_test

import (
	"path/filepath"
	"testing"

	"github.com/alexanderramin/boardsync/internal/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrate_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "boardsync.db")

	first, err := db.OpenDB(path)
	require.NoError(t, err)
	_, err = first.Exec(`INSERT INTO kv (key, value, updated_at) VALUES ('k', 'v', 'now')`)
	require.NoError(t, err)
	require.NoError(t, first.Close())

	second, err := db.OpenDB(path)
	require.NoError(t, err)
	defer second.Close()
	require.NoError(t, db.Migrate(second))

	var value string
	require.NoError(t, second.QueryRow(`SELECT value FROM kv WHERE key = 'k'`).Scan(&value))
	assert.Equal(t, "v", value)
}
