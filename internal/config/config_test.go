package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	t.Setenv("BOARDSYNC_HOME", t.TempDir())
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	assert.Equal(t, StorageLocal, cfg.Storage.Kind)
	assert.Equal(t, "default-board", cfg.Storage.BoardID)
	assert.Equal(t, "default-users", cfg.Storage.UsersID)
	assert.Equal(t, 500*time.Millisecond, cfg.Sync.Debounce)
	assert.Equal(t, time.Second, cfg.Sync.EchoGrace)
	assert.Equal(t, time.Minute, cfg.Sync.SweepInterval)
}

func TestLoad_FileThenEnv(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("BOARDSYNC_HOME", dir)
	path := filepath.Join(dir, "config.yaml")
	yaml := "storage:\n  kind: remote\n  backend: redis\n  redis:\n    addr: cache:6379\nsync:\n  debounce: 250ms\n"
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0600))

	t.Setenv("BOARDSYNC_REDIS_ADDR", "override:6379")
	t.Setenv("BOARDSYNC_SWEEP_INTERVAL", "not-a-duration")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, StorageRemote, cfg.Storage.Kind)
	assert.Equal(t, BackendRedis, cfg.Storage.Backend)
	assert.Equal(t, "override:6379", cfg.Storage.Redis.Addr)
	assert.Equal(t, 250*time.Millisecond, cfg.Sync.Debounce)
	assert.Equal(t, time.Minute, cfg.Sync.SweepInterval, "invalid env value is ignored")
}

func TestLoad_MalformedFileFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("storage: [unclosed"), 0600))

	_, err := Load(path)
	assert.Error(t, err)
}
