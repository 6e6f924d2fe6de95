package logging

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatter_EventFirstThenSortedFields(t *testing.T) {
	var buf bytes.Buffer
	logger := logrus.New()
	logger.SetOutput(&buf)
	logger.SetFormatter(&Formatter{Source: "test"})

	logger.WithFields(logrus.Fields{"event": EventSyncBlockedDataLoss, "tasks": 3, "columns": 2}).Warn("blocked")

	line := buf.String()
	assert.Contains(t, line, "source=test level=WARNING event=SYNC_BLOCKED_DATA_LOSS msg=\"blocked\" columns=2 tasks=3")
}

func TestNew_InvalidLevelFallsBackToInfo(t *testing.T) {
	logger, closer, err := New(Options{Level: "loud"})
	require.NoError(t, err)
	defer closer.Close()
	assert.Equal(t, logrus.InfoLevel, logger.GetLevel())
}

func TestNew_WritesToRotatingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "boardsync.log")
	logger, closer, err := New(Options{Level: "debug", File: path})
	require.NoError(t, err)
	logger.Info("hello")
	require.NoError(t, closer.Close())
	assert.FileExists(t, path)
}
