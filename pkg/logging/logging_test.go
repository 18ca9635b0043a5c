package logging

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileLogger(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "console.log")
	f, log, err := FileLogger(logrus.InfoLevel, path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = f.Close() })

	assert.Equal(t, logrus.InfoLevel, log.GetLevel())
	assert.IsType(t, &logrus.JSONFormatter{}, log.Formatter)
	assert.FileExists(t, path)
}

func TestWithRequestFields(t *testing.T) {
	log := ConsoleLogger(logrus.DebugLevel)
	entry := WithRequestFields(context.Background(), log, "req-1")
	assert.Equal(t, "req-1", entry.Data["request-id"])

	bare := WithRequestFields(context.Background(), log, "")
	_, ok := bare.Data["request-id"]
	assert.False(t, ok)
}
