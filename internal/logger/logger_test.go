package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yuirsilva/deadline-daddy/internal/config"
)

func TestNewWritesRotatingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")

	log, flush, err := New(config.Log{Level: "DEBUG", File: path, MaxSizeMB: 1, MaxBackups: 1, MaxAgeDays: 1})
	require.NoError(t, err)
	log.Info("sweep finished")
	flush()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"sweep finished"`)
	assert.Contains(t, string(data), `"level":"INFO"`)
}

func TestNewStdoutOnly(t *testing.T) {
	log, flush, err := New(config.Log{})
	require.NoError(t, err)
	assert.NotNil(t, log)
	flush()
}

func TestNewInvalidLevel(t *testing.T) {
	_, _, err := New(config.Log{Level: "loud"})
	assert.Error(t, err)
}
