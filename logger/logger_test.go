package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, Level(5))
	assert.Equal(t, zapcore.InfoLevel, Level(4))
	assert.Equal(t, zapcore.WarnLevel, Level(3))
	assert.Equal(t, zapcore.ErrorLevel, Level(2))
	assert.Equal(t, zapcore.InfoLevel, Level(0))
}

func TestNewWritesLogFile(t *testing.T) {
	dir := t.TempDir()
	log := New(dir, 5)
	log.Infow("derived version", "NEW_VERSION", "7.3.3")
	log.Debug("step")
	_ = log.Sync()

	data, err := os.ReadFile(filepath.Join(dir, LogFile))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"NEW_VERSION":"7.3.3"`)
	assert.Contains(t, string(data), `"msg":"step"`)
}

func TestNewRespectsLevel(t *testing.T) {
	dir := t.TempDir()
	log := New(dir, 3)
	log.Info("hidden")
	log.Warn("shown")
	_ = log.Sync()

	data, err := os.ReadFile(filepath.Join(dir, LogFile))
	require.NoError(t, err)
	assert.NotContains(t, string(data), "hidden")
	assert.Contains(t, string(data), "shown")
}

func TestNop(t *testing.T) {
	assert.NotPanics(t, func() { Nop().Infow("ignored", "k", "v") })
}
