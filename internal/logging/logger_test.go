package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/LouYuanbo1/gridharvester/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNewLoggerWritesToFile(t *testing.T) {
	cfg := &config.Config{}
	cfg.Log.Level = "warn"
	cfg.Log.OutputPath = filepath.Join(t.TempDir(), "harvest.log")

	logger, err := NewLogger(cfg)
	require.NoError(t, err)
	assert.False(t, logger.Core().Enabled(zapcore.InfoLevel))
	assert.True(t, logger.Core().Enabled(zapcore.WarnLevel))

	logger.Warn("数量不一致")
	_ = logger.Sync()

	data, err := os.ReadFile(cfg.Log.OutputPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "数量不一致")
}

func TestNewLoggerRejectsUnknownLevel(t *testing.T) {
	cfg := &config.Config{}
	cfg.Log.Level = "chatty"
	_, err := NewLogger(cfg)
	assert.Error(t, err)
}
