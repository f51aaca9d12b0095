package logger_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/pdu-collector/pkg/config"
	"github.com/pdu-collector/pkg/logger"
)

// fatalHook 捕获 fatal 日志（不退出进程）
type fatalHook struct {
	called bool
}

func (h *fatalHook) OnWrite(*zapcore.CheckedEntry, []zapcore.Field) {
	h.called = true
}

func TestLoggerLevels(t *testing.T) {
	dir := t.TempDir()
	cfg := &config.ZapLogConfig{
		Level:   "debug",
		Format:  "console",
		Path:    dir,
		MaxSize: 1,
		MaxAge:  1,
	}

	l, err := logger.InitLogger(cfg)
	require.NoError(t, err)
	require.NotNil(t, l)

	logger.SetDefaultCollector("test")
	assert.Equal(t, "test", logger.GetDefaultCollector())

	logger.Debug("debug msg", zap.String("k", "v"))
	logger.Info("info msg")
	logger.Warn("warn msg")
	logger.Error("error msg")

	assert.Panics(t, func() { logger.Panic("panic msg") })

	hook := &fatalHook{}
	logger.GetGlobalLogger().WithOptions(zap.WithFatalHook(hook)).Fatal("fatal msg")
	assert.True(t, hook.called)

	_ = logger.Sync()

	files, err := filepath.Glob(filepath.Join(dir, "pdu-collector-*.log"))
	require.NoError(t, err)
	require.NotEmpty(t, files)
	body, err := os.ReadFile(files[0])
	require.NoError(t, err)
	assert.Contains(t, string(body), `"msg":"info msg"`)
	assert.Contains(t, string(body), `"collector":"test"`)
}
