package observability

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/couchcryptid/lst-etl/internal/config"
)

func restoreDefaultLogger(t *testing.T) {
	t.Helper()
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })
}

func TestNewLogger_Text(t *testing.T) {
	restoreDefaultLogger(t)
	logger := NewLogger(&config.Config{LogLevel: "warn", LogFormat: "text"})

	assert.IsType(t, &slog.TextHandler{}, logger.Handler())
	assert.False(t, logger.Enabled(context.Background(), slog.LevelInfo))
	assert.True(t, logger.Enabled(context.Background(), slog.LevelWarn))
	assert.Same(t, logger, slog.Default())
}

func TestNewLogger_JSON(t *testing.T) {
	restoreDefaultLogger(t)
	logger := NewLogger(&config.Config{LogLevel: "DEBUG", LogFormat: "json"})

	assert.IsType(t, &slog.JSONHandler{}, logger.Handler())
	assert.True(t, logger.Enabled(context.Background(), slog.LevelDebug))
}

func TestNewLogger_UnknownLevelIsInfo(t *testing.T) {
	restoreDefaultLogger(t)
	logger := NewLogger(&config.Config{LogLevel: "bogus"})

	assert.False(t, logger.Enabled(context.Background(), slog.LevelDebug))
	assert.True(t, logger.Enabled(context.Background(), slog.LevelInfo))
}
