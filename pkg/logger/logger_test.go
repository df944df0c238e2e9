package logger

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, RequestID(ctx))

	ctx = WithRequestID(ctx, "req-1")
	ctx = WithService(ctx, "registry")
	ctx = WithMessageID(ctx, "msg-1")

	assert.Equal(t, "req-1", RequestID(ctx))
	assert.Equal(t, "registry", ctx.Value(serviceKey))
	assert.Equal(t, "msg-1", ctx.Value(messageIDKey))
}

func TestLevelFromEnv(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, levelFromEnv("debug"))
	assert.Equal(t, slog.LevelWarn, levelFromEnv("WARN"))
	assert.Equal(t, slog.LevelInfo, levelFromEnv(""))
	assert.Equal(t, slog.LevelInfo, levelFromEnv("verbose"))
}
