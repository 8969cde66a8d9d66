package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestInit_InvalidLevel(t *testing.T) {
	err := Init(Config{Level: "loud"})
	require.Error(t, err)
}

func TestInit_ReplacesGlobal(t *testing.T) {
	require.NoError(t, Init(Config{Level: "debug", Encoding: "console"}))
	first := Get()

	require.NoError(t, Init(Config{Level: "error"}))
	assert.NotSame(t, first, Get())
	assert.False(t, Get().Core().Enabled(zapcore.DebugLevel))
}

func TestContextValues(t *testing.T) {
	ctx := ContextWithRunID(context.Background(), "run-1")
	ctx = ContextWithExport(ctx, "orders", "orders_col")

	assert.Equal(t, "run-1", ctx.Value(RunIDKey))
	assert.Equal(t, "orders", ctx.Value(ExportKey))
	assert.Equal(t, "orders_col", ctx.Value(CollectionKey))
	assert.NotNil(t, WithContext(ctx))
}
