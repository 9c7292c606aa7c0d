package log

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want Level
	}{
		{"debug", LevelDebug},
		{"", LevelInfo},
		{"INFO", LevelInfo},
		{"warning", LevelWarn},
		{"error", LevelError},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}

	_, err := ParseLevel("loud")
	assert.Error(t, err)
}

func TestFieldsReachZap(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := FromZap(zap.New(core), LevelDebug)

	l.With(String("component", "test")).Warn("dropped",
		Int("id", 7),
		Uint64("seq", 3),
		Float64("dt", 0.5),
		Bool("owned", true),
		Duration("took", time.Millisecond),
		Err(errors.New("boom")),
	)

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "dropped", entry.Message)
	assert.Equal(t, zapcore.WarnLevel, entry.Level)

	ctx := entry.ContextMap()
	assert.Equal(t, "test", ctx["component"])
	assert.Equal(t, int64(7), ctx["id"])
	assert.Equal(t, uint64(3), ctx["seq"])
	assert.Equal(t, true, ctx["owned"])
	assert.Equal(t, "boom", ctx["error"])
}

func TestNopIsSilent(t *testing.T) {
	l := Nop()
	assert.False(t, l.Enabled(LevelError))
	l.Error("ignored", String("k", "v"))
}

func TestSetLevel(t *testing.T) {
	l, err := New(LevelWarn, "json")
	require.NoError(t, err)
	assert.False(t, l.Enabled(LevelInfo))

	l.SetLevel(LevelDebug)
	assert.True(t, l.Enabled(LevelDebug))
}
