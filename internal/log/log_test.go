package log

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func observe(t *testing.T) *observer.ObservedLogs {
	t.Helper()
	core, logs := observer.New(level)
	useCore(core)
	t.Cleanup(func() { SetLevel(LevelInfo) })
	return logs
}

func TestInfoCarriesKeyValues(t *testing.T) {
	logs := observe(t)

	Info("calendar rendered", "view", "week", "blocks", 3)

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "calendar rendered", entry.Message)
	assert.Equal(t, zapcore.InfoLevel, entry.Level)
	assert.Equal(t, "week", entry.ContextMap()["view"])
	assert.EqualValues(t, 3, entry.ContextMap()["blocks"])
}

func TestErrorPrependsErr(t *testing.T) {
	logs := observe(t)

	Error("fixture load failed", errors.New("boom"), "path", "fixture.yaml")

	require.Equal(t, 1, logs.Len())
	ctx := logs.All()[0].ContextMap()
	assert.Equal(t, "boom", ctx["err"])
	assert.Equal(t, "fixture.yaml", ctx["path"])
}

func TestSetLevelFilters(t *testing.T) {
	logs := observe(t)

	Debug("hidden")
	SetLevel(LevelDebug)
	Debug("shown")
	SetLevel(LevelError)
	Warn("hidden too")

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "shown", logs.All()[0].Message)
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, LevelDebug, ParseLevel("debug"))
	assert.Equal(t, LevelWarn, ParseLevel(" WARN "))
	assert.Equal(t, LevelError, ParseLevel("error"))
	assert.Equal(t, LevelInfo, ParseLevel("verbose"))
}
