package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"testing"

	charmlog "github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func captureLogger(level LogLevel) (Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	l := NewLogger(&Config{
		Level:      level,
		Output:     &buf,
		TimeFormat: "15:04:05",
	})
	return l, &buf
}

func TestNewLogger(t *testing.T) {
	t.Run("Should write structured messages to the configured output", func(t *testing.T) {
		l, buf := captureLogger(InfoLevel)
		l.Info("store initialized", "driver", "sqlite")

		out := buf.String()
		assert.Contains(t, out, "store initialized")
		assert.Contains(t, out, "driver")
		assert.Contains(t, out, "sqlite")
	})

	t.Run("Should emit valid JSON when configured", func(t *testing.T) {
		var buf bytes.Buffer
		l := NewLogger(&Config{Level: InfoLevel, Output: &buf, JSON: true})
		l.Info("health check failed", "cause", "ping")

		var entry map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
		assert.Equal(t, "health check failed", entry["msg"])
		assert.Equal(t, "ping", entry["cause"])
	})

	t.Run("Should filter messages below the configured level", func(t *testing.T) {
		l, buf := captureLogger(WarnLevel)
		l.Debug("debug noise")
		l.Info("info noise")
		l.Warn("pragma failed")
		l.Error("rollback failed")

		out := buf.String()
		assert.NotContains(t, out, "debug noise")
		assert.NotContains(t, out, "info noise")
		assert.Contains(t, out, "pragma failed")
		assert.Contains(t, out, "rollback failed")
	})

	t.Run("Should emit nothing at DisabledLevel", func(t *testing.T) {
		l, buf := captureLogger(DisabledLevel)
		l.Debug("a")
		l.Info("b")
		l.Warn("c")
		l.Error("d")
		assert.Empty(t, buf.String())
	})

	t.Run("Should fall back to the quiet test config for a nil config under go test", func(t *testing.T) {
		require.True(t, IsTestEnvironment())
		l := NewLogger(nil)
		require.NotNil(t, l)
		l.Info("must not reach test output")
	})
}

func TestLoggerWith(t *testing.T) {
	t.Run("Should return a Logger carrying the extra fields", func(t *testing.T) {
		l, buf := captureLogger(InfoLevel)

		var child Logger = l.With("component", "store", "target", ":memory:")
		child.Info("closed")

		out := buf.String()
		assert.Contains(t, out, "component")
		assert.Contains(t, out, "store")
		assert.Contains(t, out, "target")
		assert.Contains(t, out, "closed")
	})

	t.Run("Should not mutate the parent logger", func(t *testing.T) {
		l, buf := captureLogger(InfoLevel)
		l.With("component", "store")
		l.Info("plain")
		assert.NotContains(t, buf.String(), "component")
	})
}

func TestFromContext(t *testing.T) {
	t.Run("Should return the logger carried by the context", func(t *testing.T) {
		l := NewLogger(TestConfig())
		ctx := ContextWithLogger(t.Context(), l)
		assert.Equal(t, l, FromContext(ctx))
	})

	t.Run("Should fall back to the default logger when none is carried", func(t *testing.T) {
		assert.NotNil(t, FromContext(t.Context()))
	})

	t.Run("Should fall back when the context value has the wrong type", func(t *testing.T) {
		ctx := context.WithValue(t.Context(), LoggerCtxKey, "not a logger")
		assert.NotNil(t, FromContext(ctx))
	})

	t.Run("Should fall back on a nil context", func(t *testing.T) {
		assert.NotNil(t, FromContext(nil)) //nolint:staticcheck // exercising the nil guard
	})
}

func TestLogLevelToCharmlogLevel(t *testing.T) {
	t.Run("Should map every level including unknown", func(t *testing.T) {
		assert.Equal(t, charmlog.DebugLevel, DebugLevel.ToCharmlogLevel())
		assert.Equal(t, charmlog.InfoLevel, InfoLevel.ToCharmlogLevel())
		assert.Equal(t, charmlog.WarnLevel, WarnLevel.ToCharmlogLevel())
		assert.Equal(t, charmlog.ErrorLevel, ErrorLevel.ToCharmlogLevel())
		assert.Equal(t, charmlog.Level(1000), DisabledLevel.ToCharmlogLevel())
		assert.Equal(t, charmlog.InfoLevel, LogLevel("verbose").ToCharmlogLevel())
	})
}

func TestConfigDefaults(t *testing.T) {
	t.Run("Should target stdout at info level by default", func(t *testing.T) {
		cfg := DefaultConfig()
		assert.Equal(t, InfoLevel, cfg.Level)
		assert.Equal(t, os.Stdout, cfg.Output)
		assert.False(t, cfg.JSON)
	})

	t.Run("Should discard everything in the test config", func(t *testing.T) {
		cfg := TestConfig()
		assert.Equal(t, DisabledLevel, cfg.Level)
		assert.Equal(t, io.Discard, cfg.Output)
	})
}
