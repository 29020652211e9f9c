package observability

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"DEBUG":   slog.LevelDebug,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"info":    slog.LevelInfo,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range tests {
		assert.Equal(t, want, parseLevel(in), in)
	}
}

func TestNewLogger_JSONFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, "info", "json")

	logger.Debug("hidden")
	logger.Info("frame loop started", "interval", "16ms")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "frame loop started", rec["msg"])
	assert.Equal(t, "16ms", rec["interval"])
}

func TestNewLogger_TextFormat(t *testing.T) {
	var buf bytes.Buffer
	newLogger(&buf, "debug", "text").Debug("weather data merged", "fallback", true)

	assert.Contains(t, buf.String(), "msg=\"weather data merged\"")
	assert.Contains(t, buf.String(), "fallback=true")
}
