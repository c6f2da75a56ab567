package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger_AddsMetadataAndContext(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(Config{
		Level:       "info",
		Format:      "json",
		Output:      &buf,
		ServiceName: "ticket-reports",
		Environment: "test",
	})

	ctx := WithRequestID(context.Background(), "req-1")
	ctx = WithSessionID(ctx, "sess-1")
	ctx = WithSubject(ctx, "viewer")
	logger.InfoContext(ctx, "report built", "tickets", 3)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "report built", entry["msg"])
	assert.Equal(t, "ticket-reports", entry["service"])
	assert.Equal(t, "test", entry["environment"])
	assert.Equal(t, "req-1", entry["request_id"])
	assert.Equal(t, "sess-1", entry["session_id"])
	assert.Equal(t, "viewer", entry["subject"])
	assert.Equal(t, float64(3), entry["tickets"])
}

func TestNewLogger_Level(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(Config{Level: "warn", Format: "text", Output: &buf})

	logger.Info("hidden")
	logger.Warn("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("debug"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warn"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("verbose"))
}

func TestLoggerFromContext(t *testing.T) {
	var buf bytes.Buffer
	base := slog.New(slog.NewTextHandler(&buf, nil))

	logger := LoggerFromContext(WithSessionID(context.Background(), "sess-9"), base)
	logger.Info("live client connected")

	assert.Contains(t, buf.String(), "session_id=sess-9")
	assert.Same(t, base, LoggerFromContext(context.Background(), base))
}
