package logger

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSON(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	log := JSON(&buf, slog.LevelInfo)
	log.Info("hello", "key", "value")

	assert.Contains(t, buf.String(), "hello")
	assert.Contains(t, buf.String(), `"key":"value"`)
	assert.Contains(t, buf.String(), `"level":"INFO"`)
}

func TestLevelFiltering(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	log := Text(&buf, slog.LevelWarn)
	log.Info("should not appear")
	log.Debug("also should not appear")
	assert.Zero(t, buf.Len())

	log.Warn("should appear")
	assert.Contains(t, buf.String(), "should appear")
}

func TestWith(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	log := JSON(&buf, slog.LevelInfo).With("job", "j1").WithGroup("grad")
	log.Info("done", "backend", "CPU")

	assert.Contains(t, buf.String(), `"job":"j1"`)
	assert.Contains(t, buf.String(), `"grad":{"backend":"CPU"}`)
}

func TestOpen(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer

	log, err := Open(&buf, "json", "debug")
	require.NoError(t, err)
	log.Debug("visible")
	assert.Contains(t, buf.String(), `"msg":"visible"`)

	buf.Reset()
	log, err = Open(&buf, "", "")
	require.NoError(t, err)
	log.Info("plain", "k", 1)
	assert.Contains(t, buf.String(), "k=1")

	_, err = Open(&buf, "xml", "info")
	assert.Error(t, err)
}

func TestContextRoundTrip(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	log := JSON(&buf, slog.LevelInfo)

	ctx := WithContext(context.Background(), log)
	FromContext(ctx).Info("roundtrip test")
	assert.Contains(t, buf.String(), "roundtrip test")

	assert.NotNil(t, FromContext(context.Background()))
}

func TestParseLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input    string
		expected slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"unknown", slog.LevelInfo},
		{"", slog.LevelInfo},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.expected, ParseLevel(tc.input), tc.input)
	}
}
