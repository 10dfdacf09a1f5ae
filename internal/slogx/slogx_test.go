package slogx

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel(" DEBUG "))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("verbose"))
}

func TestNewFormat(t *testing.T) {
	var buf bytes.Buffer
	New(&buf, "info", "json").Info("bars written", slog.Int("rows", 3))
	assert.Contains(t, buf.String(), `"rows":3`)

	buf.Reset()
	New(&buf, "info", "text").Debug("hidden")
	assert.Empty(t, buf.String())

	buf.Reset()
	New(&buf, "debug", "").Debug("shown", slog.String("stage", "bars"))
	assert.Contains(t, buf.String(), "stage=bars")
}
