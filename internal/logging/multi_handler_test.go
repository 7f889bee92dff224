package logging

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thoreinstein/docvalidate/internal/errors"
)

type failingHandler struct{ slog.Handler }

func (failingHandler) Handle(context.Context, slog.Record) error {
	return errors.New("disk full")
}

func TestMultiHandler(t *testing.T) {
	var info, debug bytes.Buffer
	h := NewMultiHandler(
		slog.NewTextHandler(&info, &slog.HandlerOptions{Level: slog.LevelInfo}),
		nil,
		slog.NewJSONHandler(&debug, &slog.HandlerOptions{Level: slog.LevelDebug}),
	)
	logger := slog.New(h).With("run", 1).WithGroup("file")

	assert.True(t, h.Enabled(t.Context(), slog.LevelDebug))
	assert.False(t, h.Enabled(t.Context(), LevelTrace))

	logger.Debug("resolved", "path", "a.json")
	logger.Info("checked", "path", "b.json")

	assert.NotContains(t, info.String(), "resolved")
	assert.Contains(t, info.String(), "file.path=b.json")
	assert.Contains(t, debug.String(), `"file":{"path":"a.json"}`)
	assert.Contains(t, debug.String(), `"run":1`)
}

func TestMultiHandler_HandleErrors(t *testing.T) {
	var buf bytes.Buffer
	ok := slog.NewTextHandler(&buf, nil)
	h := NewMultiHandler(failingHandler{ok}, ok)

	err := h.Handle(t.Context(), slog.NewRecord(time.Time{}, slog.LevelInfo, "hello", 0))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	assert.Contains(t, buf.String(), "hello")
}
