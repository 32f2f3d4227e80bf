package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlogLogger_Levels(t *testing.T) {
	var buf bytes.Buffer
	log := New(slog.LevelDebug, &buf)
	ctx := context.Background()

	log.Debug(ctx, "lock taken", "path", "/data/alice.clog")
	log.Info(ctx, "container saved", "sections", 3)
	log.Warn(ctx, "discarding unsaved changes")
	log.Error(ctx, "save failed", "error", "disk full")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 4)
	assert.Contains(t, lines[0], "level=DEBUG")
	assert.Contains(t, lines[0], "path=/data/alice.clog")
	assert.Contains(t, lines[1], "level=INFO")
	assert.Contains(t, lines[1], "sections=3")
	assert.Contains(t, lines[2], "level=WARN")
	assert.Contains(t, lines[3], "level=ERROR")
	assert.Contains(t, lines[3], `error="disk full"`)
}

func TestSlogLogger_With(t *testing.T) {
	var buf bytes.Buffer
	log := New(slog.LevelInfo, &buf).With("component", "session")

	log.Info(context.Background(), "state changed", "state", "unlocked")

	out := buf.String()
	assert.Contains(t, out, "component=session")
	assert.Contains(t, out, "state=unlocked")
}

func TestNew_FiltersBelowLevel(t *testing.T) {
	var buf bytes.Buffer
	log := New(slog.LevelWarn, &buf)
	ctx := context.Background()

	log.Debug(ctx, "dbg")
	log.Info(ctx, "inf")
	log.Warn(ctx, "wrn")

	out := buf.String()
	assert.NotContains(t, out, "msg=dbg")
	assert.NotContains(t, out, "msg=inf")
	assert.Contains(t, out, "msg=wrn")
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{in: "debug", want: slog.LevelDebug},
		{in: "INFO", want: slog.LevelInfo},
		{in: "", want: slog.LevelInfo},
		{in: " warn ", want: slog.LevelWarn},
		{in: "warning", want: slog.LevelWarn},
		{in: "error", want: slog.LevelError},
		{in: "loud", wantErr: true},
	}
	for _, tc := range tests {
		got, err := ParseLevel(tc.in)
		if tc.wantErr {
			assert.Error(t, err, tc.in)
			continue
		}
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, got, tc.in)
	}
}

func TestNop(t *testing.T) {
	var l Logger = Nop()
	assert.NotPanics(t, func() {
		l.With("a", 1).Error(context.TODO(), "dropped")
	})
}
