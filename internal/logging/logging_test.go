package logging

import (
	"bytes"
	"log/slog"
	"testing"

	"gointegral/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"", slog.LevelInfo},
		{"info", slog.LevelInfo},
		{" DEBUG ", slog.LevelDebug},
		{"warn", slog.LevelWarn},
		{"Warning", slog.LevelWarn},
		{"ERROR", slog.LevelError},
		{"trace", LevelTrace},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := ParseLevel("loud")
	assert.True(t, errors.Is(err, errors.ErrConfigInvalid))
}

func TestNewFiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, slog.LevelWarn)

	logger.Info("hidden")
	logger.Warn("shown", "method", "quadrature")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "shown")
	assert.Contains(t, out, "method=quadrature")
}

func TestTraceLevelLabel(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, LevelTrace)

	logger.Log(t.Context(), LevelTrace, "batch done")
	assert.Contains(t, buf.String(), "TRC")
	assert.Contains(t, buf.String(), "batch done")
}
