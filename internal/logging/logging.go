// Package logging builds the structured loggers used by the command-line
// driver. Library code takes a *slog.Logger and never configures one.
package logging

import (
	"io"
	"log/slog"
	"strings"

	"gointegral/internal/errors"

	"github.com/lmittmann/tint"
)

// LevelTrace sits below debug and enables per-batch chatter.
const LevelTrace = slog.LevelDebug - 4

// New returns a tint-backed logger writing to w at the given level.
func New(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(tint.NewHandler(w, &tint.Options{
		Level:      level,
		TimeFormat: "15:04:05",
		NoColor:    true,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.LevelKey && len(groups) == 0 {
				if lvl, ok := a.Value.Any().(slog.Level); ok && lvl == LevelTrace {
					return slog.String(slog.LevelKey, "TRC")
				}
			}
			return a
		},
	}))
}

// Discard returns a logger that drops every record.
func Discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// ParseLevel accepts ERROR, WARN, INFO, DEBUG and TRACE in any case.
// An empty string means INFO.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "ERROR":
		return slog.LevelError, nil
	case "WARN", "WARNING":
		return slog.LevelWarn, nil
	case "", "INFO":
		return slog.LevelInfo, nil
	case "DEBUG":
		return slog.LevelDebug, nil
	case "TRACE":
		return LevelTrace, nil
	default:
		return slog.LevelInfo, errors.ConfigInvalid("unknown log level " + s)
	}
}
