package app

import (
	"io"
	"log/slog"
)

// newLogger builds the run's logger without touching slog's default.
// Unknown levels fall back to warn. Text output omits timestamps.
func newLogger(levelStr, formatStr string, outW io.Writer) *slog.Logger {
	level := slog.LevelWarn
	if levelStr != "" {
		var parsed slog.Level
		if err := parsed.UnmarshalText([]byte(levelStr)); err == nil {
			level = parsed
		}
	}

	handlerOpts := &slog.HandlerOptions{Level: level}
	if formatStr == "json" {
		return slog.New(slog.NewJSONHandler(outW, handlerOpts))
	}

	handlerOpts.ReplaceAttr = func(groups []string, a slog.Attr) slog.Attr {
		if len(groups) == 0 && a.Key == slog.TimeKey {
			return slog.Attr{}
		}
		return a
	}
	return slog.New(slog.NewTextHandler(outW, handlerOpts))
}
