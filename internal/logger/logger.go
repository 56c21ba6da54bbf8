package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// New returns the process logger. Production and staging emit JSON; other
// environments get human-readable text. level overrides the environment
// default when it names a slog level.
func New(env, level string) *slog.Logger {
	return newLogger(os.Stdout, env, level)
}

func newLogger(w io.Writer, env, level string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(env, level)}

	var handler slog.Handler
	switch env {
	case "production", "staging":
		handler = slog.NewJSONHandler(w, opts)
	default:
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler).With("service", "bibliotheca", "env", env)
}

func parseLevel(env, level string) slog.Level {
	var lvl slog.Level
	if level != "" && lvl.UnmarshalText([]byte(strings.TrimSpace(level))) == nil {
		return lvl
	}
	switch env {
	case "production", "staging":
		return slog.LevelInfo
	default:
		return slog.LevelDebug
	}
}
