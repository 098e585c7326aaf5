package logger

import (
	"io"
	"log/slog"
	"os"
)

// New returns a slog.Logger writing JSON to stdout, with the level chosen by
// the application environment.
func New(env string) *slog.Logger {
	return NewWithWriter(os.Stdout, env)
}

// NewWithWriter is New with an explicit destination.
func NewWithWriter(w io.Writer, env string) *slog.Logger {
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: parseLevel(env),
	})
	return slog.New(handler)
}

func parseLevel(env string) slog.Level {
	switch env {
	case "production", "staging":
		return slog.LevelInfo
	case "quiet":
		return slog.LevelWarn
	default:
		return slog.LevelDebug
	}
}
