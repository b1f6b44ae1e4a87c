package observability

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/couchcryptid/issue-locator/internal/config"
)

// NewLogger builds the process logger from LOG_LEVEL and LOG_FORMAT.
func NewLogger(cfg *config.Config) *slog.Logger {
	return newLogger(os.Stdout, cfg.LogLevel, cfg.LogFormat)
}

// NewLoggerTo is NewLogger writing to w, for commands whose stdout is data.
func NewLoggerTo(w io.Writer, cfg *config.Config) *slog.Logger {
	return newLogger(w, cfg.LogLevel, cfg.LogFormat)
}

func newLogger(w io.Writer, level, format string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(level)}

	var handler slog.Handler
	switch strings.ToLower(format) {
	case "text":
		handler = slog.NewTextHandler(w, opts)
	default:
		handler = slog.NewJSONHandler(w, opts)
	}
	return slog.New(handler)
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
