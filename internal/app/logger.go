package app

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/marineevidence/combinedmap/internal/config"
)

// NewLogger builds the process logger from cfg, writing to os.Stderr, and
// installs it with slog.SetDefault.
//
// Format "json" emits one JSON object per line for batch schedulers; "text"
// is for interactive runs and includes source positions.
func NewLogger(cfg config.LogConfig) *slog.Logger {
	logger := slog.New(newHandler(os.Stderr, cfg))
	slog.SetDefault(logger)
	return logger
}

func newHandler(w io.Writer, cfg config.LogConfig) slog.Handler {
	text := strings.EqualFold(cfg.Format, "text")
	opts := &slog.HandlerOptions{
		Level:     parseLevel(cfg.Level),
		AddSource: text,
	}
	if text {
		return slog.NewTextHandler(w, opts)
	}
	return slog.NewJSONHandler(w, opts)
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
