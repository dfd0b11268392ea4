package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/nfrund/mintari/internal/config"
	"gopkg.in/natefinch/lumberjack.v2"
)

// New builds the application logger from cfg and installs it as the slog
// default. Format "json" is meant for production; anything else falls back to
// text output with source locations. When cfg.File is set, output is teed into
// a size-rotated log file.
func New(cfg config.LogConfig) *slog.Logger {
	var out io.Writer = os.Stdout
	if cfg.File != "" {
		out = io.MultiWriter(os.Stdout, &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    50, // megabytes
			MaxBackups: 5,
			MaxAge:     14, // days
			Compress:   true,
		})
	}

	logger := slog.New(newHandler(out, cfg.Format, ParseLevel(cfg.Level)))
	slog.SetDefault(logger)
	return logger
}

func newHandler(w io.Writer, format string, level slog.Level) slog.Handler {
	switch format {
	case "json":
		return slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	default:
		return slog.NewTextHandler(w, &slog.HandlerOptions{
			Level:     level,
			AddSource: true,
		})
	}
}

// ParseLevel maps a LOG_LEVEL value to a slog level, defaulting to debug.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelDebug
	}
}
