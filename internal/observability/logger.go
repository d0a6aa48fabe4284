package observability

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// LogSettings is the subset of configuration the logger needs.
type LogSettings interface {
	LogLevelName() string
	LogFormatName() string
}

// NewLogger builds the process logger from LOG_LEVEL and LOG_FORMAT.
func NewLogger(cfg LogSettings) *slog.Logger {
	return NewLoggerTo(os.Stderr, cfg.LogLevelName(), cfg.LogFormatName())
}

// NewLoggerTo builds a logger writing to w. format is "json" or "text";
// anything else falls back to json.
func NewLoggerTo(w io.Writer, level, format string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: ParseLevel(level)}
	if strings.EqualFold(format, "text") {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

// ParseLevel maps a level name to a slog.Level, defaulting to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
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
