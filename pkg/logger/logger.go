package logger

import (
	"log/slog"
	"os"
	"strings"
)

// Log is the process-wide logger. It writes through slog's default handler
// until Init is called.
var Log = slog.Default()

// Init switches Log to JSON output on stdout at the given level
// (debug, info, warn, error; anything else means info).
func Init(level string) {
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: ParseLevel(level),
	})
	Log = slog.New(handler)
}

// ParseLevel maps a level name to a slog level
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
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
