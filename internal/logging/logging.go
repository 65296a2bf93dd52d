// Package logging builds the process-wide logger. Stage progress goes to
// stdout as slog text lines; components attach themselves with
// logger.With("component", name).
package logging

import (
	"log/slog"
	"os"
	"strings"
)

// New creates the pipeline logger at the given level.
func New(level string) *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: Level(level),
	}))
}

// Level maps a config string to a slog level. Unknown values fall back to
// info so a typo in PIPELINE_LOG_LEVEL never floods the output with debug.
func Level(value string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(value)) {
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
