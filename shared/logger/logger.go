package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

var Log *slog.Logger

func init() {
	// Safe defaults for tests; main calls Initialize with configured values.
	Initialize("info", false)
}

// Initialize sets up the global logger writing to stdout.
func Initialize(level string, useJSON bool) {
	InitializeWithWriter(os.Stdout, level, useJSON)
}

// InitializeWithWriter sets up the global logger with the given sink, level and format.
func InitializeWithWriter(w io.Writer, level string, useJSON bool) {
	opts := &slog.HandlerOptions{
		Level:     ParseLevel(level),
		AddSource: true,
	}

	var handler slog.Handler
	if useJSON {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	Log = slog.New(handler)
	slog.SetDefault(Log)
}

// Component returns a child logger tagged with the component name.
func Component(name string) *slog.Logger {
	return Log.With("component", name)
}

// ParseLevel converts a config level string to slog.Level, defaulting to Info.
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
