// Package logging holds the global structured logger shared by every
// pipeline stage.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

var logger *slog.Logger

// Init initializes the global structured logger writing to stderr.
func Init(level string) {
	InitWithWriter(level, os.Stderr)
}

// InitWithWriter initializes the global logger against an explicit
// writer. Tests use this to capture output.
func InitWithWriter(level string, w io.Writer) {
	handler := slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: parseLevel(level),
	})
	logger = slog.New(handler)
	slog.SetDefault(logger)
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

// Logger returns the global logger instance.
func Logger() *slog.Logger {
	if logger == nil {
		Init("info")
	}
	return logger
}

// Debug logs a debug message.
func Debug(msg string, args ...any) {
	Logger().Debug(msg, args...)
}

// Info logs an info message.
func Info(msg string, args ...any) {
	Logger().Info(msg, args...)
}

// Warn logs a warning message.
func Warn(msg string, args ...any) {
	Logger().Warn(msg, args...)
}

// Error logs an error message.
func Error(msg string, args ...any) {
	Logger().Error(msg, args...)
}
