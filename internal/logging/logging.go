// Package logging provides structured logging using Go's slog package.
package logging

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"
)

var (
	// defaultLogger is the global logger instance.
	defaultLogger *slog.Logger
)

func init() {
	// CLI default: human-readable text on stderr, warnings and up.
	InitLogger(LevelWarn, FormatText)
}

// Level represents a log level.
type Level int

const (
	// LevelDebug is for debug messages.
	LevelDebug Level = iota
	// LevelInfo is for informational messages.
	LevelInfo
	// LevelWarn is for warning messages.
	LevelWarn
	// LevelError is for error messages.
	LevelError
)

// Format represents a log output format.
type Format int

const (
	// FormatText outputs logs in human-readable text format.
	FormatText Format = iota
	// FormatJSON outputs logs in JSON format.
	FormatJSON
)

// ParseLevel converts a level name to a Level.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return LevelDebug, nil
	case "info":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	default:
		return LevelInfo, fmt.Errorf("unknown log level %q", s)
	}
}

// ParseFormat converts a format name to a Format.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "text":
		return FormatText, nil
	case "json":
		return FormatJSON, nil
	default:
		return FormatText, fmt.Errorf("unknown log format %q", s)
	}
}

// InitLogger initializes the global logger with the specified level and format.
func InitLogger(level Level, format Format) {
	var slogLevel slog.Level
	switch level {
	case LevelDebug:
		slogLevel = slog.LevelDebug
	case LevelInfo:
		slogLevel = slog.LevelInfo
	case LevelWarn:
		slogLevel = slog.LevelWarn
	case LevelError:
		slogLevel = slog.LevelError
	default:
		slogLevel = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: slogLevel,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			// Customize timestamp format
			if a.Key == slog.TimeKey {
				return slog.String(slog.TimeKey, a.Value.Time().Format(time.RFC3339))
			}
			return a
		},
	}

	var handler slog.Handler
	if format == FormatJSON {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}

	defaultLogger = slog.New(handler)
	slog.SetDefault(defaultLogger)
}

// GetLogger returns the global logger instance.
func GetLogger() *slog.Logger {
	return defaultLogger
}

// Helper functions for common logging patterns

// Debug logs a debug message with optional key-value pairs.
func Debug(msg string, args ...any) {
	defaultLogger.Debug(msg, args...)
}

// Info logs an info message with optional key-value pairs.
func Info(msg string, args ...any) {
	defaultLogger.Info(msg, args...)
}

// Warn logs a warning message with optional key-value pairs.
func Warn(msg string, args ...any) {
	defaultLogger.Warn(msg, args...)
}

// Error logs an error message with optional key-value pairs.
func Error(msg string, args ...any) {
	defaultLogger.Error(msg, args...)
}

// DatabaseOpen logs a database open with its basic geometry.
func DatabaseOpen(path string, pageSize int, pageCount uint32, args ...any) {
	allArgs := []any{
		"path", path,
		"page_size", pageSize,
		"page_count", pageCount,
	}
	allArgs = append(allArgs, args...)
	defaultLogger.Debug("database_open", allArgs...)
}

// QueryPlan logs how a query will be executed.
func QueryPlan(table string, index string, args ...any) {
	scan := "full"
	if index != "" {
		scan = "index"
	}
	allArgs := []any{
		"table", table,
		"scan", scan,
	}
	if index != "" {
		allArgs = append(allArgs, "index", index)
	}
	allArgs = append(allArgs, args...)
	defaultLogger.Debug("query_plan", allArgs...)
}

// FixtureDownload logs a sample database download.
func FixtureDownload(name, url string, size int64, duration time.Duration, args ...any) {
	allArgs := []any{
		"name", name,
		"url", url,
		"size_bytes", size,
		"duration_ms", duration.Milliseconds(),
	}
	allArgs = append(allArgs, args...)
	defaultLogger.Info("fixture_download", allArgs...)
}
