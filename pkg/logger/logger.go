// Package logger provides structured logging functionality using slog
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
)

// ContextKey is the type for context keys
type ContextKey string

const (
	// DagRunIDKey is the context key correlating log lines with one
	// scheduler-assigned dag_run_id across a tick.
	DagRunIDKey ContextKey = "dag_run_id"
)

// Config holds logger configuration
type Config struct {
	Level      string
	Format     string
	Output     string
	Filename   string
	MaxSize    int
	MaxBackups int
	MaxAge     int
	Compress   bool
}

// NewLogger creates a new structured logger based on configuration
func NewLogger(cfg Config) *slog.Logger {
	level := ParseLevel(cfg.Level)
	writer := SetupWriter(cfg)

	var handler slog.Handler
	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: level == slog.LevelDebug,
	}

	if strings.ToLower(cfg.Format) == "json" {
		handler = slog.NewJSONHandler(writer, opts)
	} else {
		handler = slog.NewTextHandler(writer, opts)
	}

	return slog.New(handler)
}

// ParseLevel parses string log level to slog.Level
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "info", "":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// SetupWriter configures the output writer based on configuration
func SetupWriter(cfg Config) io.Writer {
	switch strings.ToLower(cfg.Output) {
	case "file":
		if cfg.Filename == "" {
			return os.Stdout
		}
		return &lumberjack.Logger{
			Filename:   cfg.Filename,
			MaxSize:    cfg.MaxSize, // megabytes
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAge, // days
			Compress:   cfg.Compress,
		}
	case "stderr":
		return os.Stderr
	case "stdout", "":
		return os.Stdout
	default:
		return os.Stdout
	}
}

// WithDagRunID adds the tick's dag_run_id to context.
func WithDagRunID(ctx context.Context, dagRunID string) context.Context {
	return context.WithValue(ctx, DagRunIDKey, dagRunID)
}

// GetDagRunID extracts the dag_run_id from context, if any.
func GetDagRunID(ctx context.Context) string {
	if dagRunID, ok := ctx.Value(DagRunIDKey).(string); ok {
		return dagRunID
	}
	return ""
}

// FromContext returns a logger with the request's dag_run_id attached,
// so every line for one tick can be grepped by a single correlation ID.
func FromContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if dagRunID := GetDagRunID(ctx); dagRunID != "" {
		return logger.With("dag_run_id", dagRunID)
	}
	return logger
}
