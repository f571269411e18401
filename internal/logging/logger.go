// Package logging provides structured logging configuration using log/slog.
//
// Each command run gets a run ID carried in its context, so log entries from
// one invocation (parsing, storing, webhook deliveries) can be correlated.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/google/uuid"
)

// Setup configures the global slog logger based on level and format.
//
// Level values: "debug", "info", "warn", "error" (default: "info")
// Format values: "text", "json" (default: "text")
func Setup(level, format string, w io.Writer) error {
	lvl, err := ParseLevel(level)
	if err != nil {
		return err
	}
	opts := &slog.HandlerOptions{Level: lvl}

	var handler slog.Handler
	switch strings.ToLower(format) {
	case "", "text":
		handler = slog.NewTextHandler(w, opts)
	case "json":
		handler = slog.NewJSONHandler(w, opts)
	default:
		return fmt.Errorf("unknown log format %q (use text or json)", format)
	}

	slog.SetDefault(slog.New(handler))
	return nil
}

// ParseLevel converts a string log level to slog.Level.
func ParseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q (use debug, info, warn or error)", level)
	}
}

type runIDKey struct{}

// WithRunID returns a context carrying a fresh run ID.
func WithRunID(ctx context.Context) context.Context {
	return context.WithValue(ctx, runIDKey{}, uuid.NewString())
}

// RunID returns the run ID stored in ctx, or "".
func RunID(ctx context.Context) string {
	id, _ := ctx.Value(runIDKey{}).(string)
	return id
}

// FromContext returns the default logger, tagged with the run ID when ctx
// carries one.
func FromContext(ctx context.Context) *slog.Logger {
	logger := slog.Default()
	if id := RunID(ctx); id != "" {
		logger = logger.With("run_id", id)
	}
	return logger
}

// WithFields returns a logger with additional structured fields.
//
//	fileLogger := logging.WithFields(ctx, "path", path)
//	fileLogger.Debug("parsed export", "messages", n)
func WithFields(ctx context.Context, args ...any) *slog.Logger {
	return FromContext(ctx).With(args...)
}
