// Package logging provides structured logging for ginjarator commands over
// log/slog.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
)

// Logger is the structured logging interface used throughout ginjarator.
type Logger interface {
	Debug(ctx context.Context, msg string, fields ...any)
	Info(ctx context.Context, msg string, fields ...any)
	Warn(ctx context.Context, err error, msg string, fields ...any)
	Error(ctx context.Context, err error, msg string, fields ...any)

	With(fields ...any) Logger
	WithComponent(component string) Logger
}

// Config holds logger configuration.
type Config struct {
	Level     slog.Level
	Format    string // "json" or "text"
	Output    io.Writer
	Component string
}

// DefaultConfig returns the default logger configuration: text logs at info
// level on stderr.
func DefaultConfig() *Config {
	return &Config{
		Level:  slog.LevelInfo,
		Format: "text",
		Output: os.Stderr,
	}
}

// ParseLevel converts a --log-level flag value into a slog level.
func ParseLevel(level string) (slog.Level, error) {
	switch level {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", level)
	}
}

type logger struct {
	slogger   *slog.Logger
	component string
}

// New creates a structured logger.
func New(config *Config) Logger {
	if config == nil {
		config = DefaultConfig()
	}
	opts := &slog.HandlerOptions{Level: config.Level}
	var handler slog.Handler
	if config.Format == "json" {
		handler = slog.NewJSONHandler(config.Output, opts)
	} else {
		handler = slog.NewTextHandler(config.Output, opts)
	}
	return &logger{slogger: slog.New(handler), component: config.Component}
}

// NewNop returns a logger that discards everything, for tests.
func NewNop() Logger {
	return New(&Config{Level: slog.LevelError + 1, Output: io.Discard})
}

func (l *logger) log(ctx context.Context, level slog.Level, err error, msg string, fields ...any) {
	if l.component != "" {
		fields = append([]any{"component", l.component}, fields...)
	}
	if err != nil {
		fields = append(fields, "error", err.Error())
	}
	l.slogger.Log(ctx, level, msg, fields...)
}

func (l *logger) Debug(ctx context.Context, msg string, fields ...any) {
	l.log(ctx, slog.LevelDebug, nil, msg, fields...)
}

func (l *logger) Info(ctx context.Context, msg string, fields ...any) {
	l.log(ctx, slog.LevelInfo, nil, msg, fields...)
}

func (l *logger) Warn(ctx context.Context, err error, msg string, fields ...any) {
	l.log(ctx, slog.LevelWarn, err, msg, fields...)
}

func (l *logger) Error(ctx context.Context, err error, msg string, fields ...any) {
	l.log(ctx, slog.LevelError, err, msg, fields...)
}

func (l *logger) With(fields ...any) Logger {
	return &logger{slogger: l.slogger.With(fields...), component: l.component}
}

func (l *logger) WithComponent(component string) Logger {
	return &logger{slogger: l.slogger, component: component}
}
