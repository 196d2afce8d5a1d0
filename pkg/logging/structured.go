// Package logging provides shared logging utilities for jsproc.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"
)

// LogFormat specifies the output format for structured logging.
type LogFormat string

const (
	// FormatJSON outputs logs as JSON objects (machine-readable).
	FormatJSON LogFormat = "json"
	// FormatText outputs logs as human-readable key=value text.
	FormatText LogFormat = "text"
)

// Config holds configuration for structured logging.
type Config struct {
	// Level sets the minimum log level (default: INFO).
	Level slog.Level
	// Format sets the output format (default: JSON).
	Format LogFormat
	// Output sets the writer for log output (default: os.Stderr).
	Output io.Writer
	// File, when set, also writes logs to a size-rotated file.
	File FileConfig
	// AddSource adds source file and line information to logs.
	AddSource bool
	// Component identifies the logging component (e.g., "engine", "gateway").
	Component string
}

// FileConfig configures rotating file output.
type FileConfig struct {
	Path       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// DefaultConfig returns a default logging configuration.
func DefaultConfig() Config {
	return Config{
		Level:     slog.LevelInfo,
		Format:    FormatJSON,
		Output:    os.Stderr,
		AddSource: false,
	}
}

// NewFileWriter returns a rotating writer for cfg.Path.
func NewFileWriter(cfg FileConfig) *lumberjack.Logger {
	maxSize := cfg.MaxSizeMB
	if maxSize <= 0 {
		maxSize = 50
	}
	return &lumberjack.Logger{
		Filename:   cfg.Path,
		MaxSize:    maxSize,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
	}
}

// NewStructuredLogger creates a new structured logger with the given configuration.
func NewStructuredLogger(cfg Config) *slog.Logger {
	if cfg.Output == nil {
		cfg.Output = os.Stderr
	}

	out := cfg.Output
	if cfg.File.Path != "" {
		out = io.MultiWriter(cfg.Output, NewFileWriter(cfg.File))
	}

	opts := &slog.HandlerOptions{
		Level:     cfg.Level,
		AddSource: cfg.AddSource,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				if t, ok := a.Value.Any().(time.Time); ok {
					return slog.String("ts", t.Format(time.RFC3339Nano))
				}
			}
			return a
		},
	}

	var handler slog.Handler
	switch cfg.Format {
	case FormatText:
		handler = slog.NewTextHandler(out, opts)
	default:
		handler = slog.NewJSONHandler(out, opts)
	}

	if cfg.Component != "" {
		handler = &componentHandler{
			Handler:   handler,
			component: cfg.Component,
		}
	}

	return slog.New(handler)
}

// componentHandler wraps a handler to add component field to all records.
type componentHandler struct {
	slog.Handler
	component string
}

func (h *componentHandler) Handle(ctx context.Context, r slog.Record) error {
	r.AddAttrs(slog.String("component", h.component))
	return h.Handler.Handle(ctx, r)
}

func (h *componentHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &componentHandler{
		Handler:   h.Handler.WithAttrs(attrs),
		component: h.component,
	}
}

func (h *componentHandler) WithGroup(name string) slog.Handler {
	return &componentHandler{
		Handler:   h.Handler.WithGroup(name),
		component: h.component,
	}
}

// WithTraceID returns a new logger with the given trace ID.
func WithTraceID(logger *slog.Logger, traceID string) *slog.Logger {
	return logger.With(slog.String("trace_id", traceID))
}

// WithCall returns a logger for one engine call: the trace id plus the
// global function being invoked.
func WithCall(logger *slog.Logger, traceID, function string) *slog.Logger {
	return WithTraceID(logger, traceID).With(slog.String("function", function))
}

// WithComponent returns a new logger with the given component name.
func WithComponent(logger *slog.Logger, component string) *slog.Logger {
	return logger.With(slog.String("component", component))
}

// ParseLevel converts a string level to slog.Level.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// ParseFormat converts a string format to LogFormat.
func ParseFormat(format string) LogFormat {
	switch strings.ToLower(format) {
	case "text", "pretty":
		return FormatText
	default:
		return FormatJSON
	}
}
