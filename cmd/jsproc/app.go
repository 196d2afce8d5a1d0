package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/gridctl/jsproc/pkg/artifact"
	"github.com/gridctl/jsproc/pkg/config"
	"github.com/gridctl/jsproc/pkg/logging"
	"github.com/gridctl/jsproc/pkg/metrics"
	"github.com/gridctl/jsproc/pkg/output"
	"github.com/gridctl/jsproc/pkg/processor"
	"github.com/prometheus/client_golang/prometheus"
)

// app is the state shared by every command that touches the engine.
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	registry *prometheus.Registry
	metrics  *metrics.Metrics
	proc     *processor.Processor
	shutdown func(context.Context) error
}

func loadConfig() (*config.Config, error) {
	if err := config.LoadEnvFiles(flagEnvFiles...); err != nil {
		return nil, err
	}
	if flagEnv != "" {
		if err := os.Setenv(config.EnvOverride, flagEnv); err != nil {
			return nil, err
		}
	}
	return config.LoadOrDefault(flagConfig)
}

func newLogger(cfg *config.Config) *slog.Logger {
	level := cfg.Logging.Level
	if flagLogLevel != "" {
		level = flagLogLevel
	}
	format := cfg.Logging.Format
	if flagLogFormat != "" {
		format = flagLogFormat
	}
	file := cfg.Logging.File
	if flagLogFile != "" {
		file = flagLogFile
	}

	return logging.NewStructuredLogger(logging.Config{
		Level:  logging.ParseLevel(level),
		Format: logging.ParseFormat(format),
		Output: os.Stderr,
		File: logging.FileConfig{
			Path:       file,
			MaxSizeMB:  cfg.Logging.MaxSizeMB,
			MaxBackups: cfg.Logging.MaxBackups,
			MaxAgeDays: cfg.Logging.MaxAgeDays,
		},
		Component: "jsproc",
	})
}

// newApp loads configuration and wires the processor with logging,
// metrics and tracing.
func newApp(ctx context.Context) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	logger := newLogger(cfg)

	tp, shutdown, err := setupTracing(ctx, flagTraceEndpoint)
	if err != nil {
		return nil, fmt.Errorf("setting up tracing: %w", err)
	}

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	proc, err := processor.New(cfg,
		processor.WithLogger(logger),
		processor.WithMetrics(m),
		processor.WithTracerProvider(tp),
	)
	if err != nil {
		_ = shutdown(ctx)
		return nil, err
	}

	return &app{
		cfg:      cfg,
		logger:   logger,
		registry: reg,
		metrics:  m,
		proc:     proc,
		shutdown: shutdown,
	}, nil
}

// Close prints stats when requested, disposes the engine and flushes traces.
func (a *app) Close(ctx context.Context) {
	if flagStats {
		a.printStats()
	}
	a.proc.Close()
	if err := a.shutdown(ctx); err != nil {
		a.logger.Warn("flushing traces failed", "error", err)
	}
}

func (a *app) printStats() {
	printer := output.NewWithWriter(os.Stderr)

	if m := a.proc.Manager(); m != nil {
		printer.Engine(output.EngineSummary{
			State:   m.State().String(),
			Builds:  m.Builds(),
			Bundles: m.Bundles(),
			Timeout: m.Timeout().String(),
			Program: artifact.Path(a.cfg.Engine.ArtifactDir, a.cfg.Production()),
		})
	}

	families, err := a.registry.Gather()
	if err != nil {
		printer.Warn("gathering metrics failed", "error", err)
		return
	}
	printer.Metrics(families)
}
