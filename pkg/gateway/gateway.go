// Package gateway serializes every call into the engine and turns engine
// failures into TranspileErrors.
package gateway

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gridctl/jsproc/pkg/engine"
	"github.com/gridctl/jsproc/pkg/logging"
	"github.com/gridctl/jsproc/pkg/metrics"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

//go:generate mockgen -destination=mock_engine_test.go -package=gateway . Engine
//go:generate mockgen -destination=mock_invoker_test.go -package=gateway github.com/gridctl/jsproc/pkg/engine Invoker

const tracerName = "github.com/gridctl/jsproc/pkg/gateway"

// Engine is the lifecycle owner the gateway calls through.
// *engine.Manager implements it.
type Engine interface {
	Acquire() (engine.Invoker, error)
	Reset()
}

// Gateway holds the process-wide call lock. Calls are totally ordered by
// acquisition of that lock.
type Gateway struct {
	engine  Engine
	logger  *slog.Logger
	metrics *metrics.Metrics
	tracer  trace.Tracer

	mu sync.Mutex
}

// Option configures a Gateway.
type Option func(*Gateway)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(g *Gateway) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// WithMetrics records call counts and durations in m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(g *Gateway) {
		g.metrics = m
	}
}

// WithTracerProvider sets the provider spans are created from. The global
// provider is used otherwise.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(g *Gateway) {
		if tp != nil {
			g.tracer = tp.Tracer(tracerName)
		}
	}
}

// New creates a gateway in front of e.
func New(e Engine, opts ...Option) *Gateway {
	g := &Gateway{
		engine: e,
		logger: logging.NewDiscardLogger(),
		tracer: otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Call invokes fn with args.
func (g *Gateway) Call(ctx context.Context, fn string, args ...any) (any, error) {
	return g.call(ctx, fn, "", args)
}

// CallAndFetch invokes fn with args, then invokes fetchFn with no arguments
// and returns its value. Both calls run under one hold of the call lock.
func (g *Gateway) CallAndFetch(ctx context.Context, fn, fetchFn string, args ...any) (any, error) {
	return g.call(ctx, fn, fetchFn, args)
}

// Reset waits for the in-flight call to finish and then resets the engine.
func (g *Gateway) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.engine.Reset()
}

func (g *Gateway) call(ctx context.Context, fn, fetchFn string, args []any) (result any, err error) {
	traceID := uuid.NewString()
	logger := logging.WithCall(g.logger, traceID, fn)

	ctx, span := g.tracer.Start(ctx, "engine."+fn, trace.WithAttributes(
		attribute.String("jsproc.function", fn),
		attribute.String("jsproc.fetch_function", fetchFn),
		attribute.String("jsproc.trace_id", traceID),
	))
	defer span.End()

	start := time.Now()
	status := metrics.StatusOK
	defer func() {
		d := time.Since(start)
		g.metrics.ObserveCall(fn, status, d)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			logger.Warn("engine call failed", "duration", d, "error", err)
			return
		}
		logger.Debug("engine call finished", "duration", d)
	}()

	g.mu.Lock()
	defer g.mu.Unlock()

	// A context that cannot be built is not a transpile failure.
	inv, err := g.engine.Acquire()
	if err != nil {
		status = metrics.StatusInitError
		return nil, err
	}

	result, err = inv.Invoke(ctx, fn, args...)
	if err != nil {
		status = metrics.StatusError
		return nil, Translate(err)
	}
	if fetchFn == "" {
		return result, nil
	}

	span.AddEvent("fetch result", trace.WithAttributes(attribute.String("jsproc.function", fetchFn)))
	result, err = inv.Invoke(ctx, fetchFn)
	if err != nil {
		status = metrics.StatusError
		return nil, Translate(err)
	}
	return result, nil
}
