package observe

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

// RailMeta contains metadata about a guard rail for telemetry purposes.
type RailMeta struct {
	Name     string // Rail name (required)
	Executor string // Executor strategy, e.g. "pool" or "loop" (optional)
	Owner    string // Owning subsystem or team (optional)
}

// SpanName returns the deterministic span name for work guarded by this
// rail. Format: rail.exec.<name>
func (m RailMeta) SpanName() string {
	return "rail.exec." + m.Name
}

// Tracer wraps OpenTelemetry tracing with rail-specific span management.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Context: StartSpan must honor cancellation/deadlines.
// - Errors: EndSpan must be best-effort and must not panic.
type Tracer interface {
	// StartSpan starts a new span for guarded work.
	StartSpan(ctx context.Context, meta RailMeta) (context.Context, trace.Span)

	// EndSpan ends the span, recording any error.
	EndSpan(span trace.Span, err error)
}

// tracerImpl is the concrete implementation of Tracer.
type tracerImpl struct {
	tracer trace.Tracer
}

// newTracer creates a new Tracer wrapping the given OpenTelemetry tracer.
func newTracer(t trace.Tracer) Tracer {
	return &tracerImpl{tracer: t}
}

// StartSpan starts a new span with rail metadata as attributes.
func (t *tracerImpl) StartSpan(ctx context.Context, meta RailMeta) (context.Context, trace.Span) {
	attrs := []attribute.KeyValue{
		attribute.String("rail.name", meta.Name),
		attribute.Bool("rail.error", false), // Updated in EndSpan if error
	}
	if meta.Executor != "" {
		attrs = append(attrs, attribute.String("rail.executor", meta.Executor))
	}
	if meta.Owner != "" {
		attrs = append(attrs, attribute.String("rail.owner", meta.Owner))
	}

	ctx, span := t.tracer.Start(ctx, meta.SpanName(),
		trace.WithAttributes(attrs...),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
	return ctx, span
}

// EndSpan ends the span and records the error status if present.
func (t *tracerImpl) EndSpan(span trace.Span, err error) {
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		span.SetAttributes(attribute.Bool("rail.error", true))
		span.RecordError(err)
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

// noopTracer is a tracer that does nothing.
type noopTracer struct {
	noop trace.Tracer
}

// newNoopTracer creates a no-op tracer.
func newNoopTracer() Tracer {
	return &noopTracer{
		noop: tracenoop.NewTracerProvider().Tracer("noop"),
	}
}

func (t *noopTracer) StartSpan(ctx context.Context, meta RailMeta) (context.Context, trace.Span) {
	return t.noop.Start(ctx, meta.SpanName())
}

func (t *noopTracer) EndSpan(span trace.Span, err error) {
	span.End()
}
