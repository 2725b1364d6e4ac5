package observe

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// RailMetrics records guard-rail events.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Context: must return quickly; the release hot path calls this.
// - Errors: implementations must not panic.
type RailMetrics interface {
	// RecordOutcome records one released operation with its outcome and
	// latency.
	RecordOutcome(ctx context.Context, meta RailMeta, outcome string, latency time.Duration)

	// RecordRejection records one denied acquire with its reason.
	RecordRejection(ctx context.Context, meta RailMeta, reason string)
}

// metricsImpl is the concrete implementation of RailMetrics.
type metricsImpl struct {
	meter        metric.Meter
	resultCount  metric.Int64Counter
	rejectCount  metric.Int64Counter
	durationHist metric.Float64Histogram
}

// NewRailMetrics creates a RailMetrics instance recording into the given
// meter.
func NewRailMetrics(meter metric.Meter) (RailMetrics, error) {
	resultCount, err := meter.Int64Counter(
		"rail.results.total",
		metric.WithDescription("Total operations released with a result"),
		metric.WithUnit("{operation}"),
	)
	if err != nil {
		return nil, err
	}

	rejectCount, err := meter.Int64Counter(
		"rail.rejected.total",
		metric.WithDescription("Total acquires denied by back-pressure"),
		metric.WithUnit("{rejection}"),
	)
	if err != nil {
		return nil, err
	}

	durationHist, err := meter.Float64Histogram(
		"rail.latency_ms",
		metric.WithDescription("Guarded operation latency in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	return &metricsImpl{
		meter:        meter,
		resultCount:  resultCount,
		rejectCount:  rejectCount,
		durationHist: durationHist,
	}, nil
}

// RecordOutcome records a completed operation.
func (m *metricsImpl) RecordOutcome(ctx context.Context, meta RailMeta, outcome string, latency time.Duration) {
	opt := metric.WithAttributes(
		attribute.String("rail.name", meta.Name),
		attribute.String("rail.outcome", outcome),
	)
	m.resultCount.Add(ctx, 1, opt)
	m.durationHist.Record(ctx, float64(latency.Nanoseconds())/1e6, opt)
}

// RecordRejection records a denied acquire.
func (m *metricsImpl) RecordRejection(ctx context.Context, meta RailMeta, reason string) {
	m.rejectCount.Add(ctx, 1, metric.WithAttributes(
		attribute.String("rail.name", meta.Name),
		attribute.String("rail.reason", reason),
	))
}

// noopMetrics is a RailMetrics implementation that does nothing.
type noopMetrics struct{}

// NoopRailMetrics returns a RailMetrics that records nothing.
func NoopRailMetrics() RailMetrics {
	return &noopMetrics{}
}

func (m *noopMetrics) RecordOutcome(ctx context.Context, meta RailMeta, outcome string, latency time.Duration) {
}

func (m *noopMetrics) RecordRejection(ctx context.Context, meta RailMeta, reason string) {}
