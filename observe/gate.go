package observe

import (
	"context"
	"time"

	"github.com/jonwraymond/guardrail/result"
)

// Gate is a pass-through back-pressure mechanism that exports every
// released outcome to a RailMetrics recorder. It admits everything, so
// registering it on a rail adds telemetry without changing admission.
//
// Register it last so it observes only releases for operations the real
// gates admitted.
type Gate struct {
	meta    RailMeta
	metrics RailMetrics
}

// NewGate builds an observing gate for the rail described by meta.
func NewGate(meta RailMeta, metrics RailMetrics) (*Gate, error) {
	if meta.Name == "" {
		return nil, ErrMissingRailName
	}
	if metrics == nil {
		metrics = NoopRailMetrics()
	}
	return &Gate{meta: meta, metrics: metrics}, nil
}

// AcquirePermit always admits.
func (g *Gate) AcquirePermit(n, nanoTime int64) (result.Reason, bool) {
	return result.Reason{}, true
}

// ReleasePermit observes nothing; raw releases carry no result.
func (g *Gate) ReleasePermit(n, nanoTime int64) {}

// ReleaseWithResult exports the outcome and its latency.
func (g *Gate) ReleaseWithResult(t result.Type, n, start, nanoTime int64) {
	g.metrics.RecordOutcome(context.Background(), g.meta, t.Name(), time.Duration(nanoTime-start))
}
