package rail

import (
	"fmt"

	"github.com/jonwraymond/guardrail/clock"
	"github.com/jonwraymond/guardrail/metrics"
	"github.com/jonwraymond/guardrail/result"
)

// Permit is a successful acquisition: the number of permits reserved and
// the acquire-time nanos used for latency accounting.
type Permit struct {
	Permits    int64
	StartNanos int64
}

// namedGate pairs a back-pressure mechanism with its registration name.
type namedGate struct {
	name string
	gate BackPressure
}

// GuardRail composes back-pressure gates with result, rejection, and
// latency recorders behind a single acquire/release surface. Structure is
// immutable once built.
type GuardRail struct {
	name     string
	clk      clock.Clock
	results  *metrics.CountRecorder
	rejected *metrics.RejectedRecorder
	latency  *metrics.LatencyRecorder
	gates    []namedGate
}

// Builder assembles a GuardRail. Gates are evaluated in the order they
// were added.
type Builder struct {
	name     string
	clk      clock.Clock
	results  *metrics.CountRecorder
	rejected *metrics.RejectedRecorder
	latency  *metrics.LatencyRecorder
	gates    []namedGate
	err      error
}

// NewBuilder starts a rail with its name and required recorders.
func NewBuilder(name string, results *metrics.CountRecorder, rejected *metrics.RejectedRecorder) *Builder {
	b := &Builder{name: name, results: results, rejected: rejected}
	if name == "" {
		b.err = fmt.Errorf("rail: name is required")
	} else if results == nil {
		b.err = fmt.Errorf("rail: result counter is required")
	} else if rejected == nil {
		b.err = fmt.Errorf("rail: rejected counter is required")
	}
	return b
}

// Latency attaches an optional latency recorder. Its class must match the
// result counter's.
func (b *Builder) Latency(l *metrics.LatencyRecorder) *Builder {
	b.latency = l
	return b
}

// Clock overrides the time source. Default: the system clock.
func (b *Builder) Clock(c clock.Clock) *Builder {
	b.clk = c
	return b
}

// AddBackPressure registers a named gate at the end of the evaluation
// order.
func (b *Builder) AddBackPressure(name string, gate BackPressure) *Builder {
	if b.err == nil {
		if name == "" {
			b.err = fmt.Errorf("rail: back-pressure name is required")
		} else if gate == nil {
			b.err = fmt.Errorf("rail: back-pressure %q is nil", name)
		} else {
			for _, g := range b.gates {
				if g.name == name {
					b.err = fmt.Errorf("rail: duplicate back-pressure %q", name)
					break
				}
			}
		}
	}
	if b.err == nil {
		b.gates = append(b.gates, namedGate{name: name, gate: gate})
	}
	return b
}

// Build finalizes the rail.
func (b *Builder) Build() (*GuardRail, error) {
	if b.err != nil {
		return nil, b.err
	}
	if b.latency != nil && b.latency.Class() != b.results.Class() {
		return nil, fmt.Errorf("rail: latency recorder class differs from result counter class")
	}
	clk := b.clk
	if clk == nil {
		clk = clock.System()
	}
	return &GuardRail{
		name:     b.name,
		clk:      clk,
		results:  b.results,
		rejected: b.rejected,
		latency:  b.latency,
		gates:    append([]namedGate(nil), b.gates...),
	}, nil
}

// Name returns the rail's name.
func (g *GuardRail) Name() string {
	return g.name
}

// ResultClass returns the rail's result class.
func (g *GuardRail) ResultClass() *result.Class {
	return g.results.Class()
}

// Results returns the rail's result counter.
func (g *GuardRail) Results() *metrics.CountRecorder {
	return g.results
}

// RejectedCounts returns the rail's rejection counter.
func (g *GuardRail) RejectedCounts() *metrics.RejectedRecorder {
	return g.rejected
}

// Latency returns the rail's latency recorder, or nil if none was
// attached.
func (g *GuardRail) Latency() *metrics.LatencyRecorder {
	return g.latency
}

// Clock returns the rail's time source.
func (g *GuardRail) Clock() clock.Clock {
	return g.clk
}

// GateInfo names one registered back-pressure mechanism.
type GateInfo struct {
	Name string
	Gate BackPressure
}

// BackPressures returns the registered gates in evaluation order.
func (g *GuardRail) BackPressures() []GateInfo {
	out := make([]GateInfo, len(g.gates))
	for i, ng := range g.gates {
		out[i] = GateInfo{Name: ng.name, Gate: ng.gate}
	}
	return out
}

// Acquire reserves n permits at the current time.
func (g *GuardRail) Acquire(n int64) (Permit, error) {
	return g.AcquireAt(n, g.clk.Nanos())
}

// AcquireAt reserves n permits at an explicit time. Gates are evaluated
// in registration order; the first denial wins and any gates acquired
// before it are rolled back, so no partial acquisition survives.
func (g *GuardRail) AcquireAt(n, nanoTime int64) (Permit, error) {
	for i, ng := range g.gates {
		reason, ok := ng.gate.AcquirePermit(n, nanoTime)
		if ok {
			continue
		}
		for j := i - 1; j >= 0; j-- {
			g.gates[j].gate.ReleasePermit(n, nanoTime)
		}
		// Recording is best-effort: a gate configured with a foreign
		// reason still rejects, it just goes uncounted.
		_ = g.rejected.Add(reason, 1, nanoTime)
		return Permit{}, &RejectedError{Reason: reason}
	}
	return Permit{Permits: n, StartNanos: nanoTime}, nil
}

// Release reports the outcome for a permit at the current time.
func (g *GuardRail) Release(p Permit, t result.Type) error {
	return g.ReleaseAt(p, t, g.clk.Nanos())
}

// ReleaseAt reports the outcome for a permit at an explicit time: the
// result counter and latency recorder are updated, then each gate is
// informed in reverse registration order. The chain always runs to
// completion; the first gate panic is re-raised once every gate has been
// released.
func (g *GuardRail) ReleaseAt(p Permit, t result.Type, nanoTime int64) error {
	if err := g.results.Class().Check(t); err != nil {
		return err
	}
	if err := g.results.Add(t, 1, nanoTime); err != nil {
		return err
	}
	if g.latency != nil {
		if err := g.latency.Record(t, nanoTime-p.StartNanos); err != nil {
			return err
		}
	}
	g.informAndRelease(p, t, nanoTime)
	return nil
}

// ReleaseWithoutResult returns a permit with no outcome attached. No
// counter or latency update is made and gates observe nothing.
func (g *GuardRail) ReleaseWithoutResult(p Permit) {
	g.ReleaseRawPermits(p.Permits)
}

// ReleaseRawPermits returns n permits with no outcome attached.
func (g *GuardRail) ReleaseRawPermits(n int64) {
	nanoTime := g.clk.Nanos()
	g.releaseRawAt(n, nanoTime)
}

// ReleaseRawPermitsAt returns n permits at an explicit time.
func (g *GuardRail) ReleaseRawPermitsAt(n, nanoTime int64) {
	g.releaseRawAt(n, nanoTime)
}

func (g *GuardRail) releaseRawAt(n, nanoTime int64) {
	var firstPanic any
	for i := len(g.gates) - 1; i >= 0; i-- {
		func() {
			defer func() {
				if r := recover(); r != nil && firstPanic == nil {
					firstPanic = r
				}
			}()
			g.gates[i].gate.ReleasePermit(n, nanoTime)
		}()
	}
	if firstPanic != nil {
		panic(firstPanic)
	}
}

func (g *GuardRail) informAndRelease(p Permit, t result.Type, nanoTime int64) {
	var firstPanic any
	for i := len(g.gates) - 1; i >= 0; i-- {
		func() {
			defer func() {
				if r := recover(); r != nil && firstPanic == nil {
					firstPanic = r
				}
			}()
			g.gates[i].gate.ReleaseWithResult(t, p.Permits, p.StartNanos, nanoTime)
		}()
	}
	if firstPanic != nil {
		panic(firstPanic)
	}
}
