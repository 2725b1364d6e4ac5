package breaker

import (
	"fmt"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/jonwraymond/guardrail/clock"
	"github.com/jonwraymond/guardrail/metrics"
	"github.com/jonwraymond/guardrail/result"
)

// State is the breaker's admission state.
type State int32

const (
	// StateClosed admits all acquires.
	StateClosed State = iota
	// StateOpen rejects all acquires until the backoff expires.
	StateOpen
	// StateHalfOpen admits a single probe and rejects the rest.
	StateHalfOpen
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// Config tunes a breaker. It can be replaced at runtime with
// UpdateConfig; the replacement applies to subsequent decisions.
type Config struct {
	// TrailingPeriod is the rolling window health reads aggregate over.
	// Default: 5 seconds.
	TrailingPeriod time.Duration

	// FailureThreshold is the absolute failure count above which the
	// breaker opens. The breaker stays closed at exactly the threshold
	// and opens on the observation that exceeds it.
	// Default: 20.
	FailureThreshold int64

	// FailurePercentageThreshold is the failure percentage (0-100) at or
	// above which the breaker opens, once SampleSizeThreshold is met.
	// Default: 50.
	FailurePercentageThreshold float64

	// SampleSizeThreshold is the minimum window volume before the
	// percentage threshold applies.
	// Default: 10.
	SampleSizeThreshold int64

	// BackoffTime is how long an open breaker rejects before admitting a
	// probe.
	// Default: 1 second.
	BackoffTime time.Duration

	// HealthRefreshInterval bounds counter read amplification: health
	// snapshots younger than this are served from cache.
	// Default: 500 milliseconds.
	HealthRefreshInterval time.Duration

	// OnStateChange is called after every state transition, from the
	// goroutine that won it.
	OnStateChange func(from, to State)

	// Clock overrides the time source. Default: the system clock.
	Clock clock.Clock
}

func (c *Config) withDefaults() *Config {
	cfg := *c
	if cfg.TrailingPeriod <= 0 {
		cfg.TrailingPeriod = 5 * time.Second
	}
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = 20
	}
	if cfg.FailurePercentageThreshold <= 0 {
		cfg.FailurePercentageThreshold = 50
	}
	if cfg.SampleSizeThreshold <= 0 {
		cfg.SampleSizeThreshold = 10
	}
	if cfg.BackoffTime <= 0 {
		cfg.BackoffTime = time.Second
	}
	if cfg.HealthRefreshInterval <= 0 {
		cfg.HealthRefreshInterval = 500 * time.Millisecond
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.System()
	}
	return &cfg
}

// healthStamp is a cached health snapshot.
type healthStamp struct {
	health metrics.Health
	readAt int64
}

// Breaker is a back-pressure gate over a rail's result counter.
type Breaker struct {
	counts *metrics.CountRecorder
	reason result.Reason

	cfg      atomic.Pointer[Config]
	state    atomic.Int32
	openedAt atomic.Int64

	cache atomic.Pointer[healthStamp]
	sf    singleflight.Group
}

// New builds a closed breaker sampling counts and denying with reason
// while open.
func New(counts *metrics.CountRecorder, reason result.Reason, cfg Config) (*Breaker, error) {
	if counts == nil {
		return nil, fmt.Errorf("breaker: result counter is required")
	}
	if !reason.Valid() {
		return nil, fmt.Errorf("breaker: rejection reason is required")
	}
	if cfg.FailurePercentageThreshold > 100 {
		return nil, fmt.Errorf("breaker: failure percentage threshold %v above 100", cfg.FailurePercentageThreshold)
	}
	b := &Breaker{counts: counts, reason: reason}
	b.cfg.Store(cfg.withDefaults())
	return b, nil
}

// UpdateConfig replaces the breaker's configuration. The swap is atomic;
// in-flight decisions finish on the config they loaded.
func (b *Breaker) UpdateConfig(cfg Config) error {
	if cfg.FailurePercentageThreshold > 100 {
		return fmt.Errorf("breaker: failure percentage threshold %v above 100", cfg.FailurePercentageThreshold)
	}
	b.cfg.Store(cfg.withDefaults())
	return nil
}

// State returns the current admission state.
func (b *Breaker) State() State {
	return State(b.state.Load())
}

// AcquirePermit admits while closed, rejects while open until the backoff
// has elapsed, and admits exactly one probe per half-open period: the
// caller that wins the open → half-open transition is the probe.
func (b *Breaker) AcquirePermit(n, nanoTime int64) (result.Reason, bool) {
	for {
		switch State(b.state.Load()) {
		case StateClosed:
			return result.Reason{}, true
		case StateOpen:
			cfg := b.cfg.Load()
			if nanoTime-b.openedAt.Load() < cfg.BackoffTime.Nanoseconds() {
				return b.reason, false
			}
			if b.transition(StateOpen, StateHalfOpen) {
				return result.Reason{}, true
			}
			// Lost the race; re-read the state.
		case StateHalfOpen:
			return b.reason, false
		}
	}
}

// ReleasePermit returns permits with no result. A raw release carries no
// outcome, so the state machine is not informed.
func (b *Breaker) ReleasePermit(n, nanoTime int64) {}

// ReleaseWithResult informs the breaker of a released outcome.
func (b *Breaker) ReleaseWithResult(t result.Type, n, start, nanoTime int64) {
	b.inform(t, nanoTime)
}

// inform drives the state machine from an observed outcome.
func (b *Breaker) inform(t result.Type, nanoTime int64) {
	if t.Success() {
		if State(b.state.Load()) == StateHalfOpen {
			b.transition(StateHalfOpen, StateClosed)
		}
		return
	}

	switch State(b.state.Load()) {
	case StateHalfOpen:
		if b.transition(StateHalfOpen, StateOpen) {
			b.openedAt.Store(nanoTime)
		}
	case StateClosed:
		cfg := b.cfg.Load()
		h := b.health(cfg, nanoTime)
		if b.shouldOpen(cfg, h) && b.transition(StateClosed, StateOpen) {
			b.openedAt.Store(nanoTime)
		}
	}
}

func (b *Breaker) shouldOpen(cfg *Config, h metrics.Health) bool {
	if h.Failures > cfg.FailureThreshold {
		return true
	}
	return h.Total >= cfg.SampleSizeThreshold && h.FailurePercentage() >= cfg.FailurePercentageThreshold
}

// health serves the trailing-window aggregate, from cache when the last
// sweep is younger than the refresh interval. Concurrent refreshes past
// the interval collapse into one counter sweep.
func (b *Breaker) health(cfg *Config, nanoTime int64) metrics.Health {
	if stamp := b.cache.Load(); stamp != nil && nanoTime-stamp.readAt < cfg.HealthRefreshInterval.Nanoseconds() {
		return stamp.health
	}
	v, _, _ := b.sf.Do("health", func() (any, error) {
		h := b.counts.Health(cfg.TrailingPeriod, nanoTime)
		b.cache.Store(&healthStamp{health: h, readAt: nanoTime})
		return h, nil
	})
	return v.(metrics.Health)
}

// ForceOpen unconditionally opens the breaker.
func (b *Breaker) ForceOpen() {
	cfg := b.cfg.Load()
	from := State(b.state.Swap(int32(StateOpen)))
	b.openedAt.Store(cfg.Clock.Nanos())
	b.notify(cfg, from, StateOpen)
}

// ForceClosed unconditionally closes the breaker.
func (b *Breaker) ForceClosed() {
	cfg := b.cfg.Load()
	from := State(b.state.Swap(int32(StateClosed)))
	b.notify(cfg, from, StateClosed)
}

// transition CASes the state word; at most one caller wins each
// transition.
func (b *Breaker) transition(from, to State) bool {
	if !b.state.CompareAndSwap(int32(from), int32(to)) {
		return false
	}
	b.notify(b.cfg.Load(), from, to)
	return true
}

func (b *Breaker) notify(cfg *Config, from, to State) {
	if from != to && cfg.OnStateChange != nil {
		cfg.OnStateChange(from, to)
	}
}
