package clock

import (
	"time"

	"github.com/zoobzio/clockz"
)

// Clock is the time source used throughout the library. Deadlines and
// rolling windows are measured in nanoseconds from Nanos; Millis is the
// wall clock and is only used where callers want human-readable times.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Nanos must never go backwards between two calls on the same goroutine.
type Clock interface {
	// Nanos returns the current time in nanoseconds.
	Nanos() int64

	// Millis returns the current wall-clock time in milliseconds.
	Millis() int64

	// After returns a channel that delivers once d has elapsed.
	After(d time.Duration) <-chan time.Time
}

// source adapts a clockz.Clock to the Clock interface.
type source struct {
	inner clockz.Clock
}

// System returns a Clock backed by the real system clock.
func System() Clock {
	return &source{inner: clockz.RealClock}
}

// New wraps an arbitrary clockz.Clock, typically a clockz.FakeClock in
// tests so that windows, backoffs, and deadlines can be advanced
// deterministically.
func New(c clockz.Clock) Clock {
	return &source{inner: c}
}

func (s *source) Nanos() int64 {
	return s.inner.Now().UnixNano()
}

func (s *source) Millis() int64 {
	return s.inner.Now().UnixMilli()
}

func (s *source) After(d time.Duration) <-chan time.Time {
	return s.inner.After(d)
}
