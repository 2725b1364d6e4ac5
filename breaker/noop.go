package breaker

import "github.com/jonwraymond/guardrail/result"

// NoOp is a breaker that admits everything and ignores results. Rails
// that only want concurrency limiting use it where a breaker slot is
// expected.
type NoOp struct{}

// AcquirePermit always admits.
func (NoOp) AcquirePermit(n, nanoTime int64) (result.Reason, bool) {
	return result.Reason{}, true
}

// ReleasePermit is a no-op.
func (NoOp) ReleasePermit(n, nanoTime int64) {}

// ReleaseWithResult is a no-op.
func (NoOp) ReleaseWithResult(t result.Type, n, start, nanoTime int64) {}

// State always reports closed.
func (NoOp) State() State {
	return StateClosed
}
