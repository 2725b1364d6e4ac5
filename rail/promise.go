package rail

import (
	"github.com/jonwraymond/guardrail/promise"
)

// AcquirePromise reserves n permits and returns a promise bound to them:
// whichever writer completes the promise triggers exactly one
// release-with-result against this rail. On denial the rejection is
// returned and nothing is reserved.
func (g *GuardRail) AcquirePromise(n int64) (*promise.Promise, error) {
	p, err := g.Acquire(n)
	if err != nil {
		return nil, err
	}
	pr := promise.NewPromise(g.ResultClass())
	pr.OnComplete(g.releaseHook(p))
	return pr, nil
}

// AcquireCompletable reserves n permits and returns a single-writer cell
// bound to them the same way AcquirePromise binds a promise.
func (g *GuardRail) AcquireCompletable(n int64) (*promise.Completable, error) {
	p, err := g.Acquire(n)
	if err != nil {
		return nil, err
	}
	c := promise.NewCompletable(g.ResultClass())
	c.OnComplete(g.releaseHook(p))
	return c, nil
}

// releaseHook is the context map binding a permit to its cell: completion
// fires the hook once, and the hook performs the rail's only release for
// that permit.
func (g *GuardRail) releaseHook(p Permit) func(promise.Completion) {
	return func(done promise.Completion) {
		_ = g.Release(p, done.Outcome)
	}
}
