package executor

import (
	"time"

	"github.com/jonwraymond/guardrail/promise"
	"github.com/jonwraymond/guardrail/rail"
	"github.com/jonwraymond/guardrail/result"
)

// Executor is the common contract the pool and the scheduler loop
// implement, so rails and futures do not depend on which strategy runs
// the work.
//
// Contract:
//   - Concurrency: implementations must be safe for concurrent use.
//   - Submit never blocks on admission: a denied acquire returns an
//     already-rejected future, not an error.
//   - Shutdown is idempotent and drains in-flight work without cancelling
//     running actions; armed timeouts may still fire during the drain.
type Executor interface {
	// Submit acquires one permit from r, runs action, and returns a
	// future for its completion. limit > 0 arms a timeout that cancels
	// the action and completes the future with the timeout outcome.
	Submit(r *rail.GuardRail, action Action, limit time.Duration) (promise.Future, error)

	// Shutdown stops the executor.
	Shutdown()
}

// reservedRejection resolves the executor's reserved rejection reason
// from the rail's rejection class and counts the denial. ok=false means
// the class carries no such reason and the caller must surface an error
// instead.
func reservedRejection(r *rail.GuardRail, nanoTime int64) (result.Reason, bool) {
	reason, err := r.RejectedCounts().Reasons().Reason(result.ReasonExecutorShutdown)
	if err != nil {
		return result.Reason{}, false
	}
	_ = r.RejectedCounts().Add(reason, 1, nanoTime)
	return reason, true
}

// bindPromise couples a fresh promise to an acquired permit: whichever
// writer completes the promise triggers the rail's single
// release-with-result for that permit.
func bindPromise(r *rail.GuardRail, p rail.Permit) *promise.Promise {
	pr := promise.NewPromise(r.ResultClass())
	pr.OnComplete(func(done promise.Completion) {
		_ = r.Release(p, done.Outcome)
	})
	return pr
}
