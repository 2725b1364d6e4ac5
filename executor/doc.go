// Package executor runs guarded actions: every submission acquires a
// permit from its guard rail, wraps the action in a cancellable task
// targeting a promise, arms an optional timeout, and returns the
// promise's future view.
//
// Two strategies implement the same Executor contract:
//
//   - Pool: a fixed-size worker pool with a FIFO queue. Back-pressure is
//     the rail's responsibility, not the pool's.
//
//   - Loop: the single-coordinator variant. One goroutine multiplexes
//     submissions, completion delivery, and timeout firing, degrading
//     from busy-spin to yield to park when idle.
//
// Rejections never surface as Go errors from Submit: a denied acquire
// returns an already-rejected future carrying the gate's reason.
package executor
