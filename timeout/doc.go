// Package timeout provides the deadline service: a min-heap of absolute
// deadlines served by one background goroutine that sleeps until the
// earliest deadline or until a new earlier insertion wakes it.
//
// The service has an explicit lifecycle: construct, Start, Schedule,
// Shutdown. A process-wide shared instance is available behind the
// explicit Default call for callers that do not want to manage one per
// executor; nothing is started as an import side effect.
//
// Firing a deadline invokes the scheduled callback on the service
// goroutine; callbacks are expected to be cheap and idempotent against
// completions that raced the deadline. A deadline already in the past
// fires on the next tick without blocking the scheduling caller.
package timeout
