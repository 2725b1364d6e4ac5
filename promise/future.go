package promise

import (
	"context"

	"github.com/jonwraymond/guardrail/result"
)

// Future is the read side of a completion cell.
//
// Contract:
// - Concurrency: all methods are safe for concurrent use.
// - Status queries are wait-free; Await is the only blocking call.
// - A rejected future never transitions.
type Future interface {
	// Pending reports whether no completion has been delivered yet.
	Pending() bool

	// Rejected reports whether the future was born rejected by a gate.
	Rejected() bool

	// RejectedReason returns the structured rejection reason, ok=false
	// when the future was not rejected.
	RejectedReason() (result.Reason, bool)

	// Outcome returns the completed outcome, ok=false while pending or
	// rejected.
	Outcome() (result.Type, bool)

	// Value returns the completed value, nil while pending or rejected.
	Value() any

	// Success reports whether the future completed with a success
	// outcome.
	Success() bool

	// Failure reports whether the future completed with a failure
	// outcome.
	Failure() bool

	// Err returns the completion's error payload for failure outcomes and
	// a *RejectedError for a rejected future, nil otherwise.
	Err() error

	// Await blocks until the future completes or ctx is done.
	Await(ctx context.Context) (Completion, error)

	// OnComplete registers a callback fired once at completion, or
	// immediately if already done. Rejected futures never fire it.
	OnComplete(cb func(Completion))
}

// cellFuture views a live cell.
type cellFuture struct {
	c *cell
}

func (f *cellFuture) Pending() bool {
	return !f.c.isDone()
}

func (f *cellFuture) Rejected() bool {
	return false
}

func (f *cellFuture) RejectedReason() (result.Reason, bool) {
	return result.Reason{}, false
}

func (f *cellFuture) Outcome() (result.Type, bool) {
	done, ok := f.c.completion()
	if !ok {
		return result.Type{}, false
	}
	return done.Outcome, true
}

func (f *cellFuture) Value() any {
	done, ok := f.c.completion()
	if !ok {
		return nil
	}
	return done.Value
}

func (f *cellFuture) Success() bool {
	done, ok := f.c.completion()
	return ok && done.Outcome.Success()
}

func (f *cellFuture) Failure() bool {
	done, ok := f.c.completion()
	return ok && done.Outcome.Failure()
}

func (f *cellFuture) Err() error {
	done, ok := f.c.completion()
	if !ok {
		return nil
	}
	return done.Err()
}

func (f *cellFuture) Await(ctx context.Context) (Completion, error) {
	return f.c.await(ctx)
}

func (f *cellFuture) OnComplete(cb func(Completion)) {
	f.c.onComplete(cb)
}

// rejectedFuture is born rejected and never transitions.
type rejectedFuture struct {
	reason result.Reason
}

// RejectedFuture builds a future that surfaces the given rejection
// reason.
func RejectedFuture(reason result.Reason) Future {
	return &rejectedFuture{reason: reason}
}

func (f *rejectedFuture) Pending() bool {
	return false
}

func (f *rejectedFuture) Rejected() bool {
	return true
}

func (f *rejectedFuture) RejectedReason() (result.Reason, bool) {
	return f.reason, true
}

func (f *rejectedFuture) Outcome() (result.Type, bool) {
	return result.Type{}, false
}

func (f *rejectedFuture) Value() any {
	return nil
}

func (f *rejectedFuture) Success() bool {
	return false
}

func (f *rejectedFuture) Failure() bool {
	return false
}

func (f *rejectedFuture) Err() error {
	return &RejectedError{Reason: f.reason}
}

func (f *rejectedFuture) Await(ctx context.Context) (Completion, error) {
	return Completion{}, &RejectedError{Reason: f.reason}
}

func (f *rejectedFuture) OnComplete(cb func(Completion)) {}

// RejectedError surfaces a rejection through a future's error accessors.
type RejectedError struct {
	Reason result.Reason
}

func (e *RejectedError) Error() string {
	return "promise: rejected: " + e.Reason.Name()
}
