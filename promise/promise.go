package promise

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/jonwraymond/guardrail/result"
)

// Cell states. A cell moves pending → completing → done exactly once;
// completing is a transient claim that serializes racing writers.
const (
	statePending int32 = iota
	stateCompleting
	stateDone
)

// Completion is the published result of a cell: the outcome and its
// payload. For failure outcomes the value is conventionally the error.
type Completion struct {
	Outcome result.Type
	Value   any
}

// Err returns the completion's value as an error when the outcome is a
// failure and the value carries one.
func (c Completion) Err() error {
	if c.Outcome.Failure() {
		if err, ok := c.Value.(error); ok {
			return err
		}
	}
	return nil
}

// cell is the shared one-shot machinery behind Promise and Completable.
type cell struct {
	class *result.Class

	state atomic.Int32
	done  Completion // published between the completing and done stores

	doneCh chan struct{}

	cbMu      sync.Mutex
	callbacks []func(Completion)
}

func newCell(class *result.Class) cell {
	return cell{class: class, doneCh: make(chan struct{})}
}

// complete runs the completion protocol. won=false means another writer
// got there first. A foreign outcome fails before any state changes.
func (c *cell) complete(t result.Type, value any) (won bool, err error) {
	if err := c.class.Check(t); err != nil {
		return false, err
	}
	if !c.state.CompareAndSwap(statePending, stateCompleting) {
		return false, nil
	}
	c.done = Completion{Outcome: t, Value: value}
	c.state.Store(stateDone)
	close(c.doneCh)
	c.fireCallbacks()
	return true, nil
}

func (c *cell) fireCallbacks() {
	c.cbMu.Lock()
	cbs := c.callbacks
	c.callbacks = nil
	c.cbMu.Unlock()
	for _, cb := range cbs {
		invoke(cb, c.done)
	}
}

// invoke isolates one callback; a panicking callback must not starve the
// rest of the chain.
func invoke(cb func(Completion), done Completion) {
	defer func() {
		_ = recover()
	}()
	cb(done)
}

func (c *cell) isDone() bool {
	return c.state.Load() == stateDone
}

func (c *cell) completion() (Completion, bool) {
	if c.state.Load() != stateDone {
		return Completion{}, false
	}
	return c.done, true
}

func (c *cell) onComplete(cb func(Completion)) {
	if cb == nil {
		return
	}
	c.cbMu.Lock()
	if c.state.Load() != stateDone {
		c.callbacks = append(c.callbacks, cb)
		c.cbMu.Unlock()
		return
	}
	c.cbMu.Unlock()
	invoke(cb, c.done)
}

func (c *cell) await(ctx context.Context) (Completion, error) {
	select {
	case <-c.doneCh:
		return c.done, nil
	case <-ctx.Done():
		return Completion{}, ctx.Err()
	}
}

// Promise is the multi-writer one-shot cell. Any goroutine may attempt
// completion; exactly one wins.
type Promise struct {
	cell
}

// NewPromise builds a pending promise over the given result class.
func NewPromise(class *result.Class) *Promise {
	return &Promise{cell: newCell(class)}
}

// Complete attempts to complete the promise. won=false means the promise
// was already completed (or a racing writer won); this is not an error.
// Outcomes outside the promise's class return *result.InvalidResultError
// and leave the promise untouched.
func (p *Promise) Complete(t result.Type, value any) (won bool, err error) {
	return p.complete(t, value)
}

// Done reports whether the promise has completed.
func (p *Promise) Done() bool {
	return p.isDone()
}

// Future returns the promise's read view.
func (p *Promise) Future() Future {
	return &cellFuture{c: &p.cell}
}

// OnComplete registers a callback fired exactly once at completion, or
// immediately if the promise is already done. Callback panics are
// isolated per callback.
func (p *Promise) OnComplete(cb func(Completion)) {
	p.onComplete(cb)
}

// Completable is the single-writer one-shot cell. The owner must be the
// only goroutine calling Complete; reads from other goroutines are safe.
type Completable struct {
	cell
}

// NewCompletable builds a pending completable over the given result
// class.
func NewCompletable(class *result.Class) *Completable {
	return &Completable{cell: newCell(class)}
}

// Complete completes the cell. Repeated completions are no-ops.
func (c *Completable) Complete(t result.Type, value any) (won bool, err error) {
	return c.complete(t, value)
}

// Done reports whether the completable has completed.
func (c *Completable) Done() bool {
	return c.isDone()
}

// Future returns the completable's read view.
func (c *Completable) Future() Future {
	return &cellFuture{c: &c.cell}
}

// OnComplete registers a callback fired exactly once at completion.
func (c *Completable) OnComplete(cb func(Completion)) {
	c.onComplete(cb)
}
