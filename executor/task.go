package executor

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/jonwraymond/guardrail/promise"
	"github.com/jonwraymond/guardrail/result"
)

// Action is a unit of guarded work. The context is cancelled when the
// task is cancelled, typically by a timeout; actions that block should
// honor it.
type Action func(ctx context.Context) (any, error)

// ResultConverter maps an action's return value to an outcome.
type ResultConverter func(v any) result.Type

// ErrorConverter maps an action's error to an outcome.
type ErrorConverter func(err error) result.Type

// Outcomes names the conventional outcomes a submission completes with.
type Outcomes struct {
	Success result.Type
	Error   result.Type
	Timeout result.Type
}

// StandardOutcomes resolves the conventional success/error/timeout
// outcomes from a result class.
func StandardOutcomes(class *result.Class) (Outcomes, error) {
	success, err := class.Type("success")
	if err != nil {
		return Outcomes{}, fmt.Errorf("%w: success", ErrMissingOutcome)
	}
	failure, err := class.Type("error")
	if err != nil {
		return Outcomes{}, fmt.Errorf("%w: error", ErrMissingOutcome)
	}
	timedOut, err := class.Type("timeout")
	if err != nil {
		return Outcomes{}, fmt.Errorf("%w: timeout", ErrMissingOutcome)
	}
	return Outcomes{Success: success, Error: failure, Timeout: timedOut}, nil
}

// Task states. A task runs at most once; cancellation before the run
// claims the task instead.
const (
	taskRunnable int32 = iota
	taskRunning
	taskCancelled
)

// Task wraps an action, its outcome converters, and the promise the
// completion is delivered into. The task's claim CAS and the promise's
// one-shot protocol together guarantee at most one completion.
type Task struct {
	action   Action
	onResult ResultConverter
	onError  ErrorConverter
	target   *promise.Promise

	status atomic.Int32
	ctx    context.Context
	cancel context.CancelFunc
}

// NewTask builds a task delivering into target. Converters default to
// the given outcomes: any non-error return is Success, any error is
// Error.
func NewTask(target *promise.Promise, action Action, outcomes Outcomes) *Task {
	return NewTaskWithConverters(target, action,
		func(any) result.Type { return outcomes.Success },
		func(error) result.Type { return outcomes.Error },
	)
}

// NewTaskWithConverters builds a task with caller-supplied converters for
// result classes richer than success/error.
func NewTaskWithConverters(target *promise.Promise, action Action, onResult ResultConverter, onError ErrorConverter) *Task {
	ctx, cancel := context.WithCancel(context.Background())
	return &Task{
		action:   action,
		onResult: onResult,
		onError:  onError,
		target:   target,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Promise returns the task's target.
func (t *Task) Promise() *promise.Promise {
	return t.target
}

// Run executes the action and completes the promise with the converted
// outcome. A task cancelled before Run claims it does nothing; a cancel
// that arrives mid-run completes the promise first, so the action's
// return value is discarded.
func (t *Task) Run() {
	if !t.status.CompareAndSwap(taskRunnable, taskRunning) {
		return
	}
	v, err := t.runAction()
	if err != nil {
		_, _ = t.target.Complete(t.onError(err), err)
		return
	}
	_, _ = t.target.Complete(t.onResult(v), v)
}

// Invoke executes the action and returns its raw result without
// completing the promise; the scheduler loop delivers completions on its
// coordinator instead. The same claim CAS applies.
func (t *Task) Invoke() (v any, err error, ran bool) {
	if !t.status.CompareAndSwap(taskRunnable, taskRunning) {
		return nil, nil, false
	}
	v, err = t.runAction()
	return v, err, true
}

func (t *Task) runAction() (v any, err error) {
	defer func() {
		if r := recover(); r != nil {
			v = nil
			err = fmt.Errorf("%w: %v", ErrActionPanic, r)
		}
	}()
	return t.action(t.ctx)
}

// Deliver completes the promise from a raw action result, converting it
// the same way Run does.
func (t *Task) Deliver(v any, err error) {
	if err != nil {
		_, _ = t.target.Complete(t.onError(err), err)
		return
	}
	_, _ = t.target.Complete(t.onResult(v), v)
}

// Cancel completes the task with the given outcome and cause. If the
// action has not begun it never will; if it is in flight its context is
// cancelled and its eventual return value is discarded. Cancelling a
// task whose promise is already done is a no-op.
func (t *Task) Cancel(outcome result.Type, cause error) {
	if t.status.CompareAndSwap(taskRunnable, taskCancelled) {
		_, _ = t.target.Complete(outcome, cause)
		return
	}
	t.cancel()
	_, _ = t.target.Complete(outcome, cause)
}

// finish releases the task's context resources once no cancel can act.
func (t *Task) finish() {
	t.cancel()
}
