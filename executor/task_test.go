package executor

import (
	"context"
	"errors"
	"testing"

	"github.com/jonwraymond/guardrail/promise"
	"github.com/jonwraymond/guardrail/result"
	"github.com/jonwraymond/guardrail/timeout"
)

func newTaskFixture(t *testing.T) (*result.Class, Outcomes) {
	t.Helper()
	class := result.Standard()
	outcomes, err := StandardOutcomes(class)
	if err != nil {
		t.Fatalf("StandardOutcomes() error = %v", err)
	}
	return class, outcomes
}

func TestTask_RunCompletesSuccess(t *testing.T) {
	class, outcomes := newTaskFixture(t)
	pr := promise.NewPromise(class)

	task := NewTask(pr, func(ctx context.Context) (any, error) {
		return 7, nil
	}, outcomes)
	task.Run()

	outcome, ok := pr.Future().Outcome()
	if !ok || outcome != outcomes.Success {
		t.Errorf("outcome = (%v, %v), want success", outcome, ok)
	}
	if pr.Future().Value() != 7 {
		t.Errorf("value = %v, want 7", pr.Future().Value())
	}
}

func TestTask_RunCompletesError(t *testing.T) {
	class, outcomes := newTaskFixture(t)
	pr := promise.NewPromise(class)
	cause := errors.New("nope")

	task := NewTask(pr, func(ctx context.Context) (any, error) {
		return nil, cause
	}, outcomes)
	task.Run()

	outcome, _ := pr.Future().Outcome()
	if outcome != outcomes.Error {
		t.Errorf("outcome = %v, want error", outcome)
	}
	if pr.Future().Err() != cause {
		t.Errorf("Err() = %v, want %v", pr.Future().Err(), cause)
	}
}

func TestTask_PanicBecomesError(t *testing.T) {
	class, outcomes := newTaskFixture(t)
	pr := promise.NewPromise(class)

	task := NewTask(pr, func(ctx context.Context) (any, error) {
		panic("boom")
	}, outcomes)
	task.Run()

	outcome, _ := pr.Future().Outcome()
	if outcome != outcomes.Error {
		t.Errorf("outcome = %v, want error", outcome)
	}
	if !errors.Is(pr.Future().Err(), ErrActionPanic) {
		t.Errorf("Err() = %v, want wrapped ErrActionPanic", pr.Future().Err())
	}
}

func TestTask_CancelBeforeRun(t *testing.T) {
	class, outcomes := newTaskFixture(t)
	pr := promise.NewPromise(class)

	ran := false
	task := NewTask(pr, func(ctx context.Context) (any, error) {
		ran = true
		return nil, nil
	}, outcomes)

	task.Cancel(outcomes.Timeout, timeout.ErrTimeout)
	task.Run()

	if ran {
		t.Error("cancelled task still ran its action")
	}
	outcome, _ := pr.Future().Outcome()
	if outcome != outcomes.Timeout {
		t.Errorf("outcome = %v, want timeout", outcome)
	}
}

func TestTask_CancelMidFlight(t *testing.T) {
	class, outcomes := newTaskFixture(t)
	pr := promise.NewPromise(class)

	started := make(chan struct{})
	task := NewTask(pr, func(ctx context.Context) (any, error) {
		close(started)
		<-ctx.Done()
		return "late", nil
	}, outcomes)

	go task.Run()
	<-started
	task.Cancel(outcomes.Timeout, timeout.ErrTimeout)

	done, err := pr.Future().Await(context.Background())
	if err != nil {
		t.Fatalf("Await() error = %v", err)
	}
	if done.Outcome != outcomes.Timeout {
		t.Errorf("outcome = %v, want timeout", done.Outcome)
	}
}

func TestTask_CancelAfterDoneIsNoOp(t *testing.T) {
	class, outcomes := newTaskFixture(t)
	pr := promise.NewPromise(class)

	task := NewTask(pr, func(ctx context.Context) (any, error) {
		return "v", nil
	}, outcomes)
	task.Run()
	task.Cancel(outcomes.Timeout, timeout.ErrTimeout)

	outcome, _ := pr.Future().Outcome()
	if outcome != outcomes.Success {
		t.Errorf("outcome = %v, want success", outcome)
	}
}

func TestTask_Converters(t *testing.T) {
	class, _ := newTaskFixture(t)
	pr := promise.NewPromise(class)
	timedOut := class.MustType("timeout")

	task := NewTaskWithConverters(pr,
		func(ctx context.Context) (any, error) { return "slow", nil },
		func(v any) result.Type { return timedOut },
		func(err error) result.Type { return timedOut },
	)
	task.Run()

	outcome, _ := pr.Future().Outcome()
	if outcome != timedOut {
		t.Errorf("outcome = %v, want timeout via converter", outcome)
	}
}

func TestTask_InvokeDoesNotComplete(t *testing.T) {
	class, outcomes := newTaskFixture(t)
	pr := promise.NewPromise(class)

	task := NewTask(pr, func(ctx context.Context) (any, error) {
		return "raw", nil
	}, outcomes)

	v, err, ran := task.Invoke()
	if !ran {
		t.Fatal("Invoke() ran = false, want true")
	}
	if err != nil {
		t.Fatalf("Invoke() error = %v", err)
	}
	if v != "raw" {
		t.Errorf("Invoke() value = %v, want raw", v)
	}
	if pr.Done() {
		t.Fatal("promise completed by Invoke, want pending")
	}

	task.Deliver(v, err)
	if !pr.Done() {
		t.Fatal("promise not completed by Deliver")
	}
}
