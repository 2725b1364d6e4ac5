package health

import (
	"context"
	"testing"
	"time"

	"github.com/jonwraymond/guardrail/breaker"
	"github.com/jonwraymond/guardrail/metrics"
	"github.com/jonwraymond/guardrail/rail"
	"github.com/jonwraymond/guardrail/result"
)

func newCheckedRail(t *testing.T, max int64) (*rail.GuardRail, *breaker.Breaker, *rail.Semaphore) {
	t.Helper()
	class := result.Standard()
	reasons := result.StandardRejections()

	counts, err := metrics.NewCountRecorder(class, 10, time.Second)
	if err != nil {
		t.Fatalf("NewCountRecorder() error = %v", err)
	}
	rejected, err := metrics.NewRejectedRecorder(reasons, 10, time.Second)
	if err != nil {
		t.Fatalf("NewRejectedRecorder() error = %v", err)
	}
	b, err := breaker.New(counts, reasons.MustReason(result.ReasonCircuitOpen), breaker.Config{})
	if err != nil {
		t.Fatalf("breaker.New() error = %v", err)
	}
	sem, err := rail.NewSemaphore(max, reasons.MustReason(result.ReasonMaxConcurrency))
	if err != nil {
		t.Fatalf("NewSemaphore() error = %v", err)
	}

	r, err := rail.NewBuilder("orders", counts, rejected).
		AddBackPressure("breaker", b).
		AddBackPressure("semaphore", sem).
		Build()
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	return r, b, sem
}

func TestRailChecker_Healthy(t *testing.T) {
	r, _, _ := newCheckedRail(t, 10)
	c, err := NewRailChecker(r, RailCheckerConfig{})
	if err != nil {
		t.Fatalf("NewRailChecker() error = %v", err)
	}

	if c.Name() != "orders" {
		t.Errorf("Name() = %q, want orders", c.Name())
	}
	got := c.Check(context.Background())
	if got.Status != StatusHealthy {
		t.Errorf("Status = %v, want healthy", got.Status)
	}
}

func TestRailChecker_OpenBreakerUnhealthy(t *testing.T) {
	r, b, _ := newCheckedRail(t, 10)
	c, _ := NewRailChecker(r, RailCheckerConfig{})

	b.ForceOpen()
	got := c.Check(context.Background())
	if got.Status != StatusUnhealthy {
		t.Errorf("Status = %v, want unhealthy", got.Status)
	}
	if got.Details["breaker.state"] != "open" {
		t.Errorf("breaker.state detail = %v, want open", got.Details["breaker.state"])
	}
}

func TestRailChecker_SaturationDegraded(t *testing.T) {
	r, _, sem := newCheckedRail(t, 2)
	c, _ := NewRailChecker(r, RailCheckerConfig{SaturationThreshold: 0.5})

	if _, err := r.Acquire(1); err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	got := c.Check(context.Background())
	if got.Status != StatusDegraded {
		t.Errorf("Status = %v, want degraded at 50%% utilization", got.Status)
	}
	if got.Details["semaphore.in_use"] != sem.InUse() {
		t.Errorf("in_use detail = %v, want %d", got.Details["semaphore.in_use"], sem.InUse())
	}
}

func TestRailChecker_RejectionDetails(t *testing.T) {
	r, _, _ := newCheckedRail(t, 1)
	c, _ := NewRailChecker(r, RailCheckerConfig{})

	if _, err := r.Acquire(1); err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	if _, err := r.Acquire(1); err == nil {
		t.Fatal("second Acquire() error = nil, want rejection")
	}

	got := c.Check(context.Background())
	if got.Details["rejected.total"].(int64) != 1 {
		t.Errorf("rejected.total = %v, want 1", got.Details["rejected.total"])
	}
}

func TestNewRailChecker_NilRail(t *testing.T) {
	if _, err := NewRailChecker(nil, RailCheckerConfig{}); err == nil {
		t.Error("NewRailChecker(nil) error = nil, want error")
	}
}
