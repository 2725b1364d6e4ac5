package rail

import (
	"sync"
	"testing"

	"github.com/jonwraymond/guardrail/result"
)

func newTestSemaphore(t *testing.T, max int64) *Semaphore {
	t.Helper()
	reasons := result.StandardRejections()
	s, err := NewSemaphore(max, reasons.MustReason(result.ReasonMaxConcurrency))
	if err != nil {
		t.Fatalf("NewSemaphore() error = %v", err)
	}
	return s
}

func TestSemaphore_AcquireRelease(t *testing.T) {
	s := newTestSemaphore(t, 3)

	if _, ok := s.AcquirePermit(2, 0); !ok {
		t.Fatal("AcquirePermit(2) denied, want admitted")
	}
	if s.InUse() != 2 {
		t.Errorf("InUse() = %d, want 2", s.InUse())
	}

	s.ReleasePermit(2, 0)
	if s.InUse() != 0 {
		t.Errorf("InUse() = %d, want 0", s.InUse())
	}
}

func TestSemaphore_AtCapacity(t *testing.T) {
	s := newTestSemaphore(t, 5)

	// capacity − 1 admits exactly one more.
	if _, ok := s.AcquirePermit(4, 0); !ok {
		t.Fatal("AcquirePermit(4) denied, want admitted")
	}
	if _, ok := s.AcquirePermit(1, 0); !ok {
		t.Fatal("AcquirePermit(1) at capacity-1 denied, want admitted")
	}

	reason, ok := s.AcquirePermit(1, 0)
	if ok {
		t.Fatal("AcquirePermit(1) at capacity admitted, want denied")
	}
	if reason.Name() != result.ReasonMaxConcurrency {
		t.Errorf("reason = %q, want max-concurrency", reason.Name())
	}
}

func TestSemaphore_ReleaseWithResult(t *testing.T) {
	s := newTestSemaphore(t, 2)
	class := result.Standard()

	s.AcquirePermit(1, 0)
	s.ReleaseWithResult(class.MustType("error"), 1, 0, 10)
	if s.InUse() != 0 {
		t.Errorf("InUse() = %d, want 0", s.InUse())
	}
}

func TestSemaphore_ConcurrentConservation(t *testing.T) {
	s := newTestSemaphore(t, 100)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 1000; j++ {
				if _, ok := s.AcquirePermit(1, 0); ok {
					s.ReleasePermit(1, 0)
				}
			}
		}()
	}
	wg.Wait()

	if s.InUse() != 0 {
		t.Errorf("InUse() after drain = %d, want 0", s.InUse())
	}
}

func TestNewSemaphore_Invalid(t *testing.T) {
	reasons := result.StandardRejections()
	if _, err := NewSemaphore(0, reasons.MustReason(result.ReasonMaxConcurrency)); err == nil {
		t.Error("NewSemaphore(0) error = nil, want error")
	}
	if _, err := NewSemaphore(1, result.Reason{}); err == nil {
		t.Error("NewSemaphore(zero reason) error = nil, want error")
	}
}

func TestRateLimit_Gate(t *testing.T) {
	reasons := result.StandardRejections()
	rl, err := NewRateLimit(RateLimitConfig{
		Rate:   1,
		Burst:  2,
		Reason: reasons.MustReason(result.ReasonRateExceeded),
	})
	if err != nil {
		t.Fatalf("NewRateLimit() error = %v", err)
	}

	if _, ok := rl.AcquirePermit(1, 0); !ok {
		t.Fatal("first AcquirePermit denied, want admitted")
	}
	if _, ok := rl.AcquirePermit(1, 0); !ok {
		t.Fatal("second AcquirePermit denied, want admitted within burst")
	}

	reason, ok := rl.AcquirePermit(1, 0)
	if ok {
		t.Fatal("third AcquirePermit admitted, want denied past burst")
	}
	if reason.Name() != result.ReasonRateExceeded {
		t.Errorf("reason = %q, want rate-exceeded", reason.Name())
	}
}

func TestNewRateLimit_RequiresReason(t *testing.T) {
	if _, err := NewRateLimit(RateLimitConfig{}); err == nil {
		t.Error("NewRateLimit(no reason) error = nil, want error")
	}
}
