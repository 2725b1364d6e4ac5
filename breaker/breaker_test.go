package breaker

import (
	"sync"
	"testing"
	"time"

	"github.com/jonwraymond/guardrail/metrics"
	"github.com/jonwraymond/guardrail/result"
)

func newTestBreaker(t *testing.T, cfg Config) (*Breaker, *metrics.CountRecorder, *result.Class) {
	t.Helper()
	class := result.Standard()
	counts, err := metrics.NewCountRecorder(class, 10, 200*time.Millisecond)
	if err != nil {
		t.Fatalf("NewCountRecorder() error = %v", err)
	}
	reasons := result.StandardRejections()
	b, err := New(counts, reasons.MustReason(result.ReasonCircuitOpen), cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return b, counts, class
}

// feedFailure records a failure into the counter and informs the breaker,
// the way a rail release does.
func feedFailure(b *Breaker, counts *metrics.CountRecorder, class *result.Class, nanoTime int64) {
	failure := class.MustType("error")
	_ = counts.Add(failure, 1, nanoTime)
	b.ReleaseWithResult(failure, 1, 0, nanoTime)
}

func feedSuccess(b *Breaker, counts *metrics.CountRecorder, class *result.Class, nanoTime int64) {
	success := class.MustType("success")
	_ = counts.Add(success, 1, nanoTime)
	b.ReleaseWithResult(success, 1, 0, nanoTime)
}

func TestBreaker_StaysClosedAtThreshold(t *testing.T) {
	b, counts, class := newTestBreaker(t, Config{
		TrailingPeriod:        time.Second,
		FailureThreshold:      5,
		SampleSizeThreshold:   1 << 30,
		HealthRefreshInterval: time.Nanosecond,
	})

	base := int64(1_000_000_000)
	// Five failures inside the window: still closed.
	for i := int64(0); i < 5; i++ {
		feedFailure(b, counts, class, base+i)
	}
	if b.State() != StateClosed {
		t.Fatalf("State() after 5 failures = %v, want closed", b.State())
	}

	// The sixth failure exceeds the threshold and trips the breaker.
	feedFailure(b, counts, class, base+5)
	if b.State() != StateOpen {
		t.Fatalf("State() after 6 failures = %v, want open", b.State())
	}

	reason, ok := b.AcquirePermit(1, base+6)
	if ok {
		t.Fatal("AcquirePermit() while open admitted, want denied")
	}
	if reason.Name() != result.ReasonCircuitOpen {
		t.Errorf("reason = %q, want circuit-open", reason.Name())
	}
}

func TestBreaker_BackoffBoundary(t *testing.T) {
	backoff := 100 * time.Millisecond
	b, counts, class := newTestBreaker(t, Config{
		TrailingPeriod:        time.Second,
		FailureThreshold:      1,
		SampleSizeThreshold:   1 << 30,
		BackoffTime:           backoff,
		HealthRefreshInterval: time.Nanosecond,
	})

	base := int64(1_000_000_000)
	feedFailure(b, counts, class, base)
	feedFailure(b, counts, class, base+1)
	if b.State() != StateOpen {
		t.Fatalf("State() = %v, want open", b.State())
	}
	openAt := b.openedAt.Load()

	// One nanosecond before the backoff expires: still rejected.
	if _, ok := b.AcquirePermit(1, openAt+backoff.Nanoseconds()-1); ok {
		t.Fatal("AcquirePermit() at backoff-1 admitted, want denied")
	}
	if b.State() != StateOpen {
		t.Fatalf("State() = %v, want open", b.State())
	}

	// At the backoff boundary exactly one probe is admitted.
	if _, ok := b.AcquirePermit(1, openAt+backoff.Nanoseconds()); !ok {
		t.Fatal("AcquirePermit() at backoff denied, want probe admitted")
	}
	if b.State() != StateHalfOpen {
		t.Fatalf("State() = %v, want half-open", b.State())
	}
	if _, ok := b.AcquirePermit(1, openAt+backoff.Nanoseconds()+1); ok {
		t.Fatal("second AcquirePermit() while half-open admitted, want denied")
	}
}

func TestBreaker_HalfOpenToClosed(t *testing.T) {
	b, counts, class := newTestBreaker(t, Config{
		TrailingPeriod:        time.Second,
		FailureThreshold:      1,
		SampleSizeThreshold:   1 << 30,
		BackoffTime:           time.Millisecond,
		HealthRefreshInterval: time.Nanosecond,
	})

	base := int64(1_000_000_000)
	feedFailure(b, counts, class, base)
	feedFailure(b, counts, class, base+1)

	probeAt := b.openedAt.Load() + time.Millisecond.Nanoseconds()
	if _, ok := b.AcquirePermit(1, probeAt); !ok {
		t.Fatal("probe denied, want admitted")
	}

	feedSuccess(b, counts, class, probeAt+10)
	if b.State() != StateClosed {
		t.Fatalf("State() after probe success = %v, want closed", b.State())
	}
	if _, ok := b.AcquirePermit(1, probeAt+20); !ok {
		t.Fatal("AcquirePermit() after close denied, want admitted")
	}
}

func TestBreaker_HalfOpenToOpen(t *testing.T) {
	b, counts, class := newTestBreaker(t, Config{
		TrailingPeriod:        time.Second,
		FailureThreshold:      1,
		SampleSizeThreshold:   1 << 30,
		BackoffTime:           time.Millisecond,
		HealthRefreshInterval: time.Nanosecond,
	})

	base := int64(1_000_000_000)
	feedFailure(b, counts, class, base)
	feedFailure(b, counts, class, base+1)

	probeAt := b.openedAt.Load() + time.Millisecond.Nanoseconds()
	if _, ok := b.AcquirePermit(1, probeAt); !ok {
		t.Fatal("probe denied, want admitted")
	}

	feedFailure(b, counts, class, probeAt+10)
	if b.State() != StateOpen {
		t.Fatalf("State() after probe failure = %v, want open", b.State())
	}
	if got := b.openedAt.Load(); got != probeAt+10 {
		t.Errorf("openedAt = %d, want %d", got, probeAt+10)
	}
}

func TestBreaker_PercentageThreshold(t *testing.T) {
	b, counts, class := newTestBreaker(t, Config{
		TrailingPeriod:             time.Second,
		FailureThreshold:           1 << 30,
		FailurePercentageThreshold: 50,
		SampleSizeThreshold:        10,
		HealthRefreshInterval:      time.Nanosecond,
	})

	base := int64(1_000_000_000)
	// 4 failures against 5 successes: 44%, volume 9 below sample size.
	for i := int64(0); i < 5; i++ {
		feedSuccess(b, counts, class, base+i)
	}
	for i := int64(5); i < 9; i++ {
		feedFailure(b, counts, class, base+i)
	}
	if b.State() != StateClosed {
		t.Fatalf("State() below sample size = %v, want closed", b.State())
	}

	// Tenth observation brings volume to 10 and the mix to 50%.
	feedFailure(b, counts, class, base+9)
	if b.State() != StateOpen {
		t.Fatalf("State() at 50%% of 10 = %v, want open", b.State())
	}
}

func TestBreaker_ForceOverrides(t *testing.T) {
	fc := &fakeClock{nanos: 1_000_000_000}
	b, _, _ := newTestBreaker(t, Config{Clock: fc})

	b.ForceOpen()
	if b.State() != StateOpen {
		t.Fatalf("State() after ForceOpen = %v, want open", b.State())
	}
	if _, ok := b.AcquirePermit(1, fc.nanos); ok {
		t.Fatal("AcquirePermit() after ForceOpen admitted, want denied")
	}

	b.ForceClosed()
	if b.State() != StateClosed {
		t.Fatalf("State() after ForceClosed = %v, want closed", b.State())
	}
	if _, ok := b.AcquirePermit(1, fc.nanos); !ok {
		t.Fatal("AcquirePermit() after ForceClosed denied, want admitted")
	}
}

func TestBreaker_OnStateChange(t *testing.T) {
	var mu sync.Mutex
	var transitions [][2]State

	b, counts, class := newTestBreaker(t, Config{
		TrailingPeriod:        time.Second,
		FailureThreshold:      1,
		SampleSizeThreshold:   1 << 30,
		BackoffTime:           time.Millisecond,
		HealthRefreshInterval: time.Nanosecond,
		OnStateChange: func(from, to State) {
			mu.Lock()
			transitions = append(transitions, [2]State{from, to})
			mu.Unlock()
		},
	})

	base := int64(1_000_000_000)
	feedFailure(b, counts, class, base)
	feedFailure(b, counts, class, base+1)

	probeAt := b.openedAt.Load() + time.Millisecond.Nanoseconds()
	b.AcquirePermit(1, probeAt)
	feedSuccess(b, counts, class, probeAt+10)

	mu.Lock()
	defer mu.Unlock()
	want := [][2]State{
		{StateClosed, StateOpen},
		{StateOpen, StateHalfOpen},
		{StateHalfOpen, StateClosed},
	}
	if len(transitions) != len(want) {
		t.Fatalf("transitions = %v, want %v", transitions, want)
	}
	for i := range want {
		if transitions[i] != want[i] {
			t.Errorf("transition %d = %v, want %v", i, transitions[i], want[i])
		}
	}
}

func TestBreaker_UpdateConfig(t *testing.T) {
	b, counts, class := newTestBreaker(t, Config{
		TrailingPeriod:        time.Second,
		FailureThreshold:      1 << 30,
		SampleSizeThreshold:   1 << 30,
		HealthRefreshInterval: time.Nanosecond,
	})

	base := int64(1_000_000_000)
	feedFailure(b, counts, class, base)
	if b.State() != StateClosed {
		t.Fatalf("State() = %v, want closed", b.State())
	}

	if err := b.UpdateConfig(Config{
		TrailingPeriod:        time.Second,
		FailureThreshold:      1,
		SampleSizeThreshold:   1 << 30,
		HealthRefreshInterval: time.Nanosecond,
	}); err != nil {
		t.Fatalf("UpdateConfig() error = %v", err)
	}

	feedFailure(b, counts, class, base+1)
	if b.State() != StateOpen {
		t.Fatalf("State() after tighter config = %v, want open", b.State())
	}
}

func TestBreaker_RawReleaseDoesNotInform(t *testing.T) {
	b, counts, class := newTestBreaker(t, Config{
		TrailingPeriod:        time.Second,
		FailureThreshold:      1,
		SampleSizeThreshold:   1 << 30,
		HealthRefreshInterval: time.Nanosecond,
	})

	base := int64(1_000_000_000)
	// Seed the counter well past the threshold, then release raw: the
	// breaker must not read health and trip.
	failure := class.MustType("error")
	_ = counts.Add(failure, 10, base)
	b.ReleasePermit(1, base)

	if b.State() != StateClosed {
		t.Fatalf("State() after raw release = %v, want closed", b.State())
	}
}

func TestNew_Invalid(t *testing.T) {
	counts, _ := metrics.NewCountRecorder(result.Standard(), 10, time.Second)
	reasons := result.StandardRejections()

	if _, err := New(nil, reasons.MustReason(result.ReasonCircuitOpen), Config{}); err == nil {
		t.Error("New(nil counts) error = nil, want error")
	}
	if _, err := New(counts, result.Reason{}, Config{}); err == nil {
		t.Error("New(zero reason) error = nil, want error")
	}
	if _, err := New(counts, reasons.MustReason(result.ReasonCircuitOpen), Config{FailurePercentageThreshold: 150}); err == nil {
		t.Error("New(pct 150) error = nil, want error")
	}
}

func TestNoOp(t *testing.T) {
	var b NoOp
	if _, ok := b.AcquirePermit(1, 0); !ok {
		t.Error("NoOp.AcquirePermit denied, want admitted")
	}
	if b.State() != StateClosed {
		t.Errorf("NoOp.State() = %v, want closed", b.State())
	}
	b.ReleasePermit(1, 0)
	b.ReleaseWithResult(result.Type{}, 1, 0, 0)
}

func TestState_String(t *testing.T) {
	tests := []struct {
		state State
		want  string
	}{
		{StateClosed, "closed"},
		{StateOpen, "open"},
		{StateHalfOpen, "half-open"},
		{State(99), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.state.String(); got != tt.want {
				t.Errorf("State.String() = %v, want %v", got, tt.want)
			}
		})
	}
}
