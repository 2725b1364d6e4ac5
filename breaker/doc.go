// Package breaker implements the circuit breaker gate: a state machine
// over rolling outcome counts that trips a rail open when the failure mix
// crosses its thresholds and probes for recovery after a backoff.
//
// The breaker reads the rail's result counter (passed by reference at
// construction; the rail owns the breaker as a gate, which keeps the
// dependency one-directional) and is informed of every released outcome
// through the gate's observer hook. Configuration sits behind an atomic
// reference and can be replaced while the breaker is live.
//
//	b, _ := breaker.New(counts, reason, breaker.Config{
//	    TrailingPeriod:   time.Second,
//	    FailureThreshold: 5,
//	    BackoffTime:      500 * time.Millisecond,
//	})
//	r, _ := rail.NewBuilder("orders", counts, rejected).
//	    AddBackPressure("breaker", b).
//	    AddBackPressure("semaphore", sem).
//	    Build()
package breaker
