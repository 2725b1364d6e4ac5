// Package rail implements the guard rail: the single acquire/release
// surface wrapped around every protected operation.
//
// A rail composes an ordered list of back-pressure gates with a result
// counter, a rejection counter, and an optional latency recorder. Every
// attempt acquires permits through the gates before running and reports
// its outcome on release; the first gate to deny wins and no partial
// acquisition survives.
//
//	sem, _ := rail.NewSemaphore(10, rejections.MustReason(result.ReasonMaxConcurrency))
//	r, _ := rail.NewBuilder("orders", counts, rejected).
//	    Latency(latency).
//	    AddBackPressure("semaphore", sem).
//	    Build()
//
//	permit, err := r.Acquire(1)
//	if err != nil {
//	    // err is a *rail.RejectedError carrying the structured reason
//	}
//	defer r.Release(permit, outcome)
//
// Acquire never blocks; callers that cannot be admitted decide for
// themselves whether to retry, fall back, or shed.
package rail
