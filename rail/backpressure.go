package rail

import "github.com/jonwraymond/guardrail/result"

// BackPressure is a gate that can deny an acquire with a structured
// reason. Gates are registered on a rail in order; acquisition walks the
// list forward and release walks it in reverse.
//
// Contract:
//   - Concurrency: implementations must be safe for concurrent use.
//   - AcquirePermit must not block and must leave no side effect on denial.
//   - ReleasePermit returns permits without reporting a result and must not
//     feed outcome-driven state (a raw release is metric-less).
type BackPressure interface {
	// AcquirePermit admits or denies n permits at nanoTime. ok=false
	// carries the denial reason.
	AcquirePermit(n, nanoTime int64) (reason result.Reason, ok bool)

	// ReleasePermit returns n permits with no result attached.
	ReleasePermit(n, nanoTime int64)

	// ReleaseWithResult returns n permits and informs the gate of the
	// operation's outcome. start is the acquire-time nanos.
	ReleaseWithResult(t result.Type, n, start, nanoTime int64)
}
