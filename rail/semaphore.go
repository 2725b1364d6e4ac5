package rail

import (
	"fmt"
	"sync/atomic"

	"github.com/jonwraymond/guardrail/result"
)

// Semaphore is a non-blocking permit counter. Acquires beyond the
// configured maximum are denied with the semaphore's reason.
type Semaphore struct {
	max    int64
	reason result.Reason
	inUse  atomic.Int64
}

// NewSemaphore builds a semaphore admitting at most max concurrent
// permits, denying with reason.
func NewSemaphore(max int64, reason result.Reason) (*Semaphore, error) {
	if max <= 0 {
		return nil, fmt.Errorf("rail: semaphore max must be positive, got %d", max)
	}
	if !reason.Valid() {
		return nil, fmt.Errorf("rail: semaphore requires a rejection reason")
	}
	return &Semaphore{max: max, reason: reason}, nil
}

// AcquirePermit reserves n permits if in-use + n stays within the
// maximum.
func (s *Semaphore) AcquirePermit(n, nanoTime int64) (result.Reason, bool) {
	for {
		cur := s.inUse.Load()
		if cur+n > s.max {
			return s.reason, false
		}
		if s.inUse.CompareAndSwap(cur, cur+n) {
			return result.Reason{}, true
		}
	}
}

// ReleasePermit returns n permits.
func (s *Semaphore) ReleasePermit(n, nanoTime int64) {
	if s.inUse.Add(-n) < 0 {
		// Releasing more than was acquired is a caller bug; clamp so the
		// counter stays usable.
		s.inUse.Store(0)
	}
}

// ReleaseWithResult returns n permits. The semaphore does not consume
// outcomes.
func (s *Semaphore) ReleaseWithResult(t result.Type, n, start, nanoTime int64) {
	s.ReleasePermit(n, nanoTime)
}

// InUse returns the number of currently reserved permits.
func (s *Semaphore) InUse() int64 {
	return s.inUse.Load()
}

// Max returns the permit capacity.
func (s *Semaphore) Max() int64 {
	return s.max
}
