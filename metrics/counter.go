package metrics

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/jonwraymond/guardrail/result"
)

const (
	// DefaultBuckets is the ring size applied when none is configured.
	DefaultBuckets = 60

	// DefaultBucketWidth is the bucket width applied when none is
	// configured.
	DefaultBucketWidth = time.Second
)

// bucket is one slot of the ring. epoch holds the absolute window number
// the slot currently represents; counts are per member of the class.
type bucket struct {
	epoch  atomic.Int64
	counts []atomic.Int64
}

// ring is the shared bucketed-count machinery behind CountRecorder and
// RejectedRecorder.
type ring struct {
	width   int64 // bucket width in nanoseconds
	buckets []bucket
}

func newRing(slots int, width time.Duration, members int) (*ring, error) {
	if slots <= 0 {
		slots = DefaultBuckets
	}
	if width <= 0 {
		width = DefaultBucketWidth
	}
	if width < time.Millisecond {
		return nil, fmt.Errorf("metrics: bucket width %v below 1ms floor", width)
	}
	r := &ring{width: width.Nanoseconds(), buckets: make([]bucket, slots)}
	for i := range r.buckets {
		r.buckets[i].epoch.Store(-1)
		r.buckets[i].counts = make([]atomic.Int64, members)
	}
	return r, nil
}

// add records n into the bucket containing nanoTime for member idx,
// recycling the slot if it still holds an older window. The recycle CAS
// has one winner; counts written by racers between the CAS and the zeroing
// may be dropped, which keeps reads approximate rather than blocking.
func (r *ring) add(idx int, n, nanoTime int64) {
	abs := nanoTime / r.width
	b := &r.buckets[abs%int64(len(r.buckets))]
	for {
		epoch := b.epoch.Load()
		if epoch == abs {
			break
		}
		if epoch > abs {
			// Writer is behind the ring; drop rather than corrupt a
			// newer window.
			return
		}
		if b.epoch.CompareAndSwap(epoch, abs) {
			for i := range b.counts {
				b.counts[i].Store(0)
			}
			break
		}
	}
	b.counts[idx].Add(n)
}

// sum aggregates member idx over the trailing interval ending at nanoTime.
func (r *ring) sum(idx int, trailing, nanoTime int64) int64 {
	oldest := (nanoTime - trailing) / r.width
	newest := nanoTime / r.width
	var total int64
	for i := range r.buckets {
		b := &r.buckets[i]
		epoch := b.epoch.Load()
		if epoch >= oldest && epoch <= newest {
			total += b.counts[idx].Load()
		}
	}
	return total
}

// span returns the total interval the ring can cover.
func (r *ring) span() time.Duration {
	return time.Duration(r.width * int64(len(r.buckets)))
}

// CountRecorder counts completed operations per outcome over a rolling
// window.
type CountRecorder struct {
	class   *result.Class
	ring    *ring
	failure []bool
}

// NewCountRecorder builds a recorder for class with a ring of `slots`
// buckets of the given width. Non-positive arguments take the package
// defaults.
func NewCountRecorder(class *result.Class, slots int, width time.Duration) (*CountRecorder, error) {
	if class == nil {
		return nil, fmt.Errorf("metrics: result class is required")
	}
	r, err := newRing(slots, width, class.Size())
	if err != nil {
		return nil, err
	}
	failure := make([]bool, class.Size())
	for _, t := range class.Types() {
		failure[t.Index()] = t.Failure()
	}
	return &CountRecorder{class: class, ring: r, failure: failure}, nil
}

// Class returns the result class the recorder was built for.
func (c *CountRecorder) Class() *result.Class {
	return c.class
}

// Add records n occurrences of outcome t at nanoTime.
func (c *CountRecorder) Add(t result.Type, n, nanoTime int64) error {
	if err := c.class.Check(t); err != nil {
		return err
	}
	c.ring.add(t.Index(), n, nanoTime)
	return nil
}

// Count sums outcome t over the trailing interval ending at nanoTime.
func (c *CountRecorder) Count(t result.Type, trailing time.Duration, nanoTime int64) (int64, error) {
	if err := c.class.Check(t); err != nil {
		return 0, err
	}
	return c.ring.sum(t.Index(), clampTrailing(trailing, c.ring), nanoTime), nil
}

// Health aggregates the trailing interval into the totals a circuit
// breaker samples.
func (c *CountRecorder) Health(trailing time.Duration, nanoTime int64) Health {
	tr := clampTrailing(trailing, c.ring)
	var h Health
	for i := range c.failure {
		n := c.ring.sum(i, tr, nanoTime)
		h.Total += n
		if c.failure[i] {
			h.Failures += n
		}
	}
	return h
}

// Counts returns per-outcome totals over the trailing interval, indexed
// by the class's declaration order.
func (c *CountRecorder) Counts(trailing time.Duration, nanoTime int64) []int64 {
	tr := clampTrailing(trailing, c.ring)
	out := make([]int64, len(c.failure))
	for i := range out {
		out[i] = c.ring.sum(i, tr, nanoTime)
	}
	return out
}

// Health is a point-in-time aggregate of a trailing window.
type Health struct {
	// Total is the number of completed operations in the window.
	Total int64

	// Failures is the number of those tagged as failures.
	Failures int64
}

// FailurePercentage returns failures over total in [0,100], or 0 for an
// empty window.
func (h Health) FailurePercentage() float64 {
	if h.Total == 0 {
		return 0
	}
	return float64(h.Failures) / float64(h.Total) * 100
}

// RejectedRecorder counts denied acquires per rejection reason over a
// rolling window.
type RejectedRecorder struct {
	reasons *result.Rejections
	ring    *ring
}

// NewRejectedRecorder builds a recorder for the rejection class with a
// ring of `slots` buckets of the given width. Non-positive arguments take
// the package defaults.
func NewRejectedRecorder(reasons *result.Rejections, slots int, width time.Duration) (*RejectedRecorder, error) {
	if reasons == nil {
		return nil, fmt.Errorf("metrics: rejection class is required")
	}
	r, err := newRing(slots, width, reasons.Size())
	if err != nil {
		return nil, err
	}
	return &RejectedRecorder{reasons: reasons, ring: r}, nil
}

// Reasons returns the rejection class the recorder was built for.
func (c *RejectedRecorder) Reasons() *result.Rejections {
	return c.reasons
}

// Add records n denials for reason at nanoTime.
func (c *RejectedRecorder) Add(reason result.Reason, n, nanoTime int64) error {
	if !c.reasons.Contains(reason) {
		return &result.InvalidReasonError{Name: reason.Name(), Valid: c.reasons.Names()}
	}
	c.ring.add(reason.Index(), n, nanoTime)
	return nil
}

// Count sums denials for reason over the trailing interval ending at
// nanoTime.
func (c *RejectedRecorder) Count(reason result.Reason, trailing time.Duration, nanoTime int64) (int64, error) {
	if !c.reasons.Contains(reason) {
		return 0, &result.InvalidReasonError{Name: reason.Name(), Valid: c.reasons.Names()}
	}
	return c.ring.sum(reason.Index(), clampTrailing(trailing, c.ring), nanoTime), nil
}

func clampTrailing(trailing time.Duration, r *ring) int64 {
	if trailing <= 0 || trailing > r.span() {
		return r.span().Nanoseconds()
	}
	return trailing.Nanoseconds()
}
