package timeout

import (
	"container/heap"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonwraymond/guardrail/clock"
)

// idleWait bounds the sleep when no deadlines are queued; inserts wake
// the loop earlier.
const idleWait = time.Hour

// entry is one scheduled deadline.
type entry struct {
	deadline int64
	fire     func()
	handle   *Handle
}

// deadlineHeap orders entries by ascending deadline.
type deadlineHeap []*entry

func (h deadlineHeap) Len() int           { return len(h) }
func (h deadlineHeap) Less(i, j int) bool { return h[i].deadline < h[j].deadline }
func (h deadlineHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *deadlineHeap) Push(x any)        { *h = append(*h, x.(*entry)) }
func (h *deadlineHeap) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return e
}

// Handle cancels a scheduled deadline. Cancelling an already-fired
// deadline is a no-op.
type Handle struct {
	cancelled atomic.Bool
}

// Cancel prevents the deadline from firing. Best-effort: a deadline
// already being delivered still completes its callback.
func (h *Handle) Cancel() {
	h.cancelled.Store(true)
}

// Service is a deadline expirer backed by one background goroutine.
type Service struct {
	clk clock.Clock

	mu      sync.Mutex
	heap    deadlineHeap
	running bool
	stopped bool

	wake chan struct{}
	stop chan struct{}
	wg   sync.WaitGroup
}

// NewService builds a stopped service. A nil clock selects the system
// clock.
func NewService(clk clock.Clock) *Service {
	if clk == nil {
		clk = clock.System()
	}
	return &Service{
		clk:  clk,
		wake: make(chan struct{}, 1),
		stop: make(chan struct{}),
	}
}

// Start launches the expirer goroutine.
func (s *Service) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running || s.stopped {
		return ErrAlreadyStarted
	}
	s.running = true
	s.wg.Add(1)
	go s.run()
	return nil
}

// Shutdown stops the expirer and waits for it to exit. Pending deadlines
// are dropped without firing. Shutdown is idempotent.
func (s *Service) Shutdown() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	wasRunning := s.running
	s.running = false
	s.heap = nil
	s.mu.Unlock()

	if wasRunning {
		close(s.stop)
		s.wg.Wait()
	}
}

// Schedule registers fire to be invoked once deadlineNanos has passed. A
// deadline already in the past fires on the next tick; the caller never
// blocks.
func (s *Service) Schedule(deadlineNanos int64, fire func()) (*Handle, error) {
	h := &Handle{}
	e := &entry{deadline: deadlineNanos, fire: fire, handle: h}

	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil, ErrNotRunning
	}
	newHead := len(s.heap) == 0 || deadlineNanos < s.heap[0].deadline
	heap.Push(&s.heap, e)
	s.mu.Unlock()

	if newHead {
		select {
		case s.wake <- struct{}{}:
		default:
		}
	}
	return h, nil
}

// Pending returns the number of queued deadlines.
func (s *Service) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.heap)
}

func (s *Service) run() {
	defer s.wg.Done()
	for {
		now := s.clk.Nanos()
		expired, wait := s.takeExpired(now)
		for _, e := range expired {
			if !e.handle.cancelled.Load() {
				e.fire()
			}
		}

		select {
		case <-s.stop:
			return
		case <-s.wake:
		case <-s.clk.After(wait):
		}
	}
}

// takeExpired pops every entry due at now and returns how long to sleep
// until the next deadline.
func (s *Service) takeExpired(now int64) ([]*entry, time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var expired []*entry
	for len(s.heap) > 0 && s.heap[0].deadline <= now {
		expired = append(expired, heap.Pop(&s.heap).(*entry))
	}
	if len(s.heap) == 0 {
		return expired, idleWait
	}
	return expired, time.Duration(s.heap[0].deadline - now)
}

var (
	defaultMu  sync.Mutex
	defaultSvc *Service
)

// Default returns the process-wide shared service, starting it on first
// use. Callers that want isolation or deterministic clocks construct
// their own service instead.
func Default() *Service {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultSvc == nil {
		defaultSvc = NewService(nil)
		if err := defaultSvc.Start(); err != nil {
			panic(err)
		}
	}
	return defaultSvc
}
