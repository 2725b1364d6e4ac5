package executor

import (
	"container/heap"
	"context"
	"errors"
	"runtime"
	"sync"
	"time"

	"github.com/jonwraymond/guardrail/clock"
	"github.com/jonwraymond/guardrail/observe"
	"github.com/jonwraymond/guardrail/promise"
	"github.com/jonwraymond/guardrail/rail"
	"github.com/jonwraymond/guardrail/timeout"
)

// Idle decay thresholds. Tunable: the exact values only shape how fast
// an idle coordinator backs off from spinning to parking.
const (
	spinBusy     = 100
	spinYield    = 1000
	parkDuration = time.Microsecond
)

// loopItem is one submission owned by the coordinator.
type loopItem struct {
	task     *Task
	outcomes Outcomes
	deadline int64 // 0 means no timeout
}

// loopReturn carries a worker's raw result back to the coordinator.
type loopReturn struct {
	item *loopItem
	v    any
	err  error
	ran  bool
}

// itemHeap orders live items by ascending deadline.
type itemHeap []*loopItem

func (h itemHeap) Len() int           { return len(h) }
func (h itemHeap) Less(i, j int) bool { return h[i].deadline < h[j].deadline }
func (h itemHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *itemHeap) Push(x any)        { *h = append(*h, x.(*loopItem)) }
func (h *itemHeap) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return e
}

// LoopConfig configures a scheduler loop.
type LoopConfig struct {
	// PoolSize is the number of worker goroutines and the per-cycle
	// drain budget for each queue.
	// Default: 4
	PoolSize int

	// QueueDepth is the capacity of the submission and return queues.
	// A full submission queue rejects with the executor's reserved
	// reason.
	// Default: 64
	QueueDepth int

	// Clock overrides the time source. Default: the system clock.
	Clock clock.Clock

	// Logger receives lifecycle events. Default: no logging.
	Logger observe.Logger
}

// Loop is the single-coordinator executor. One goroutine multiplexes
// submission dispatch, completion delivery, and timeout firing; workers
// only run actions and hand raw results back.
type Loop struct {
	poolSize int
	clk      clock.Clock
	log      observe.Logger

	submissions chan *loopItem
	returns     chan *loopReturn
	work        chan *loopItem

	// Coordinator-owned. Only the run goroutine (or tests driving
	// runOnce directly) may touch these.
	deadlines itemHeap
	live      map[*loopItem]struct{}

	shutdown chan struct{}
	done     chan struct{}
	workerWG sync.WaitGroup
	stopOnce sync.Once
	started  bool
}

// NewLoop builds and starts a scheduler loop.
func NewLoop(cfg LoopConfig) (*Loop, error) {
	l := newLoop(cfg)
	l.start()
	return l, nil
}

func newLoop(cfg LoopConfig) *Loop {
	if cfg.PoolSize <= 0 {
		cfg.PoolSize = 4
	}
	if cfg.QueueDepth <= 0 {
		cfg.QueueDepth = 64
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.System()
	}
	return &Loop{
		poolSize:    cfg.PoolSize,
		clk:         cfg.Clock,
		log:         cfg.Logger,
		submissions: make(chan *loopItem, cfg.QueueDepth),
		returns:     make(chan *loopReturn, cfg.QueueDepth),
		work:        make(chan *loopItem, cfg.QueueDepth),
		live:        make(map[*loopItem]struct{}),
		shutdown:    make(chan struct{}),
		done:        make(chan struct{}),
	}
}

func (l *Loop) start() {
	l.started = true
	l.workerWG.Add(l.poolSize)
	for i := 0; i < l.poolSize; i++ {
		go l.worker()
	}
	go l.run()
	if l.log != nil {
		l.log.Info(context.Background(), "scheduler loop started",
			observe.Field{Key: "pool_size", Value: l.poolSize})
	}
}

// Submit implements Executor.
func (l *Loop) Submit(r *rail.GuardRail, action Action, limit time.Duration) (promise.Future, error) {
	outcomes, err := StandardOutcomes(r.ResultClass())
	if err != nil {
		return nil, err
	}
	if l.isShutdown() {
		reason, ok := reservedRejection(r, l.clk.Nanos())
		if !ok {
			return nil, ErrShutdown
		}
		return promise.RejectedFuture(reason), nil
	}

	permit, err := r.Acquire(1)
	if err != nil {
		var rejected *rail.RejectedError
		if errors.As(err, &rejected) {
			return promise.RejectedFuture(rejected.Reason), nil
		}
		return nil, err
	}

	pr := bindPromise(r, permit)
	item := &loopItem{
		task:     NewTask(pr, action, outcomes),
		outcomes: outcomes,
	}
	if limit > 0 {
		item.deadline = permit.StartNanos + limit.Nanoseconds()
	}

	select {
	case l.submissions <- item:
		return pr.Future(), nil
	default:
	}

	// Queue full or racing a shutdown; the permit is returned untouched
	// and the denial surfaces as a rejection.
	r.ReleaseWithoutResult(permit)
	reason, ok := reservedRejection(r, l.clk.Nanos())
	if !ok {
		return nil, ErrShutdown
	}
	return promise.RejectedFuture(reason), nil
}

// Shutdown drains live work, then stops the coordinator and workers.
func (l *Loop) Shutdown() {
	l.stopOnce.Do(func() {
		close(l.shutdown)
		if l.started {
			<-l.done
		}
		if l.log != nil {
			l.log.Info(context.Background(), "scheduler loop shut down")
		}
	})
}

func (l *Loop) isShutdown() bool {
	select {
	case <-l.shutdown:
		return true
	default:
		return false
	}
}

// run is the coordinator. Each cycle drains up to poolSize submissions,
// up to poolSize returns, and every expired deadline; an idle loop
// degrades from busy-spin to yield to a short park.
func (l *Loop) run() {
	defer close(l.done)
	spins := 0
	for {
		if l.runOnce() {
			spins = 0
			continue
		}
		if l.isShutdown() && len(l.live) == 0 && len(l.submissions) == 0 {
			break
		}
		spins++
		switch {
		case spins < spinBusy:
			// Busy-spin while work is likely imminent.
		case spins < spinYield:
			runtime.Gosched()
		default:
			time.Sleep(parkDuration)
		}
	}

	close(l.work)
	go func() {
		l.workerWG.Wait()
		close(l.returns)
	}()
	// Late returns from timed-out actions are drained and discarded.
	for range l.returns {
	}
}

// runOnce performs one coordinator cycle and reports whether any step
// did work.
func (l *Loop) runOnce() bool {
	did := false
	for i := 0; i < l.poolSize; i++ {
		if !l.handleSubmission() {
			break
		}
		did = true
	}
	for i := 0; i < l.poolSize; i++ {
		if !l.handleReturn() {
			break
		}
		did = true
	}
	if l.fireTimeouts(l.clk.Nanos()) {
		did = true
	}
	return did
}

func (l *Loop) handleSubmission() bool {
	if len(l.work) == cap(l.work) {
		// Workers are saturated; leave the submission queued so the
		// cycle never blocks and timeouts keep firing.
		return false
	}
	select {
	case item := <-l.submissions:
		l.live[item] = struct{}{}
		if item.deadline > 0 {
			heap.Push(&l.deadlines, item)
		}
		l.work <- item
		return true
	default:
		return false
	}
}

func (l *Loop) handleReturn() bool {
	select {
	case ret := <-l.returns:
		if _, ok := l.live[ret.item]; ok {
			delete(l.live, ret.item)
			if ret.ran {
				ret.item.task.Deliver(ret.v, ret.err)
			}
			ret.item.task.finish()
		}
		return true
	default:
		return false
	}
}

// fireTimeouts cancels every live task whose deadline has passed.
// Cancellation is idempotent against a return delivered the same cycle:
// once an item leaves the live set its deadline entry is inert.
func (l *Loop) fireTimeouts(now int64) bool {
	fired := false
	for l.deadlines.Len() > 0 && l.deadlines[0].deadline <= now {
		item := heap.Pop(&l.deadlines).(*loopItem)
		if _, ok := l.live[item]; !ok {
			continue
		}
		delete(l.live, item)
		item.task.Cancel(item.outcomes.Timeout, timeout.ErrTimeout)
		fired = true
	}
	return fired
}

func (l *Loop) worker() {
	defer l.workerWG.Done()
	for item := range l.work {
		v, err, ran := item.task.Invoke()
		l.returns <- &loopReturn{item: item, v: v, err: err, ran: ran}
	}
}
