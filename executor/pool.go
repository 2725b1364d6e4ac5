package executor

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/jonwraymond/guardrail/clock"
	"github.com/jonwraymond/guardrail/observe"
	"github.com/jonwraymond/guardrail/promise"
	"github.com/jonwraymond/guardrail/rail"
	"github.com/jonwraymond/guardrail/timeout"
)

// PoolConfig configures a pool executor.
type PoolConfig struct {
	// PoolSize is the number of worker goroutines.
	// Default: 8
	PoolSize int

	// Timeouts is the deadline service used to arm submission timeouts.
	// When nil the pool constructs its own and owns its lifecycle.
	Timeouts *timeout.Service

	// Clock overrides the time source. Default: the system clock.
	Clock clock.Clock

	// Logger receives lifecycle events. Default: no logging.
	Logger observe.Logger
}

// Pool runs submissions on a fixed-size worker pool. The queue in front
// of the workers is FIFO and unbounded; bounding admission is the rail's
// job, and every queued task already holds its permits.
type Pool struct {
	clk         clock.Clock
	log         observe.Logger
	timeouts    *timeout.Service
	ownTimeouts bool

	mu       sync.Mutex
	cond     *sync.Cond
	queue    []*Task
	shutdown bool

	wg       sync.WaitGroup
	stopOnce sync.Once
}

// NewPool builds and starts a pool executor.
func NewPool(cfg PoolConfig) (*Pool, error) {
	if cfg.PoolSize <= 0 {
		cfg.PoolSize = 8
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.System()
	}

	p := &Pool{
		clk:      cfg.Clock,
		log:      cfg.Logger,
		timeouts: cfg.Timeouts,
	}
	p.cond = sync.NewCond(&p.mu)

	if p.timeouts == nil {
		p.timeouts = timeout.NewService(cfg.Clock)
		if err := p.timeouts.Start(); err != nil {
			return nil, err
		}
		p.ownTimeouts = true
	}

	p.wg.Add(cfg.PoolSize)
	for i := 0; i < cfg.PoolSize; i++ {
		go p.worker()
	}
	if p.log != nil {
		p.log.Info(context.Background(), "pool executor started",
			observe.Field{Key: "pool_size", Value: cfg.PoolSize})
	}
	return p, nil
}

// Submit implements Executor.
func (p *Pool) Submit(r *rail.GuardRail, action Action, limit time.Duration) (promise.Future, error) {
	outcomes, err := StandardOutcomes(r.ResultClass())
	if err != nil {
		return nil, err
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
	task := NewTask(pr, action, outcomes)

	p.mu.Lock()
	if p.shutdown {
		p.mu.Unlock()
		r.ReleaseWithoutResult(permit)
		reason, ok := reservedRejection(r, p.clk.Nanos())
		if !ok {
			return nil, ErrShutdown
		}
		return promise.RejectedFuture(reason), nil
	}
	p.queue = append(p.queue, task)
	p.cond.Signal()
	p.mu.Unlock()

	if limit > 0 {
		p.armTimeout(task, outcomes, permit.StartNanos+limit.Nanoseconds())
	}
	return pr.Future(), nil
}

func (p *Pool) armTimeout(task *Task, outcomes Outcomes, deadline int64) {
	h, err := p.timeouts.Schedule(deadline, func() {
		task.Cancel(outcomes.Timeout, timeout.ErrTimeout)
	})
	if err != nil {
		// Service already shut down; the task simply runs without a
		// deadline.
		return
	}
	task.Promise().OnComplete(func(promise.Completion) {
		h.Cancel()
	})
}

// Shutdown stops the pool after draining the queue. Running actions are
// not cancelled, though armed timeouts may still fire and cancel them.
func (p *Pool) Shutdown() {
	p.stopOnce.Do(func() {
		p.mu.Lock()
		p.shutdown = true
		p.cond.Broadcast()
		p.mu.Unlock()

		p.wg.Wait()
		if p.ownTimeouts {
			p.timeouts.Shutdown()
		}
		if p.log != nil {
			p.log.Info(context.Background(), "pool executor shut down")
		}
	})
}

func (p *Pool) worker() {
	defer p.wg.Done()
	for {
		p.mu.Lock()
		for len(p.queue) == 0 && !p.shutdown {
			p.cond.Wait()
		}
		if len(p.queue) == 0 {
			p.mu.Unlock()
			return
		}
		task := p.queue[0]
		p.queue = p.queue[1:]
		p.mu.Unlock()

		task.Run()
		task.finish()
	}
}
