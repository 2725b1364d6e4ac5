package health

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// AggregatorConfig configures the health aggregator.
type AggregatorConfig struct {
	// Timeout is the maximum time to wait for all checks.
	// Default: 10 seconds
	Timeout time.Duration
}

// Aggregator runs registered checkers and rolls their verdicts up into a
// worst-state overall status.
type Aggregator struct {
	config AggregatorConfig

	mu       sync.RWMutex
	checkers map[string]Checker
	order    []string // registration order
}

// NewAggregator creates a new health aggregator.
func NewAggregator(config AggregatorConfig) *Aggregator {
	if config.Timeout <= 0 {
		config.Timeout = 10 * time.Second
	}
	return &Aggregator{
		config:   config,
		checkers: make(map[string]Checker),
	}
}

// Register adds a checker under its own name.
func (a *Aggregator) Register(c Checker) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, exists := a.checkers[c.Name()]; !exists {
		a.order = append(a.order, c.Name())
	}
	a.checkers[c.Name()] = c
}

// CheckerNames returns the registered names in registration order.
func (a *Aggregator) CheckerNames() []string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return append([]string(nil), a.order...)
}

// Check runs one named checker.
func (a *Aggregator) Check(ctx context.Context, name string) (Result, error) {
	a.mu.RLock()
	c, ok := a.checkers[name]
	a.mu.RUnlock()
	if !ok {
		return Result{}, ErrCheckerNotFound
	}
	return a.runCheck(ctx, c), nil
}

// CheckAll runs every registered checker concurrently and returns the
// results by name.
func (a *Aggregator) CheckAll(ctx context.Context) map[string]Result {
	a.mu.RLock()
	checkers := make([]Checker, 0, len(a.checkers))
	for _, name := range a.order {
		checkers = append(checkers, a.checkers[name])
	}
	a.mu.RUnlock()

	results := make(map[string]Result, len(checkers))
	if len(checkers) == 0 {
		return results
	}

	ctx, cancel := context.WithTimeout(ctx, a.config.Timeout)
	defer cancel()

	var mu sync.Mutex
	g, ctx := errgroup.WithContext(ctx)
	for _, c := range checkers {
		g.Go(func() error {
			r := a.runCheck(ctx, c)
			mu.Lock()
			results[c.Name()] = r
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// OverallStatus computes the worst-state rollup: any unhealthy check
// makes the whole set unhealthy, otherwise any degraded check makes it
// degraded.
func OverallStatus(results map[string]Result) Status {
	overall := StatusHealthy
	for _, r := range results {
		switch r.Status {
		case StatusUnhealthy:
			return StatusUnhealthy
		case StatusDegraded:
			overall = StatusDegraded
		}
	}
	return overall
}

func (a *Aggregator) runCheck(ctx context.Context, c Checker) Result {
	start := time.Now()
	resultCh := make(chan Result, 1)

	go func() {
		resultCh <- c.Check(ctx)
	}()

	select {
	case r := <-resultCh:
		if r.Timestamp.IsZero() {
			r.Timestamp = start
		}
		return r
	case <-ctx.Done():
		return Result{
			Status:    StatusUnhealthy,
			Message:   ErrCheckTimeout.Error(),
			Timestamp: start,
		}
	}
}
