package health

import (
	"context"
	"fmt"
	"time"

	"github.com/jonwraymond/guardrail/breaker"
	"github.com/jonwraymond/guardrail/rail"
)

// RailCheckerConfig tunes a rail health check.
type RailCheckerConfig struct {
	// SaturationThreshold is the semaphore utilization (0-1) at or above
	// which the rail reports degraded.
	// Default: 0.9
	SaturationThreshold float64

	// RejectionWindow is the trailing interval rejection pressure is
	// read over. Non-positive reads the recorder's full ring.
	RejectionWindow time.Duration
}

// RailChecker reports the health of one guard rail: an open breaker is
// unhealthy, a half-open breaker or a saturated semaphore is degraded.
type RailChecker struct {
	cfg  RailCheckerConfig
	rail *rail.GuardRail
}

// NewRailChecker builds a checker over r.
func NewRailChecker(r *rail.GuardRail, cfg RailCheckerConfig) (*RailChecker, error) {
	if r == nil {
		return nil, fmt.Errorf("health: rail is required")
	}
	if cfg.SaturationThreshold <= 0 || cfg.SaturationThreshold > 1 {
		cfg.SaturationThreshold = 0.9
	}
	return &RailChecker{cfg: cfg, rail: r}, nil
}

// Name identifies this checker as its rail.
func (c *RailChecker) Name() string {
	return c.rail.Name()
}

// Check inspects the rail's gates and rejection counters.
func (c *RailChecker) Check(ctx context.Context) Result {
	now := c.rail.Clock().Nanos()
	status := StatusHealthy
	message := "admitting"
	details := map[string]any{}

	for _, g := range c.rail.BackPressures() {
		switch gate := g.Gate.(type) {
		case *breaker.Breaker:
			state := gate.State()
			details[g.Name+".state"] = state.String()
			switch state {
			case breaker.StateOpen:
				status = StatusUnhealthy
				message = "circuit open"
			case breaker.StateHalfOpen:
				if status == StatusHealthy {
					status = StatusDegraded
					message = "circuit probing"
				}
			}
		case *rail.Semaphore:
			inUse, max := gate.InUse(), gate.Max()
			details[g.Name+".in_use"] = inUse
			details[g.Name+".max"] = max
			if float64(inUse) >= c.cfg.SaturationThreshold*float64(max) && status == StatusHealthy {
				status = StatusDegraded
				message = "permits saturated"
			}
		}
	}

	rejected := c.rail.RejectedCounts()
	var totalRejected int64
	for _, name := range rejected.Reasons().Names() {
		reason, err := rejected.Reasons().Reason(name)
		if err != nil {
			continue
		}
		n, err := rejected.Count(reason, c.cfg.RejectionWindow, now)
		if err != nil {
			continue
		}
		details["rejected."+name] = n
		totalRejected += n
	}
	details["rejected.total"] = totalRejected

	return Result{
		Status:    status,
		Message:   message,
		Details:   details,
		Timestamp: time.Now(),
	}
}
