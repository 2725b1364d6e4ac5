package rail

import (
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"github.com/jonwraymond/guardrail/result"
)

// RateLimitConfig configures a rate-limit gate.
type RateLimitConfig struct {
	// Rate is the number of permits allowed per second.
	// Default: 100
	Rate float64

	// Burst is the maximum burst size.
	// Default: 10
	Burst int

	// Reason is the rejection reason returned when the limit is
	// exceeded. Required.
	Reason result.Reason
}

// RateLimit is a token-bucket back-pressure gate. Unlike the semaphore it
// has no release side: spent tokens refill with time, so both release
// hooks are no-ops.
type RateLimit struct {
	limiter *rate.Limiter
	reason  result.Reason
}

// NewRateLimit builds a rate-limit gate.
func NewRateLimit(cfg RateLimitConfig) (*RateLimit, error) {
	if cfg.Rate <= 0 {
		cfg.Rate = 100
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 10
	}
	if !cfg.Reason.Valid() {
		return nil, fmt.Errorf("rail: rate limit requires a rejection reason")
	}
	return &RateLimit{
		limiter: rate.NewLimiter(rate.Limit(cfg.Rate), cfg.Burst),
		reason:  cfg.Reason,
	}, nil
}

// AcquirePermit spends n tokens if the bucket holds them.
func (r *RateLimit) AcquirePermit(n, nanoTime int64) (result.Reason, bool) {
	if !r.limiter.AllowN(time.Now(), int(n)) {
		return r.reason, false
	}
	return result.Reason{}, true
}

// ReleasePermit is a no-op; tokens refill with time.
func (r *RateLimit) ReleasePermit(n, nanoTime int64) {}

// ReleaseWithResult is a no-op; tokens refill with time.
func (r *RateLimit) ReleaseWithResult(t result.Type, n, start, nanoTime int64) {}
