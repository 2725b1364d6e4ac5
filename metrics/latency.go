package metrics

import (
	"fmt"
	"sync"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"

	"github.com/jonwraymond/guardrail/result"
)

const (
	// DefaultHighestTrackable is the highest latency recorded when no
	// capacity is configured.
	DefaultHighestTrackable = time.Hour

	// DefaultSignificantDigits is the histogram precision applied when
	// none is configured.
	DefaultSignificantDigits = 2
)

// LatencyConfig fixes a recorder's histogram capacity.
type LatencyConfig struct {
	// HighestTrackable is the largest latency the histograms can record.
	// Larger samples are clamped. Default: one hour.
	HighestTrackable time.Duration

	// SignificantDigits is the number of significant value digits the
	// histograms preserve, between 1 and 5. Default: 2.
	SignificantDigits int
}

// LatencyRecorder records per-outcome latencies into HDR histograms and
// answers percentile and max queries.
type LatencyRecorder struct {
	class   *result.Class
	highest int64

	mu    []sync.Mutex
	hists []*hdrhistogram.Histogram
}

// NewLatencyRecorder builds a recorder for class with the given capacity.
func NewLatencyRecorder(class *result.Class, cfg LatencyConfig) (*LatencyRecorder, error) {
	if class == nil {
		return nil, fmt.Errorf("metrics: result class is required")
	}
	if cfg.HighestTrackable <= 0 {
		cfg.HighestTrackable = DefaultHighestTrackable
	}
	if cfg.SignificantDigits == 0 {
		cfg.SignificantDigits = DefaultSignificantDigits
	}
	if cfg.SignificantDigits < 1 || cfg.SignificantDigits > 5 {
		return nil, fmt.Errorf("metrics: significant digits must be in [1,5], got %d", cfg.SignificantDigits)
	}

	l := &LatencyRecorder{
		class:   class,
		highest: cfg.HighestTrackable.Nanoseconds(),
		mu:      make([]sync.Mutex, class.Size()),
		hists:   make([]*hdrhistogram.Histogram, class.Size()),
	}
	for i := range l.hists {
		l.hists[i] = hdrhistogram.New(1, l.highest, cfg.SignificantDigits)
	}
	return l, nil
}

// Class returns the result class the recorder was built for.
func (l *LatencyRecorder) Class() *result.Class {
	return l.class
}

// Record adds one latency sample for outcome t. Samples above the
// configured capacity are clamped, not dropped.
func (l *LatencyRecorder) Record(t result.Type, latencyNanos int64) error {
	if err := l.class.Check(t); err != nil {
		return err
	}
	if latencyNanos < 0 {
		latencyNanos = 0
	}
	if latencyNanos > l.highest {
		latencyNanos = l.highest
	}
	i := t.Index()
	l.mu[i].Lock()
	err := l.hists[i].RecordValue(latencyNanos)
	l.mu[i].Unlock()
	return err
}

// Percentile returns the latency at quantile q (for example 99.9) for
// outcome t, in nanoseconds.
func (l *LatencyRecorder) Percentile(t result.Type, q float64) (int64, error) {
	if err := l.class.Check(t); err != nil {
		return 0, err
	}
	i := t.Index()
	l.mu[i].Lock()
	v := l.hists[i].ValueAtQuantile(q)
	l.mu[i].Unlock()
	return v, nil
}

// Max returns the largest recorded latency for outcome t, in nanoseconds.
func (l *LatencyRecorder) Max(t result.Type) (int64, error) {
	if err := l.class.Check(t); err != nil {
		return 0, err
	}
	i := t.Index()
	l.mu[i].Lock()
	v := l.hists[i].Max()
	l.mu[i].Unlock()
	return v, nil
}

// SampleCount returns the number of samples recorded for outcome t.
func (l *LatencyRecorder) SampleCount(t result.Type) (int64, error) {
	if err := l.class.Check(t); err != nil {
		return 0, err
	}
	i := t.Index()
	l.mu[i].Lock()
	v := l.hists[i].TotalCount()
	l.mu[i].Unlock()
	return v, nil
}
