package observe

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/jonwraymond/guardrail/rail"
)

// Prometheus metric descriptors for rail state.
var (
	descResults = prometheus.NewDesc(
		"guardrail_results_total",
		"Operations completed in the trailing window, by rail and outcome",
		[]string{"rail", "outcome"}, nil,
	)
	descRejected = prometheus.NewDesc(
		"guardrail_rejected_total",
		"Acquires denied in the trailing window, by rail and reason",
		[]string{"rail", "reason"}, nil,
	)
	descPermits = prometheus.NewDesc(
		"guardrail_permits_in_use",
		"Permits currently reserved, by rail and gate",
		[]string{"rail", "gate"}, nil,
	)
	descCapacity = prometheus.NewDesc(
		"guardrail_permit_capacity",
		"Permit capacity, by rail and gate",
		[]string{"rail", "gate"}, nil,
	)
)

// Collector exposes a set of guard rails on a Prometheus registry. The
// counters report each rail's counts over the collector's trailing
// window; gauges report semaphore permit state.
type Collector struct {
	window time.Duration

	mu    sync.RWMutex
	rails []*rail.GuardRail
}

// NewCollector builds a collector reporting over the given trailing
// window. A non-positive window reports each recorder's full ring span.
func NewCollector(window time.Duration) *Collector {
	return &Collector{window: window}
}

// Register adds a rail to the collector.
func (c *Collector) Register(r *rail.GuardRail) {
	c.mu.Lock()
	c.rails = append(c.rails, r)
	c.mu.Unlock()
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- descResults
	ch <- descRejected
	ch <- descPermits
	ch <- descCapacity
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	c.mu.RLock()
	rails := append([]*rail.GuardRail(nil), c.rails...)
	c.mu.RUnlock()

	for _, r := range rails {
		now := r.Clock().Nanos()

		counts := r.Results().Counts(c.window, now)
		for i, t := range r.ResultClass().Types() {
			ch <- prometheus.MustNewConstMetric(descResults, prometheus.GaugeValue,
				float64(counts[i]), r.Name(), t.Name())
		}

		rejected := r.RejectedCounts()
		for _, name := range rejected.Reasons().Names() {
			reason, err := rejected.Reasons().Reason(name)
			if err != nil {
				continue
			}
			n, err := rejected.Count(reason, c.window, now)
			if err != nil {
				continue
			}
			ch <- prometheus.MustNewConstMetric(descRejected, prometheus.GaugeValue,
				float64(n), r.Name(), name)
		}

		for _, g := range r.BackPressures() {
			sem, ok := g.Gate.(*rail.Semaphore)
			if !ok {
				continue
			}
			ch <- prometheus.MustNewConstMetric(descPermits, prometheus.GaugeValue,
				float64(sem.InUse()), r.Name(), g.Name)
			ch <- prometheus.MustNewConstMetric(descCapacity, prometheus.GaugeValue,
				float64(sem.Max()), r.Name(), g.Name)
		}
	}
}

// Ensure Collector implements prometheus.Collector.
var _ prometheus.Collector = (*Collector)(nil)
