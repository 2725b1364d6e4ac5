// Package health surfaces the runtime state of guard rails as health
// checks: breaker state, semaphore saturation, and rejection pressure
// roll up into healthy/degraded/unhealthy verdicts with an HTTP surface
// for probes.
//
// The package is read-only over rail snapshots; it never changes
// admission state.
package health
