// Package observe provides observability primitives for guard rails.
//
// It is a pure instrumentation library: no admission decisions, no
// execution, no I/O beyond exporter setup. Consumers wire the observer's
// meter into a rail gate, register the Prometheus collector over their
// rails, and hand the logger to executors and breaker callbacks.
package observe
