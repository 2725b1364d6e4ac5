// Package metrics provides the rolling counters and latency recorders a
// guard rail aggregates outcomes into.
//
// Counts are bucketed by time: each recorder keeps a ring of fixed-width
// buckets and lazily recycles buckets older than the ring span on write.
// Writes are atomic adds on per-bucket counters; reads sum every bucket
// whose window intersects the queried trailing interval and are
// approximate under concurrent recycling.
//
// Latencies are recorded per outcome into HDR histograms with capacity
// (highest trackable value, significant digits) fixed at construction.
package metrics
