// Package prometheus exposes authcore counters to Prometheus.
//
// [Collector] implements prometheus.Collector on top of
// Engine.MetricsSnapshot. Counter names are authcore_*_total; the single
// histogram is authcore_validate_latency_seconds. [Handler] serves a
// dedicated registry holding only that collector.
//
// # What this package must NOT do
//
//   - Register in the global Prometheus registry. Callers choose the registry.
//   - Mutate engine state.
package prometheus
