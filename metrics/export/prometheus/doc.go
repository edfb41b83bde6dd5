// Package prometheus renders goSession metrics in the Prometheus text
// exposition format.
//
// [NewPrometheusExporter] reads [goSession.Engine.MetricsSnapshot] on every
// scrape. Counters are named gosession_*_total and the lookup latency
// histogram is gosession_lookup_latency_seconds. When the source can report
// backend health, a gosession_backend_up gauge is added.
//
// # What this package must NOT do
//
//   - Register metrics in a global Prometheus registry; callers mount the Handler.
//   - Mutate engine state.
package prometheus
