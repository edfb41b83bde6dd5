// Package otel binds goSession metrics to OpenTelemetry observable instruments.
//
// [NewOTelExporter] registers one Int64ObservableCounter per engine counter
// and one Int64ObservableGauge per lookup latency bucket. A single callback
// reads [goSession.Engine.MetricsSnapshot] on each collection cycle, and
// reports backend availability when the source exposes Health.
//
// # What this package must NOT do
//
//   - Own the MeterProvider; callers supply the Meter.
//   - Mutate engine state.
package otel
