// Package otel publishes gallery counters through an OpenTelemetry Meter.
//
// [NewExporter] registers one Int64ObservableCounter per gallery counter and
// one Int64ObservableGauge per histogram bucket series, keyed by an "le"
// attribute. A single callback reads the metrics snapshot on each
// collection.
//
// # What this package must NOT do
//
//   - Own the MeterProvider. Callers supply the Meter.
//   - Mutate gallery state.
package otel
