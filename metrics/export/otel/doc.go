// Package otel bridges authentication engine metrics into OpenTelemetry.
//
// [NewOTelExporter] registers observable counters on a caller-supplied
// [metric.Meter]; counter values are read from engine snapshots inside the
// meter's collection callback, so the engine pays no per-request cost.
//
// # What this package must NOT do
//
//   - Own a MeterProvider — callers configure the OTel SDK and pipeline.
//   - Mutate engine state.
package otel
