// Package prometheus exposes authentication engine metrics to Prometheus.
//
// [NewPrometheusExporter] accepts an [auth.Engine] and exposes an [http.Handler]
// that renders all engine counters in Prometheus text exposition format.
// Counter names are prefixed jobsdb_auth_*_total.
//
// # What this package must NOT do
//
//   - Register metrics in a global Prometheus registry — callers mount the Handler.
//   - Mutate engine state.
package prometheus
