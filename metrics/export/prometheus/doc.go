// Package prometheus provides Prometheus collectors for signet metrics.
//
// [NewPrometheusExporter] accepts a [signet.Engine] and exposes an [http.Handler]
// that renders all signet counters and histograms in Prometheus text exposition format.
// Counter names are prefixed signet_*_total; the per-operation latency histograms are
// signet_sign_latency_seconds through signet_decrypt_latency_seconds.
//
// # What this package must NOT do
//
//   - Register metrics in a global Prometheus registry — callers mount the Handler.
//   - Mutate engine state.
package prometheus
