// Package prometheus renders blogauth engine metrics in Prometheus text
// exposition format.
//
// [NewPrometheusExporter] wraps a [blogauth.Engine] and exposes an
// [http.Handler] for a scrape endpoint. Counters are named blogauth_*_total and
// the login histogram is blogauth_login_latency_seconds. [NewCollector] serves the
// same series through a client_golang registry.
//
// # What this package must NOT do
//
//   - Register with the global registry. Callers mount the Handler or register
//     the Collector themselves.
//   - Mutate engine state.
package prometheus
