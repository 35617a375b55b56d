// Package metrics defines the Prometheus collectors exported by the service.
//
// Collectors are registered with the default registry using promauto. To
// expose them, mount promhttp.Handler() on an HTTP mux:
//
//	import "github.com/prometheus/client_golang/prometheus/promhttp"
//
//	mux.Handle("/metrics", promhttp.Handler())
//
// Call InitializeMetrics once at startup so all label combinations appear in
// the first scrape.
package metrics


