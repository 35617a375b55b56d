package metrics

// InitializeMetrics pre-populates expected label combinations so every metric
// is exported from the first Prometheus scrape.
// Call this once at startup after metric registration.
func InitializeMetrics() {
	for _, status := range []string{"success", "rejected", "error"} {
		StoreUploadsTotal.WithLabelValues(status)
	}

	for _, op := range []string{"insert", "get", "list", "count", "stats"} {
		CatalogQueryTotal.WithLabelValues(op, "success")
		CatalogQueryTotal.WithLabelValues(op, "error")
		CatalogQueryDuration.WithLabelValues(op)
	}

	for _, kind := range []string{"full", "partial", "unsatisfiable", "not_found"} {
		DeliveryRequestsTotal.WithLabelValues(kind)
	}

	for _, mode := range []string{"single", "ladder"} {
		EncodeJobsTotal.WithLabelValues(mode, "success")
		EncodeJobsTotal.WithLabelValues(mode, "error")
		EncodeJobDuration.WithLabelValues(mode)
	}

	for _, res := range []string{"1080", "720", "480", "360"} {
		EncodeOutputBytes.WithLabelValues(res)
	}
}


