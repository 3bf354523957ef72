package ports

// MetricsRecorder is the port interface for recording metrics.
// Implementations are adapters (PrometheusMetricsRecorder for production,
// NoopMetricsRecorder for disabled/testing).
type MetricsRecorder interface {
	// RecordDecision records one guard decision ("accepted", "rewritten",
	// "rejected", "trusted", "skipped") with the error code for rejections.
	RecordDecision(decision, code string)

	// RecordTrustAssertion records the outcome of verifying a trust header.
	RecordTrustAssertion(valid bool)

	// RecordSitesRefresh records a site policy reload attempt.
	RecordSitesRefresh(source string, success bool, siteCount int)
}
