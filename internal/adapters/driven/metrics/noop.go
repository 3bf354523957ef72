package metrics

import (
	"github.com/philiph/caddy-redirect-guard/internal/core/ports"
)

// NoopMetricsRecorder is a no-op implementation for when metrics are disabled.
// All methods are safe to call and do nothing.
type NoopMetricsRecorder struct{}

// NewNoopMetricsRecorder creates a new no-op metrics recorder.
func NewNoopMetricsRecorder() *NoopMetricsRecorder {
	return &NoopMetricsRecorder{}
}

// RecordDecision is a no-op.
func (n *NoopMetricsRecorder) RecordDecision(decision, code string) {}

// RecordTrustAssertion is a no-op.
func (n *NoopMetricsRecorder) RecordTrustAssertion(valid bool) {}

// RecordSitesRefresh is a no-op.
func (n *NoopMetricsRecorder) RecordSitesRefresh(source string, success bool, siteCount int) {}

// Ensure NoopMetricsRecorder implements ports.MetricsRecorder
var _ ports.MetricsRecorder = (*NoopMetricsRecorder)(nil)
