package caddyredirectguard

import (
	"github.com/philiph/caddy-redirect-guard/internal/adapters/driven/metrics"
	"github.com/philiph/caddy-redirect-guard/internal/core/ports"
)

// Re-export metrics port and adapters
type MetricsRecorder = ports.MetricsRecorder
type NoopMetricsRecorder = metrics.NoopMetricsRecorder
type PrometheusMetricsRecorder = metrics.PrometheusMetricsRecorder

var (
	NewNoopMetricsRecorder                   = metrics.NewNoopMetricsRecorder
	NewPrometheusMetricsRecorder             = metrics.NewPrometheusMetricsRecorder
	NewPrometheusMetricsRecorderWithRegistry = metrics.NewPrometheusMetricsRecorderWithRegistry
)
