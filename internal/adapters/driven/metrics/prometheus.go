package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/philiph/caddy-redirect-guard/internal/core/ports"
)

// PrometheusMetricsRecorder records metrics using Prometheus.
type PrometheusMetricsRecorder struct {
	decisionsTotal       *prometheus.CounterVec
	trustAssertionsTotal *prometheus.CounterVec
	sitesRefreshTotal    *prometheus.CounterVec
	sitesLoaded          *prometheus.GaugeVec
}

// NewPrometheusMetricsRecorder creates a new Prometheus metrics recorder
// using the default Prometheus registry.
func NewPrometheusMetricsRecorder() *PrometheusMetricsRecorder {
	return NewPrometheusMetricsRecorderWithRegistry(prometheus.DefaultRegisterer)
}

// NewPrometheusMetricsRecorderWithRegistry creates a new Prometheus metrics recorder
// with a custom registry. Use this for testing.
//
// Collectors already registered by an earlier instance (after a config
// reload) are reused.
func NewPrometheusMetricsRecorderWithRegistry(reg prometheus.Registerer) *PrometheusMetricsRecorder {
	decisionsTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "redirect_guard_decisions_total",
		Help: "Total redirect guard decisions",
	}, []string{"decision", "code"})

	trustAssertionsTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "redirect_guard_trust_assertions_total",
		Help: "Total trusted-redirect assertions verified",
	}, []string{"result"})

	sitesRefreshTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "redirect_guard_sites_refresh_total",
		Help: "Total site policy refresh attempts",
	}, []string{"source", "result"})

	sitesLoaded := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "redirect_guard_sites_loaded",
		Help: "Current number of loaded site policies",
	}, []string{"source"})

	return &PrometheusMetricsRecorder{
		decisionsTotal:       register(reg, decisionsTotal),
		trustAssertionsTotal: register(reg, trustAssertionsTotal),
		sitesRefreshTotal:    register(reg, sitesRefreshTotal),
		sitesLoaded:          register(reg, sitesLoaded),
	}
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) C {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing
			}
		}
		panic(err)
	}
	return c
}

// RecordDecision records one guard decision.
func (p *PrometheusMetricsRecorder) RecordDecision(decision, code string) {
	p.decisionsTotal.WithLabelValues(decision, code).Inc()
}

// RecordTrustAssertion records a trust header verification result.
func (p *PrometheusMetricsRecorder) RecordTrustAssertion(valid bool) {
	result := "invalid"
	if valid {
		result = "valid"
	}
	p.trustAssertionsTotal.WithLabelValues(result).Inc()
}

// RecordSitesRefresh records a site policy refresh attempt.
func (p *PrometheusMetricsRecorder) RecordSitesRefresh(source string, success bool, siteCount int) {
	result := "failure"
	if success {
		result = "success"
		p.sitesLoaded.WithLabelValues(source).Set(float64(siteCount))
	}
	p.sitesRefreshTotal.WithLabelValues(source, result).Inc()
}

// Ensure PrometheusMetricsRecorder implements ports.MetricsRecorder
var _ ports.MetricsRecorder = (*PrometheusMetricsRecorder)(nil)
