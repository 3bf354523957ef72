package guard

import (
	"go.uber.org/zap"

	"github.com/philiph/caddy-redirect-guard/internal/core/domain"
	"github.com/philiph/caddy-redirect-guard/internal/core/ports"
)

// Option is a functional option for configuring a RedirectGuard.
type Option func(*RedirectGuard)

// WithLogger sets the logger that receives rejection warnings.
func WithLogger(logger *zap.Logger) Option {
	return func(g *RedirectGuard) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// WithMetricsRecorder sets the recorder for guard decisions.
func WithMetricsRecorder(recorder ports.MetricsRecorder) Option {
	return func(g *RedirectGuard) {
		if recorder != nil {
			g.metrics = recorder
		}
	}
}

// WithDestinationParam changes the query parameter read as the destination
// hint. Empty keeps the default.
func WithDestinationParam(name string) Option {
	return func(g *RedirectGuard) {
		if name != "" {
			g.destinationParam = name
		}
	}
}

// WithExternalSchemes replaces the list of protocols that make a hint an
// absolute URL.
func WithExternalSchemes(schemes []string) Option {
	return func(g *RedirectGuard) {
		if len(schemes) > 0 {
			g.externalSchemes = schemes
		}
	}
}

// WithOriginPolicy sets the policy used by CheckRedirectURL.
func WithOriginPolicy(policy domain.OriginPolicy) Option {
	return func(g *RedirectGuard) {
		g.policy = policy
	}
}

// WithIncidentIDFunc replaces the incident ID generator. Used by tests.
func WithIncidentIDFunc(fn func() string) Option {
	return func(g *RedirectGuard) {
		if fn != nil {
			g.newIncidentID = fn
		}
	}
}
