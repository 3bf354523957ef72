package caddy

import (
	"github.com/philiph/caddy-redirect-guard/internal/core/domain"
	"github.com/philiph/caddy-redirect-guard/internal/core/ports"
)

// NewRedirectGuardForTest creates a RedirectGuard instance with injected dependencies.
// This constructor is intended for testing purposes only.
func NewRedirectGuardForTest(
	config Config,
	verifier ports.TrustVerifier,
	siteStore ports.SiteStore,
	metricsRecorder ports.MetricsRecorder,
) *RedirectGuard {
	// Initialize template renderer with embedded templates
	renderer, err := NewTemplateRenderer()
	if err != nil {
		// This should never fail with embedded templates
		panic("failed to load embedded templates: " + err.Error())
	}

	g := &RedirectGuard{
		Config: config,
	}
	g.Config.SetDefaults()
	policy, err := domain.ParseSchemePolicy(g.SchemePolicy)
	if err != nil {
		panic("invalid scheme policy: " + err.Error())
	}

	g.SetTrustVerifier(verifier)
	g.SetSiteStore(siteStore)
	g.SetMetricsRecorder(metricsRecorder)
	g.templateRenderer = renderer
	g.wire(policy)

	return g
}
