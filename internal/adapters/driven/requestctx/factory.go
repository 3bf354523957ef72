// Package requestctx derives the per-request site context for the guard.
package requestctx

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/philiph/caddy-redirect-guard/internal/core/domain"
	"github.com/philiph/caddy-redirect-guard/internal/core/ports"
)

// Factory builds RequestContexts from incoming requests. Site policies, when
// configured, override the default base path and scheme policy per host.
type Factory struct {
	scheme       string
	basePath     string
	schemePolicy domain.SchemePolicy
	sites        ports.SiteStore
	logger       *zap.Logger
}

// Option configures a Factory.
type Option func(*Factory)

// WithScheme forces the public scheme, for sites served behind a TLS
// terminating proxy. Empty means detect from the connection.
func WithScheme(scheme string) Option {
	return func(f *Factory) {
		f.scheme = scheme
	}
}

// WithSiteStore sets the per-host policy store.
func WithSiteStore(store ports.SiteStore) Option {
	return func(f *Factory) {
		f.sites = store
	}
}

// WithLogger sets the logger for site lookup failures.
func WithLogger(logger *zap.Logger) Option {
	return func(f *Factory) {
		f.logger = logger
	}
}

// NewFactory creates a factory with the default base path and scheme policy.
func NewFactory(basePath string, schemePolicy domain.SchemePolicy, opts ...Option) *Factory {
	f := &Factory{
		basePath:     domain.NormalizeBasePath(basePath),
		schemePolicy: schemePolicy,
		logger:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// ForRequest returns the RequestContext for r.
func (f *Factory) ForRequest(r *http.Request) domain.RequestContext {
	rc, _ := f.Resolve(r)
	return rc
}

// Resolve returns the RequestContext for r together with the origin policy
// that applies to its host.
func (f *Factory) Resolve(r *http.Request) (domain.RequestContext, domain.OriginPolicy) {
	basePath := f.basePath
	schemePolicy := f.schemePolicy

	if site := f.lookupSite(r.Host); site != nil {
		if site.BasePath != "" {
			basePath = site.BasePath
		}
		if site.SchemePolicy != "" {
			schemePolicy = site.SchemePolicy
		}
	}

	return domain.NewRequestContext(f.requestScheme(r), r.Host, basePath),
		domain.OriginPolicy{Scheme: schemePolicy}
}

func (f *Factory) lookupSite(host string) *domain.SitePolicy {
	if f.sites == nil {
		return nil
	}
	site, err := f.sites.Lookup(host)
	if err != nil {
		if !errors.Is(err, domain.ErrSiteNotFound) {
			f.logger.Warn("site policy lookup failed",
				zap.Error(err),
				zap.String("host", host))
		}
		return nil
	}
	return site
}

func (f *Factory) requestScheme(r *http.Request) string {
	if f.scheme != "" {
		return f.scheme
	}
	if r.TLS != nil {
		return "https"
	}
	return "http"
}

// Ensure Factory implements ports.RequestContextFactory
var _ ports.RequestContextFactory = (*Factory)(nil)
