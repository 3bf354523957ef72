package caddy

import (
	"bytes"
	"context"
	"net/http"
	"strings"
	"sync"

	"github.com/caddyserver/caddy/v2"
	"github.com/caddyserver/caddy/v2/caddyconfig/caddyfile"
	"github.com/caddyserver/caddy/v2/modules/caddyhttp"
	"go.uber.org/zap"

	"github.com/philiph/caddy-redirect-guard/internal/core/domain"
	"github.com/philiph/caddy-redirect-guard/internal/core/guard"
	"github.com/philiph/caddy-redirect-guard/internal/core/ports"

	"github.com/philiph/caddy-redirect-guard/internal/adapters/driven/metrics"
	"github.com/philiph/caddy-redirect-guard/internal/adapters/driven/requestctx"
	"github.com/philiph/caddy-redirect-guard/internal/adapters/driven/trust"
	"github.com/philiph/caddy-redirect-guard/internal/adapters/driven/urlassembler"
)

// RedirectGuard is a Caddy HTTP handler module that validates the Location of
// every redirect produced by the handlers after it, preventing open redirects
// through client-supplied destination hints.
type RedirectGuard struct {
	// Configuration embedded directly
	Config

	// Runtime state (not serialized)
	checker          *guard.RedirectGuard
	contexts         *requestctx.Factory
	siteStore        ports.SiteStore
	verifier         ports.TrustVerifier
	templateRenderer *TemplateRenderer
	logger           *zap.Logger
	metricsRecorder  ports.MetricsRecorder

	stopRefresh context.CancelFunc
	refreshDone chan struct{}
}

var bufPool = sync.Pool{
	New: func() any {
		return new(bytes.Buffer)
	},
}

// CaddyModule returns the Caddy module information.
func (RedirectGuard) CaddyModule() caddy.ModuleInfo {
	return caddy.ModuleInfo{
		ID:  "http.handlers.redirect_guard",
		New: func() caddy.Module { return new(RedirectGuard) },
	}
}

// Provision sets up the module.
func (g *RedirectGuard) Provision(ctx caddy.Context) error {
	g.logger = ctx.Logger()
	g.logger.Debug("provisioning redirect guard")

	g.Config.SetDefaults()

	// Initialize metrics recorder
	g.initMetricsRecorder()

	policy, err := domain.ParseSchemePolicy(g.SchemePolicy)
	if err != nil {
		return domain.ConfigError("parse scheme policy", err)
	}

	verifier, err := g.buildTrustVerifier()
	if err != nil {
		return domain.ConfigError("provision trust verifier", err)
	}
	g.verifier = verifier

	if g.ErrorTemplate != "" {
		g.templateRenderer, err = NewTemplateRendererWithFile(g.ErrorTemplate)
	} else {
		g.templateRenderer, err = NewTemplateRenderer()
	}
	if err != nil {
		return domain.ConfigError("load error template", err)
	}

	// Started last: it may launch the background refresh.
	store, err := g.buildSiteStore(ctx)
	if err != nil {
		return domain.ConfigError("provision site policies", err)
	}
	g.siteStore = store

	g.wire(policy)

	g.logger.Info("redirect guard provisioned",
		zap.String("destination_param", g.DestinationParam),
		zap.String("base_path", g.BasePath),
		zap.String("scheme_policy", string(policy)),
		zap.Int("inline_sites", len(g.Sites)),
		zap.String("sites_file", g.SitesFile),
		zap.String("sites_url", g.SitesURL),
		zap.Bool("trust_enabled", g.trustEnabled()),
		zap.Bool("metrics_enabled", g.MetricsEnabled),
		zap.String("version", getVersion()))
	return nil
}

// wire builds the request context factory and the guard from the runtime
// dependencies already set on g.
func (g *RedirectGuard) wire(policy domain.SchemePolicy) {
	factoryOpts := []requestctx.Option{
		requestctx.WithScheme(g.PublicScheme),
		requestctx.WithLogger(g.getLogger()),
	}
	if g.siteStore != nil {
		factoryOpts = append(factoryOpts, requestctx.WithSiteStore(g.siteStore))
	}
	g.contexts = requestctx.NewFactory(g.BasePath, policy, factoryOpts...)

	g.checker = guard.New(urlassembler.NewUnroutedAssembler(),
		guard.WithLogger(g.getLogger()),
		guard.WithMetricsRecorder(g.getMetricsRecorder()),
		guard.WithDestinationParam(g.DestinationParam),
		guard.WithExternalSchemes(g.ExternalSchemes),
		guard.WithOriginPolicy(domain.OriginPolicy{Scheme: policy}),
	)
}

// Validate ensures the module's configuration is valid.
func (g *RedirectGuard) Validate() error {
	if err := g.Config.Validate(); err != nil {
		return domain.ConfigError("invalid redirect_guard configuration", err)
	}
	return nil
}

// ServeHTTP implements caddyhttp.MiddlewareHandler.
//
// Only redirect responses are buffered; everything else streams through. The
// trust header is removed from every response before it is written.
func (g *RedirectGuard) ServeHTTP(w http.ResponseWriter, r *http.Request, next caddyhttp.Handler) error {
	buf := bufPool.Get().(*bytes.Buffer)
	buf.Reset()
	defer bufPool.Put(buf)

	var assertion string
	shouldBuffer := func(status int, header http.Header) bool {
		assertion = stripHeader(header, g.TrustHeader)
		return domain.IsRedirectStatus(status) && header.Get("Location") != ""
	}

	rec := caddyhttp.NewResponseRecorder(w, buf, shouldBuffer)
	if err := next.ServeHTTP(rec, r); err != nil {
		return err
	}
	if rec.Status() == 0 {
		// Nothing was written; the server will send the headers as they are.
		stripHeader(w.Header(), g.TrustHeader)
		return nil
	}
	if !rec.Buffered() {
		return nil
	}

	resp := domain.NewRedirect(rec.Header().Get("Location"), rec.Status())
	if assertion != "" && g.isTrusted(assertion, resp.TargetURL) {
		resp.Kind = domain.KindTrustedRedirect
	}

	rc, policy := g.contexts.Resolve(r)
	decision := g.checker.CheckRedirectURLWithPolicy(domain.NewIncomingRequest(r), rc, policy, resp)

	switch decision {
	case guard.DecisionRejected:
		g.renderRejection(w, r, resp)
		return nil
	case guard.DecisionRewritten:
		rec.Header().Set("Location", resp.TargetURL)
	}
	return rec.WriteResponse()
}

// stripHeader removes every key matching name case-insensitively, including
// non-canonical keys written directly to the map, and returns the first value.
func stripHeader(h http.Header, name string) string {
	var value string
	for key, values := range h {
		if !strings.EqualFold(key, name) {
			continue
		}
		if value == "" && len(values) > 0 {
			value = values[0]
		}
		delete(h, key)
	}
	return value
}

// isTrusted verifies an upstream trust assertion for target.
func (g *RedirectGuard) isTrusted(assertion, target string) bool {
	err := g.getVerifier().Verify(assertion, target)
	g.getMetricsRecorder().RecordTrustAssertion(err == nil)
	if err != nil {
		g.getLogger().Debug("trust assertion rejected",
			zap.String("target", target),
			zap.Error(err))
		return false
	}
	return true
}

// getLogger returns the logger, or a no-op logger if not set.
// This allows tests to run without calling Provision().
func (g *RedirectGuard) getLogger() *zap.Logger {
	if g.logger != nil {
		return g.logger
	}
	return zap.NewNop()
}

// getMetricsRecorder returns the metrics recorder, or a no-op recorder if not set.
// This allows tests to run without calling Provision().
func (g *RedirectGuard) getMetricsRecorder() ports.MetricsRecorder {
	if g.metricsRecorder != nil {
		return g.metricsRecorder
	}
	return metrics.NewNoopMetricsRecorder()
}

func (g *RedirectGuard) getVerifier() ports.TrustVerifier {
	if g.verifier != nil {
		return g.verifier
	}
	return trust.NewNoopVerifier()
}

// SetMetricsRecorder sets the metrics recorder for testing.
func (g *RedirectGuard) SetMetricsRecorder(recorder ports.MetricsRecorder) {
	g.metricsRecorder = recorder
}

// SetLogger sets the logger for testing.
func (g *RedirectGuard) SetLogger(logger *zap.Logger) {
	g.logger = logger
}

// SetTrustVerifier sets the trust verifier for testing.
func (g *RedirectGuard) SetTrustVerifier(verifier ports.TrustVerifier) {
	g.verifier = verifier
}

// SetSiteStore sets the site policy store for testing.
func (g *RedirectGuard) SetSiteStore(store ports.SiteStore) {
	g.siteStore = store
}

// initMetricsRecorder initializes the metrics recorder based on configuration.
func (g *RedirectGuard) initMetricsRecorder() {
	if g.MetricsEnabled {
		g.metricsRecorder = metrics.NewPrometheusMetricsRecorder()
	} else {
		g.metricsRecorder = metrics.NewNoopMetricsRecorder()
	}
}

// Version getters - these are set via ldflags in the root package
// We access them via a function pointer to avoid import cycles
var getVersion = func() string { return "dev" }

// SetVersionGetter sets the version getter function.
// Called from root package init to inject version info.
func SetVersionGetter(version func() string) {
	getVersion = version
}

// Cleanup stops the background site refresh when the module is unloaded.
// Implements caddy.CleanerUpper for graceful shutdown.
func (g *RedirectGuard) Cleanup() error {
	if g.stopRefresh != nil {
		g.stopRefresh()
		<-g.refreshDone
		g.stopRefresh = nil
	}
	return nil
}

// Interface guards
var (
	_ caddy.Module                = (*RedirectGuard)(nil)
	_ caddy.Provisioner           = (*RedirectGuard)(nil)
	_ caddy.Validator             = (*RedirectGuard)(nil)
	_ caddy.CleanerUpper          = (*RedirectGuard)(nil)
	_ caddyhttp.MiddlewareHandler = (*RedirectGuard)(nil)
	_ caddyfile.Unmarshaler       = (*RedirectGuard)(nil)
)
