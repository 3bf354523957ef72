// Package guard validates outgoing redirects against the current site.
//
// The guard runs once per response, after the application produced it and
// before it is written. A redirect either keeps its target, gets a safe
// same-origin target derived from the destination hint, or is replaced by a
// 400 rejection. Trusted redirects pass through untouched.
package guard

import (
	"net/url"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/philiph/caddy-redirect-guard/internal/core/domain"
	"github.com/philiph/caddy-redirect-guard/internal/core/ports"
)

// Decision is the outcome of one guard run.
type Decision string

const (
	// DecisionAccepted means the redirect target was already safe.
	DecisionAccepted Decision = "accepted"

	// DecisionRewritten means the target was replaced with the resolved
	// destination hint.
	DecisionRewritten Decision = "rewritten"

	// DecisionRejected means the response became a 400 rejection.
	DecisionRejected Decision = "rejected"

	// DecisionTrusted means the response was a trusted redirect.
	DecisionTrusted Decision = "trusted"

	// DecisionSkipped means the response was not a redirect.
	DecisionSkipped Decision = "skipped"
)

// RedirectGuard holds no per-request state and is safe for concurrent use.
type RedirectGuard struct {
	assembler        ports.URLAssembler
	logger           *zap.Logger
	metrics          ports.MetricsRecorder
	destinationParam string
	externalSchemes  []string
	policy           domain.OriginPolicy
	newIncidentID    func() string
}

// New creates a guard that resolves internal hints through assembler.
func New(assembler ports.URLAssembler, opts ...Option) *RedirectGuard {
	g := &RedirectGuard{
		assembler:        assembler,
		logger:           zap.NewNop(),
		metrics:          noopMetrics{},
		destinationParam: domain.DefaultDestinationParam,
		externalSchemes:  domain.DefaultExternalSchemes,
		policy:           domain.OriginPolicy{Scheme: domain.SchemePolicyIgnore},
		newIncidentID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// DestinationParam returns the query parameter read as the destination hint.
func (g *RedirectGuard) DestinationParam() string {
	return g.destinationParam
}

// CheckRedirectURL validates resp for req using the guard's origin policy.
// It mutates resp in place and reports what it did.
func (g *RedirectGuard) CheckRedirectURL(req domain.IncomingRequest, rc domain.RequestContext, resp *domain.Response) Decision {
	return g.CheckRedirectURLWithPolicy(req, rc, g.policy, resp)
}

// CheckRedirectURLWithPolicy is CheckRedirectURL with a per-site origin policy.
func (g *RedirectGuard) CheckRedirectURLWithPolicy(req domain.IncomingRequest, rc domain.RequestContext, policy domain.OriginPolicy, resp *domain.Response) Decision {
	decision := g.check(req, rc, policy, resp)

	code := ""
	if decision == DecisionRejected {
		code = resp.Error.Code.String()
	}
	g.metrics.RecordDecision(string(decision), code)
	return decision
}

func (g *RedirectGuard) check(req domain.IncomingRequest, rc domain.RequestContext, policy domain.OriginPolicy, resp *domain.Response) Decision {
	switch resp.Kind {
	case domain.KindTrustedRedirect:
		return DecisionTrusted
	case domain.KindRedirect:
		if resp.TargetURL == "" {
			return DecisionSkipped
		}
	default:
		return DecisionSkipped
	}

	hint, hasHint := g.destinationHint(req)

	var target string
	var appErr *domain.AppError
	if hasHint {
		target, appErr = g.resolveHint(hint, rc, policy)
	} else {
		target, appErr = g.validateTarget(resp.TargetURL, rc, policy)
	}

	if appErr != nil {
		g.reject(req, resp, hint, target, appErr)
		return DecisionRejected
	}
	if target == resp.TargetURL {
		return DecisionAccepted
	}
	resp.TargetURL = target
	return DecisionRewritten
}

// destinationHint returns the first value of the destination parameter.
// A present but empty parameter still counts as a hint.
func (g *RedirectGuard) destinationHint(req domain.IncomingRequest) (string, bool) {
	values, ok := req.Query[g.destinationParam]
	if !ok || len(values) == 0 {
		return "", false
	}
	return values[0], true
}

// resolveHint turns a destination hint into an absolute URL and checks it.
// On a cross-origin failure the resolved candidate is returned alongside the
// error for logging.
func (g *RedirectGuard) resolveHint(raw string, rc domain.RequestContext, policy domain.OriginPolicy) (string, *domain.AppError) {
	hint, err := domain.ParseDestination(raw, g.externalSchemes)
	if err != nil {
		return "", domain.MalformedDestinationError(raw, err)
	}

	var candidate string
	switch hint.Kind {
	case domain.HintInternal:
		candidate, err = g.assembleInternal(hint, rc)
		if err != nil {
			return "", domain.MalformedDestinationError(raw, err)
		}
	case domain.HintSchemeRelative:
		candidate = rc.Scheme + ":" + normalizeSlashes(raw)
	case domain.HintAbsolute:
		scheme := strings.ToLower(hint.URL.Scheme)
		if scheme != "http" && scheme != "https" {
			return "", domain.MalformedDestinationError(raw, nil)
		}
		candidate = normalizeSlashes(raw)
	}

	if appErr := checkOrigin(candidate, rc, policy); appErr != nil {
		return candidate, appErr
	}
	return candidate, nil
}

// assembleInternal resolves an internal hint. A path with a single leading
// slash is root-relative and joins scheme://host directly; anything else is
// a base: reference under the site's base path.
func (g *RedirectGuard) assembleInternal(hint domain.DestinationHint, rc domain.RequestContext) (string, error) {
	if strings.HasPrefix(hint.Path, "/") {
		decoded, err := url.PathUnescape(hint.Path)
		if err != nil {
			return "", err
		}
		fragment, err := url.PathUnescape(hint.Fragment)
		if err != nil {
			return "", err
		}
		u := &url.URL{
			Scheme:      rc.Scheme,
			Host:        rc.Host,
			Path:        decoded,
			RawPath:     hint.Path,
			RawQuery:    hint.RawQuery,
			Fragment:    fragment,
			RawFragment: hint.Fragment,
		}
		return u.String(), nil
	}

	return g.assembler.Assemble(rc, domain.BaseReference(hint.Path), domain.AssembleOptions{
		Query:    hint.Query,
		RawQuery: hint.RawQuery,
		Fragment: hint.Fragment,
		Absolute: true,
	})
}

// validateTarget checks an application-chosen target. Relative references
// cannot leave the site and pass unchanged; scheme-relative targets are made
// absolute with the request scheme.
func (g *RedirectGuard) validateTarget(target string, rc domain.RequestContext, policy domain.OriginPolicy) (string, *domain.AppError) {
	if domain.IsRelativeReference(target, g.externalSchemes) {
		return target, nil
	}

	candidate := target
	if normalized := normalizeSlashes(target); strings.HasPrefix(normalized, "//") {
		candidate = rc.Scheme + ":" + normalized
	}

	if appErr := checkOrigin(candidate, rc, policy); appErr != nil {
		return candidate, appErr
	}
	return candidate, nil
}

func checkOrigin(candidate string, rc domain.RequestContext, policy domain.OriginPolicy) *domain.AppError {
	u, err := url.Parse(candidate)
	if err != nil {
		return domain.MalformedDestinationError(candidate, err)
	}
	if u.User != nil {
		return domain.MalformedDestinationError(candidate, nil)
	}
	return policy.Check(u, rc)
}

func (g *RedirectGuard) reject(req domain.IncomingRequest, resp *domain.Response, hint, candidate string, appErr *domain.AppError) {
	incidentID := g.newIncidentID()

	original := resp.TargetURL
	resp.Reject(appErr, incidentID)

	g.logger.Warn("redirect rejected",
		zap.String("destination", hint),
		zap.String("target", original),
		zap.String("request_host", req.Host),
		zap.String("target_host", targetHost(candidate, hint, original)),
		zap.String("code", appErr.Code.String()),
		zap.String("incident_id", incidentID),
		zap.Error(appErr.Cause),
	)
}

// targetHost returns the host the browser would have been sent to, or ""
// when none can be determined.
func targetHost(candidates ...string) string {
	for _, c := range candidates {
		if c == "" {
			continue
		}
		if u, err := url.Parse(normalizeSlashes(c)); err == nil && u.Host != "" {
			return u.Host
		}
	}
	return ""
}

func normalizeSlashes(s string) string {
	return strings.ReplaceAll(s, `\`, "/")
}

type noopMetrics struct{}

func (noopMetrics) RecordDecision(decision, code string)                          {}
func (noopMetrics) RecordTrustAssertion(valid bool)                               {}
func (noopMetrics) RecordSitesRefresh(source string, success bool, siteCount int) {}
