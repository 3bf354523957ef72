package domain

import (
	"fmt"
	"net/url"
	"path"
	"strings"
)

// SchemePolicy decides whether a redirect may change scheme while staying on
// the same host.
type SchemePolicy string

const (
	// SchemePolicyIgnore accepts http and https targets alike.
	SchemePolicyIgnore SchemePolicy = "ignore"

	// SchemePolicyExact requires the target scheme to equal the request scheme.
	SchemePolicyExact SchemePolicy = "exact"

	// SchemePolicyNoDowngrade accepts http->https but rejects https->http.
	SchemePolicyNoDowngrade SchemePolicy = "no_downgrade"
)

// ParseSchemePolicy parses a scheme policy name. The empty string yields
// SchemePolicyIgnore.
func ParseSchemePolicy(s string) (SchemePolicy, error) {
	switch p := SchemePolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return SchemePolicyIgnore, nil
	case SchemePolicyIgnore, SchemePolicyExact, SchemePolicyNoDowngrade:
		return p, nil
	default:
		return "", fmt.Errorf("invalid scheme policy %q, must be one of ignore, exact, no_downgrade", s)
	}
}

// OriginPolicy decides whether an absolute URL stays on the current site.
type OriginPolicy struct {
	Scheme SchemePolicy
}

// Check returns nil if target points at the site described by rc, and an
// AppError with ErrCodeCrossOriginDestination otherwise.
//
// Hosts compare case-insensitively. Ports compare after default-port
// normalization when the schemes agree, and literally otherwise. The target
// path must be the base path or lie beneath it.
func (p OriginPolicy) Check(target *url.URL, rc RequestContext) *AppError {
	scheme := strings.ToLower(target.Scheme)
	if scheme != "http" && scheme != "https" {
		return CrossOriginDestinationError(target.String())
	}

	if target.Hostname() == "" || !strings.EqualFold(target.Hostname(), rc.Hostname()) {
		return CrossOriginDestinationError(target.String())
	}

	if !p.schemeAllowed(scheme, rc.Scheme) {
		return CrossOriginDestinationError(target.String())
	}

	if !portsMatch(target, scheme, rc) {
		return CrossOriginDestinationError(target.String())
	}

	if !WithinBasePath(target.Path, rc.BasePath) {
		return CrossOriginDestinationError(target.String())
	}

	return nil
}

func (p OriginPolicy) schemeAllowed(target, current string) bool {
	switch p.Scheme {
	case SchemePolicyExact:
		return target == current
	case SchemePolicyNoDowngrade:
		return !(current == "https" && target == "http")
	default:
		return true
	}
}

func portsMatch(target *url.URL, scheme string, rc RequestContext) bool {
	if scheme != rc.Scheme {
		return target.Port() == rc.Port()
	}
	return effectivePort(target.Port(), scheme) == effectivePort(rc.Port(), rc.Scheme)
}

func effectivePort(port, scheme string) string {
	if port != "" {
		return port
	}
	if scheme == "https" {
		return "443"
	}
	return "80"
}

// WithinBasePath reports whether the decoded URL path p lies at or beneath
// basePath. Dot segments are resolved first, and the comparison is
// case-insensitive on a path-segment boundary.
func WithinBasePath(p, basePath string) bool {
	basePath = NormalizeBasePath(basePath)
	if basePath == "" {
		return true
	}
	if p == "" {
		return false
	}
	cleaned := strings.ToLower(path.Clean("/" + p))
	base := strings.ToLower(basePath)
	return cleaned == base || strings.HasPrefix(cleaned, base+"/")
}
