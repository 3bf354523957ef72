package caddy

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/philiph/caddy-redirect-guard/internal/core/domain"
)

// DefaultTrustHeader is the response header carrying a trusted-redirect assertion.
const DefaultTrustHeader = "Redirect-Guard-Trust"

// Response formats for rejections.
const (
	ResponseFormatAuto = "auto"
	ResponseFormatText = "text"
	ResponseFormatJSON = "json"
	ResponseFormatHTML = "html"
)

// Config holds the configuration for the redirect guard handler.
type Config struct {
	// DestinationParam is the query parameter holding the destination hint.
	// Defaults to "destination".
	DestinationParam string `json:"destination_param,omitempty"`

	// BasePath is the path the site is mounted under (e.g. "/drupal").
	// Redirects must stay at or beneath it. Defaults to the site root.
	BasePath string `json:"base_path,omitempty"`

	// PublicScheme forces the scheme used to build absolute URLs, for sites
	// behind a TLS-terminating proxy. Empty detects it from the connection.
	PublicScheme string `json:"public_scheme,omitempty"`

	// SchemePolicy controls whether a redirect may change scheme on the same
	// host: "ignore" (default), "exact" or "no_downgrade".
	SchemePolicy string `json:"scheme_policy,omitempty"`

	// ExternalSchemes lists the protocols that make a hint an absolute URL.
	// Defaults to the common network protocols (http, https, ftp, ...).
	ExternalSchemes []string `json:"external_schemes,omitempty"`

	// ResponseFormat selects the body of a rejection: "auto" (default),
	// "text", "json" or "html". Auto picks by the Accept header.
	ResponseFormat string `json:"response_format,omitempty"`

	// ErrorTemplate is the path to a custom HTML rejection page.
	// If not set, the embedded template is used.
	ErrorTemplate string `json:"error_template,omitempty"`

	// TrustHeader is the upstream response header carrying a trusted-redirect
	// assertion. It is always removed before the response is sent.
	// Defaults to "Redirect-Guard-Trust".
	TrustHeader string `json:"trust_header,omitempty"`

	// TrustSecret is the shared HS256 key for trust assertions (at least 32
	// bytes). Supports Caddy placeholders such as {env.REDIRECT_GUARD_SECRET}.
	TrustSecret string `json:"trust_secret,omitempty"`

	// TrustPublicKey is the path to a PEM public key or certificate for RS256
	// trust assertions. Mutually exclusive with TrustSecret.
	TrustPublicKey string `json:"trust_public_key,omitempty"`

	// TrustIssuer, when set, is required as the "iss" claim of assertions.
	TrustIssuer string `json:"trust_issuer,omitempty"`

	// TrustLeeway tolerates clock skew when checking assertion expiry (e.g. "5s").
	TrustLeeway string `json:"trust_leeway,omitempty"`

	// Sites overrides base path and scheme policy per host.
	Sites []domain.SitePolicy `json:"sites,omitempty"`

	// SitesFile is the path to a YAML or JSON file of site policies.
	SitesFile string `json:"sites_file,omitempty"`

	// SitesURL is an http(s) URL serving a YAML or JSON sites document.
	SitesURL string `json:"sites_url,omitempty"`

	// SitesRefreshInterval reloads SitesFile and SitesURL periodically (e.g. "5m").
	// Empty loads it once at provisioning.
	SitesRefreshInterval string `json:"sites_refresh_interval,omitempty"`

	// MetricsEnabled enables Prometheus metrics.
	// When enabled, metrics are registered with the default Prometheus registry
	// and exposed via Caddy's metrics endpoint.
	MetricsEnabled bool `json:"metrics_enabled,omitempty"`
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if c.DestinationParam != "" && strings.ContainsAny(c.DestinationParam, " &=?#") {
		return fmt.Errorf("destination_param %q is not a valid query parameter name", c.DestinationParam)
	}

	if c.BasePath != "" && !strings.HasPrefix(c.BasePath, "/") {
		return fmt.Errorf("base_path %q must start with /", c.BasePath)
	}

	switch c.PublicScheme {
	case "", "http", "https":
	default:
		return fmt.Errorf("public_scheme must be http or https, got %q", c.PublicScheme)
	}

	if _, err := domain.ParseSchemePolicy(c.SchemePolicy); err != nil {
		return fmt.Errorf("scheme_policy: %w", err)
	}

	for _, s := range c.ExternalSchemes {
		if s == "" || strings.ContainsAny(s, ":/?# ") {
			return fmt.Errorf("external_schemes: invalid scheme %q", s)
		}
	}

	switch c.ResponseFormat {
	case "", ResponseFormatAuto, ResponseFormatText, ResponseFormatJSON, ResponseFormatHTML:
	default:
		return fmt.Errorf("response_format must be one of auto, text, json, html, got %q", c.ResponseFormat)
	}

	if c.TrustHeader != "" && strings.ContainsAny(c.TrustHeader, " :\t") {
		return fmt.Errorf("trust_header %q is not a valid header name", c.TrustHeader)
	}

	if c.TrustSecret != "" && c.TrustPublicKey != "" {
		return fmt.Errorf("only one of trust_secret or trust_public_key can be specified")
	}

	if c.TrustLeeway != "" {
		if _, err := time.ParseDuration(c.TrustLeeway); err != nil {
			return fmt.Errorf("trust_leeway: %w", err)
		}
	}

	for i := range c.Sites {
		if err := c.Sites[i].Validate(); err != nil {
			return fmt.Errorf("sites[%d]: %w", i, err)
		}
	}

	if c.SitesURL != "" {
		u, err := url.Parse(c.SitesURL)
		if err != nil {
			return fmt.Errorf("sites_url: %w", err)
		}
		if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("sites_url %q must be an absolute http or https URL", c.SitesURL)
		}
	}

	if c.SitesRefreshInterval != "" {
		if c.SitesFile == "" && c.SitesURL == "" {
			return fmt.Errorf("sites_refresh_interval requires sites_file or sites_url")
		}
		d, err := time.ParseDuration(c.SitesRefreshInterval)
		if err != nil {
			return fmt.Errorf("sites_refresh_interval: %w", err)
		}
		if d <= 0 {
			return fmt.Errorf("sites_refresh_interval must be positive")
		}
	}

	return nil
}

// SetDefaults applies default values to unset configuration fields.
func (c *Config) SetDefaults() {
	if c.DestinationParam == "" {
		c.DestinationParam = domain.DefaultDestinationParam
	}
	if c.SchemePolicy == "" {
		c.SchemePolicy = string(domain.SchemePolicyIgnore)
	}
	if len(c.ExternalSchemes) == 0 {
		c.ExternalSchemes = append([]string(nil), domain.DefaultExternalSchemes...)
	}
	if c.ResponseFormat == "" {
		c.ResponseFormat = ResponseFormatAuto
	}
	if c.TrustHeader == "" {
		c.TrustHeader = DefaultTrustHeader
	}
}
