package caddy

import (
	"strings"

	"github.com/caddyserver/caddy/v2/caddyconfig/caddyfile"
	"github.com/caddyserver/caddy/v2/caddyconfig/httpcaddyfile"
	"github.com/caddyserver/caddy/v2/modules/caddyhttp"

	"github.com/philiph/caddy-redirect-guard/internal/core/domain"
)

// ParseDirective registers the handler route like RegisterHandlerDirective,
// but refuses an inline path matcher. "redirect_guard /drupal" would scope
// the guard to the single path /drupal and leave the rest of the site
// unguarded; named (@name) and wildcard (*) matchers are still accepted.
func ParseDirective(h httpcaddyfile.Helper) ([]httpcaddyfile.ConfigValue, error) {
	if !h.Next() {
		return nil, h.ArgErr()
	}
	if h.NextArg() && strings.HasPrefix(h.Val(), "/") {
		return nil, h.Errf("redirect_guard does not accept a path matcher (%s); set the base path with the base_path subdirective", h.Val())
	}
	h.Reset()
	h.Next()

	matcherSet, err := h.ExtractMatcherSet()
	if err != nil {
		return nil, err
	}
	handler, err := ParseCaddyfile(h)
	if err != nil {
		return nil, err
	}
	return h.NewRoute(matcherSet, handler), nil
}

// ParseCaddyfile sets up the handler from Caddyfile tokens.
//
// Syntax:
//
//	redirect_guard {
//	    destination_param <name>
//	    base_path <path>
//	    public_scheme http|https
//	    scheme_policy ignore|exact|no_downgrade
//	    external_schemes <scheme...>
//	    response_format auto|text|json|html
//	    error_template <path>
//	    trust_header <name>
//	    trust_secret <secret>
//	    trust_public_key <path>
//	    trust_issuer <issuer>
//	    trust_leeway <duration>
//	    sites_file <path>
//	    sites_url <url>
//	    sites_refresh_interval <duration>
//	    site <host|pattern> {
//	        base_path <path>
//	        scheme_policy ignore|exact|no_downgrade
//	    }
//	    metrics enabled|off
//	}
func ParseCaddyfile(h httpcaddyfile.Helper) (caddyhttp.MiddlewareHandler, error) {
	var g RedirectGuard
	err := g.UnmarshalCaddyfile(h.Dispenser)
	return &g, err
}

// UnmarshalCaddyfile implements caddyfile.Unmarshaler.
func (g *RedirectGuard) UnmarshalCaddyfile(d *caddyfile.Dispenser) error {
	d.Next() // consume directive name

	// A leading path argument is consumed by Caddy as a request matcher, so
	// the base path is only accepted as a subdirective.
	if d.NextArg() {
		return d.Errf("redirect_guard takes no arguments, got %q; set the base path with the base_path subdirective", d.Val())
	}

	for d.NextBlock(0) {
		switch d.Val() {
		case "destination_param":
			if !d.NextArg() {
				return d.ArgErr()
			}
			g.DestinationParam = d.Val()

		case "base_path":
			if !d.NextArg() {
				return d.ArgErr()
			}
			g.BasePath = d.Val()

		case "public_scheme":
			if !d.NextArg() {
				return d.ArgErr()
			}
			g.PublicScheme = strings.ToLower(d.Val())

		case "scheme_policy":
			if !d.NextArg() {
				return d.ArgErr()
			}
			policy, err := domain.ParseSchemePolicy(d.Val())
			if err != nil {
				return d.Errf("scheme_policy: %v", err)
			}
			g.SchemePolicy = string(policy)

		case "external_schemes":
			g.ExternalSchemes = d.RemainingArgs()
			if len(g.ExternalSchemes) == 0 {
				return d.Err("external_schemes requires at least one scheme")
			}

		case "response_format":
			if !d.NextArg() {
				return d.ArgErr()
			}
			g.ResponseFormat = strings.ToLower(d.Val())

		case "error_template":
			if !d.NextArg() {
				return d.ArgErr()
			}
			g.ErrorTemplate = d.Val()

		case "trust_header":
			if !d.NextArg() {
				return d.ArgErr()
			}
			g.TrustHeader = d.Val()

		case "trust_secret":
			if !d.NextArg() {
				return d.ArgErr()
			}
			g.TrustSecret = d.Val()

		case "trust_public_key":
			if !d.NextArg() {
				return d.ArgErr()
			}
			g.TrustPublicKey = d.Val()

		case "trust_issuer":
			if !d.NextArg() {
				return d.ArgErr()
			}
			g.TrustIssuer = d.Val()

		case "trust_leeway":
			if !d.NextArg() {
				return d.ArgErr()
			}
			g.TrustLeeway = d.Val()

		case "sites_file":
			if !d.NextArg() {
				return d.ArgErr()
			}
			g.SitesFile = d.Val()

		case "sites_url":
			if !d.NextArg() {
				return d.ArgErr()
			}
			g.SitesURL = d.Val()

		case "sites_refresh_interval":
			if !d.NextArg() {
				return d.ArgErr()
			}
			g.SitesRefreshInterval = d.Val()

		case "site":
			site, err := parseSite(d)
			if err != nil {
				return err
			}
			g.Sites = append(g.Sites, site)

		case "metrics":
			if !d.NextArg() {
				return d.ArgErr()
			}
			switch d.Val() {
			case "enabled", "on":
				g.MetricsEnabled = true
			case "disabled", "off":
				g.MetricsEnabled = false
			default:
				return d.Errf("metrics must be 'enabled' or 'off', got %q", d.Val())
			}

		default:
			return d.Errf("unrecognized subdirective: %s", d.Val())
		}
	}

	g.Config.SetDefaults()
	return nil
}

// parseSite parses a site block. A host containing '*' becomes a pattern.
func parseSite(d *caddyfile.Dispenser) (domain.SitePolicy, error) {
	var site domain.SitePolicy
	if !d.NextArg() {
		return site, d.ArgErr()
	}
	if strings.Contains(d.Val(), "*") {
		site.Pattern = d.Val()
	} else {
		site.Host = d.Val()
	}

	for nesting := d.Nesting(); d.NextBlock(nesting); {
		switch d.Val() {
		case "base_path":
			if !d.NextArg() {
				return site, d.ArgErr()
			}
			site.BasePath = d.Val()

		case "scheme_policy":
			if !d.NextArg() {
				return site, d.ArgErr()
			}
			policy, err := domain.ParseSchemePolicy(d.Val())
			if err != nil {
				return site, d.Errf("site %s: scheme_policy: %v", site.Host+site.Pattern, err)
			}
			site.SchemePolicy = policy

		default:
			return site, d.Errf("unrecognized site subdirective: %s", d.Val())
		}
	}
	return site, nil
}
