// Package caddyredirectguard provides a Caddy v2 plugin that protects web
// applications against open redirects.
//
// The redirect_guard handler inspects every redirect produced by the handlers
// it wraps. When the request carries a destination hint (the "destination"
// query parameter by default) the redirect is sent there instead, but only if
// the hint resolves to the current site. Redirects that would leave the site
// are replaced with a 400 response.
package caddyredirectguard

import (
	"github.com/caddyserver/caddy/v2"
	"github.com/caddyserver/caddy/v2/caddyconfig/httpcaddyfile"

	caddyadapter "github.com/philiph/caddy-redirect-guard/internal/adapters/driving/caddy"
)

const Version = "0.3.0"

func init() {
	caddyadapter.SetVersionGetter(func() string { return Version })
	caddy.RegisterModule(RedirectGuard{})
	httpcaddyfile.RegisterDirective("redirect_guard", caddyadapter.ParseDirective)
}

// RedirectGuard is the Caddy HTTP handler module.
type RedirectGuard = caddyadapter.RedirectGuard

// Re-export template types
type TemplateRenderer = caddyadapter.TemplateRenderer
type ErrorData = caddyadapter.ErrorData

var (
	NewTemplateRenderer         = caddyadapter.NewTemplateRenderer
	NewTemplateRendererWithFile = caddyadapter.NewTemplateRendererWithFile
)
