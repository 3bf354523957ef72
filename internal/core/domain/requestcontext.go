package domain

import (
	"net/url"
	"strings"
)

// RequestContext describes where the current site lives. It is derived once
// per request and never modified afterwards.
type RequestContext struct {
	// Scheme is "http" or "https".
	Scheme string

	// Host is the request host including any non-default port.
	Host string

	// BasePath is the path prefix the site is mounted under, without a
	// trailing slash ("" for the root, "/drupal" for a subdirectory).
	BasePath string
}

// NewRequestContext normalizes its inputs into a RequestContext.
func NewRequestContext(scheme, host, basePath string) RequestContext {
	scheme = strings.ToLower(scheme)
	if scheme == "" {
		scheme = "http"
	}
	return RequestContext{
		Scheme:   scheme,
		Host:     host,
		BasePath: NormalizeBasePath(basePath),
	}
}

// NormalizeBasePath returns basePath with exactly one leading slash and no
// trailing slash. The root path normalizes to "".
func NormalizeBasePath(basePath string) string {
	basePath = strings.Trim(strings.TrimSpace(basePath), "/")
	if basePath == "" {
		return ""
	}
	return "/" + basePath
}

// SchemeAndHost returns "scheme://host[:port]".
func (c RequestContext) SchemeAndHost() string {
	return c.Scheme + "://" + c.Host
}

// CompleteBaseURL returns "scheme://host[:port]/basePath" without a trailing
// slash.
func (c RequestContext) CompleteBaseURL() string {
	return c.SchemeAndHost() + c.BasePath
}

// BaseURL returns the base path of the site.
func (c RequestContext) BaseURL() string {
	return c.BasePath
}

// Hostname returns the host without port, lowercased.
func (c RequestContext) Hostname() string {
	u := url.URL{Host: c.Host}
	return strings.ToLower(u.Hostname())
}

// Port returns the explicit port of the host, or "".
func (c RequestContext) Port() string {
	u := url.URL{Host: c.Host}
	return u.Port()
}
