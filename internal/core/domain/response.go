package domain

import (
	"net/http"
	"net/url"
)

// ResponseKind tags an outgoing response for the redirect guard.
type ResponseKind int

const (
	// KindOther is any response the guard leaves alone.
	KindOther ResponseKind = iota

	// KindRedirect is a redirect whose target the guard validates.
	KindRedirect

	// KindTrustedRedirect is a redirect whose target the application
	// validated itself. The guard never modifies it.
	KindTrustedRedirect
)

// String returns a lowercase name for the kind.
func (k ResponseKind) String() string {
	switch k {
	case KindRedirect:
		return "redirect"
	case KindTrustedRedirect:
		return "trusted_redirect"
	default:
		return "other"
	}
}

// IncomingRequest is the read-only view of the request the guard needs.
type IncomingRequest struct {
	// Host is the Host header, possibly including a port.
	Host string

	// Scheme is "http" or "https".
	Scheme string

	// Path is the request URI path.
	Path string

	// Query holds the decoded query parameters.
	Query url.Values
}

// NewIncomingRequest builds an IncomingRequest from an http.Request.
func NewIncomingRequest(r *http.Request) IncomingRequest {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	return IncomingRequest{
		Host:   r.Host,
		Scheme: scheme,
		Path:   r.URL.Path,
		Query:  r.URL.Query(),
	}
}

// Response is an outgoing response as seen by the guard. The guard mutates
// TargetURL in place, or turns the whole value into a rejection.
type Response struct {
	Kind       ResponseKind
	StatusCode int
	TargetURL  string

	// Error is set when the guard replaced the response with a rejection.
	Error *AppError

	// IncidentID correlates a rejection with its log entry.
	IncidentID string
}

// NewRedirect creates a redirect response subject to validation.
// If statusCode is 0, it defaults to 302 (Found).
func NewRedirect(targetURL string, statusCode int) *Response {
	if statusCode == 0 {
		statusCode = http.StatusFound
	}
	return &Response{Kind: KindRedirect, StatusCode: statusCode, TargetURL: targetURL}
}

// NewTrustedRedirect creates a redirect the guard will pass through as is.
// Use it only for targets validated by another trusted mechanism.
func NewTrustedRedirect(targetURL string, statusCode int) *Response {
	r := NewRedirect(targetURL, statusCode)
	r.Kind = KindTrustedRedirect
	return r
}

// ClassifyResponse tags a status/location pair as a redirect or not.
func ClassifyResponse(statusCode int, location string) ResponseKind {
	if IsRedirectStatus(statusCode) && location != "" {
		return KindRedirect
	}
	return KindOther
}

// IsRedirectStatus reports whether a status code carries a Location the
// browser will follow. 304, 305 and 306 do not.
func IsRedirectStatus(code int) bool {
	if code < 300 || code > 399 {
		return false
	}
	switch code {
	case http.StatusNotModified, http.StatusUseProxy, 306:
		return false
	}
	return true
}

// Reject replaces the response with a 400-class rejection, discarding the
// original redirect.
func (r *Response) Reject(err *AppError, incidentID string) {
	r.Kind = KindOther
	r.StatusCode = err.Code.HTTPStatus()
	r.TargetURL = ""
	r.Error = err
	r.IncidentID = incidentID
}

// Rejected reports whether the guard turned the response into an error.
func (r *Response) Rejected() bool {
	return r.Error != nil
}
