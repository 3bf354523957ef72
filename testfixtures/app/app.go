// Package app provides a test upstream application that issues redirects.
// It stands in for the web application behind the redirect guard.
package app

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/philiph/caddy-redirect-guard/internal/core/ports"
)

// DefaultTrustHeader matches the guard's default trust header.
const DefaultTrustHeader = "Redirect-Guard-Trust"

// Routes served by the application.
const (
	// LoginPath redirects to HomePath with 303, like a login form submit.
	LoginPath = "/user/login"

	// HomePath is a plain 200 page.
	HomePath = "/user"

	// RedirectPath redirects to the "to" query parameter with 302.
	RedirectPath = "/redirect"

	// TrustedPath redirects to "to" and attaches a trust assertion.
	TrustedPath = "/trusted"

	// LeakPath answers 200 with a trust header that must never reach clients.
	LeakPath = "/leak"
)

// Handler is the application's HTTP handler.
type Handler struct {
	signer      ports.TrustSigner
	trustHeader string
}

// Option configures a Handler.
type Option func(*Handler)

// WithSigner makes TrustedPath sign its redirects with signer.
func WithSigner(signer ports.TrustSigner) Option {
	return func(h *Handler) {
		h.signer = signer
	}
}

// WithTrustHeader sets the header carrying trust assertions.
func WithTrustHeader(name string) Option {
	return func(h *Handler) {
		h.trustHeader = name
	}
}

// NewHandler creates the application handler.
func NewHandler(opts ...Option) *Handler {
	h := &Handler{trustHeader: DefaultTrustHeader}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case LoginPath:
		http.Redirect(w, r, HomePath, http.StatusSeeOther)

	case HomePath:
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = io.WriteString(w, "home\n")

	case RedirectPath:
		http.Redirect(w, r, r.URL.Query().Get("to"), http.StatusFound)

	case TrustedPath:
		to := r.URL.Query().Get("to")
		if h.signer == nil {
			http.Error(w, "no signer configured", http.StatusInternalServerError)
			return
		}
		assertion, err := h.signer.Sign(to, time.Minute)
		if err != nil {
			http.Error(w, fmt.Sprintf("sign: %v", err), http.StatusInternalServerError)
			return
		}
		w.Header().Set(h.trustHeader, assertion)
		http.Redirect(w, r, to, http.StatusFound)

	case LeakPath:
		w.Header().Set(h.trustHeader, "not-for-clients")
		_, _ = io.WriteString(w, "leak\n")

	default:
		http.NotFound(w, r)
	}
}

// TestApp runs the application on an httptest server.
type TestApp struct {
	server  *httptest.Server
	Handler *Handler
}

// New starts a test application. Call Close() when done.
// wrap, when non-nil, decorates the handler, e.g. with the redirect guard.
func New(t testing.TB, wrap func(http.Handler) http.Handler, opts ...Option) *TestApp {
	t.Helper()

	h := NewHandler(opts...)
	var served http.Handler = h
	if wrap != nil {
		served = wrap(h)
	}
	return &TestApp{
		server:  httptest.NewServer(served),
		Handler: h,
	}
}

// Close shuts down the test application.
func (a *TestApp) Close() {
	if a.server != nil {
		a.server.Close()
	}
}

// BaseURL returns the base URL of the test application.
func (a *TestApp) BaseURL() string {
	return a.server.URL
}

// Client returns an HTTP client that does not follow redirects.
func (a *TestApp) Client() *http.Client {
	c := a.server.Client()
	c.CheckRedirect = func(req *http.Request, via []*http.Request) error {
		return http.ErrUseLastResponse
	}
	return c
}
