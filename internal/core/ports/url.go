package ports

import (
	"net/http"

	"github.com/philiph/caddy-redirect-guard/internal/core/domain"
)

// URLAssembler turns an internal "base:<path>" reference into a URL string
// for the request described by rc. Implementations never take a scheme or
// host from the reference itself.
type URLAssembler interface {
	Assemble(rc domain.RequestContext, uri string, opts domain.AssembleOptions) (string, error)
}

// RequestContextFactory derives the RequestContext for a request.
// It is called once per request.
type RequestContextFactory interface {
	ForRequest(r *http.Request) domain.RequestContext
}
