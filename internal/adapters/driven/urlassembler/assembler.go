// Package urlassembler builds URLs for internal "base:" references.
package urlassembler

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/philiph/caddy-redirect-guard/internal/core/domain"
	"github.com/philiph/caddy-redirect-guard/internal/core/ports"
)

// ErrUnsupportedReference is returned for references without the base: scheme.
var ErrUnsupportedReference = errors.New("unsupported URL reference")

// UnroutedAssembler resolves "base:<path>" references against the site's base
// URL without consulting any router.
type UnroutedAssembler struct{}

// NewUnroutedAssembler creates a new assembler.
func NewUnroutedAssembler() *UnroutedAssembler {
	return &UnroutedAssembler{}
}

// Assemble returns the URL for uri. The path and fragment keep their
// percent-encoding when it is valid and are escaped otherwise; the query is
// copied as given. Leading slashes are
// stripped so that "/example.com" can never become "//example.com".
func (a *UnroutedAssembler) Assemble(rc domain.RequestContext, uri string, opts domain.AssembleOptions) (string, error) {
	if !strings.HasPrefix(uri, domain.BaseScheme) {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedReference, uri)
	}
	p := strings.TrimLeft(strings.TrimPrefix(uri, domain.BaseScheme), "/")

	rawPath := rc.BasePath + "/" + p
	decoded, err := url.PathUnescape(rawPath)
	if err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrMalformedDestination, err)
	}

	fragment, err := url.PathUnescape(opts.Fragment)
	if err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrMalformedDestination, err)
	}

	u := &url.URL{
		Path:        decoded,
		RawPath:     rawPath,
		RawQuery:    opts.EncodedQuery(),
		Fragment:    fragment,
		RawFragment: opts.Fragment,
	}
	if opts.Absolute {
		u.Scheme = rc.Scheme
		u.Host = rc.Host
	}
	return u.String(), nil
}

// Ensure UnroutedAssembler implements ports.URLAssembler
var _ ports.URLAssembler = (*UnroutedAssembler)(nil)
