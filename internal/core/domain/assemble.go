package domain

import "net/url"

// BaseScheme prefixes internal references resolved against the site's base URL.
const BaseScheme = "base:"

// AssembleOptions controls how an internal reference becomes a URL.
type AssembleOptions struct {
	Query url.Values

	// RawQuery, when set, is used verbatim instead of encoding Query. It keeps
	// the parameter order and escapes of a client-supplied query.
	RawQuery string

	// Fragment is percent-encoded, as it appears in a URL.
	Fragment string

	// Absolute asks for "scheme://host/base/path" instead of "/base/path".
	Absolute bool
}

// BaseReference returns the internal reference for a path relative to the
// site's base URL.
func BaseReference(path string) string {
	return BaseScheme + path
}

// EncodedQuery returns RawQuery, or Query encoded when RawQuery is empty.
func (o AssembleOptions) EncodedQuery() string {
	if o.RawQuery != "" {
		return o.RawQuery
	}
	return o.Query.Encode()
}
