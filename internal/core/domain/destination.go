package domain

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"unicode"
	"unicode/utf8"
)

// DefaultDestinationParam is the query parameter reserved for destination hints.
const DefaultDestinationParam = "destination"

// DefaultExternalSchemes are the protocols that make a hint an absolute URL.
// Any other "word:" prefix (javascript:, example:) is treated as path text.
var DefaultExternalSchemes = []string{
	"ftp", "http", "https", "irc", "mailto", "news", "nntp",
	"rtsp", "sftp", "ssh", "tel", "telnet", "webcal",
}

// HintKind classifies a destination hint.
type HintKind int

const (
	// HintInternal is a path relative to the site, assembled as base:<path>.
	HintInternal HintKind = iota

	// HintAbsolute carries its own scheme and authority.
	HintAbsolute

	// HintSchemeRelative starts with "//" and names an authority without a scheme.
	HintSchemeRelative
)

// String returns a lowercase name for the kind.
func (k HintKind) String() string {
	switch k {
	case HintAbsolute:
		return "absolute"
	case HintSchemeRelative:
		return "scheme_relative"
	default:
		return "internal"
	}
}

// DestinationHint is the parsed form of a client-supplied destination.
type DestinationHint struct {
	// Raw is the value exactly as received.
	Raw string

	Kind HintKind

	// Path, Query, RawQuery and Fragment are set for internal hints. RawQuery
	// is the query as received, with only bytes that are not allowed in a URL
	// query percent-encoded. Fragment stays percent-encoded.
	Path     string
	Query    url.Values
	RawQuery string
	Fragment string

	// URL is set for absolute and scheme-relative hints. Backslashes in the
	// raw value have been read as forward slashes, the way browsers do.
	URL *url.URL
}

// ParseDestination classifies and parses a raw destination hint.
//
// Hints containing control characters, invalid UTF-8, invalid percent-encoding or an
// unparseable query are malformed. A leading "//" (after reading backslashes
// as slashes) makes the hint scheme-relative; a leading "scheme:" whose scheme
// is listed in externalSchemes makes it absolute. Everything else is an
// internal path, including values that merely look like hosts or schemes.
func ParseDestination(raw string, externalSchemes []string) (DestinationHint, error) {
	hint := DestinationHint{Raw: raw}

	if hasControl(raw) {
		return hint, fmt.Errorf("%w: control character in destination", ErrMalformedDestination)
	}

	normalized := strings.ReplaceAll(raw, `\`, "/")

	switch {
	case strings.HasPrefix(normalized, "//"):
		hint.Kind = HintSchemeRelative
	case hasExternalScheme(normalized, externalSchemes):
		hint.Kind = HintAbsolute
	default:
		hint.Kind = HintInternal
		return parseInternal(hint)
	}

	u, err := url.Parse(normalized)
	if err != nil {
		return hint, fmt.Errorf("%w: %w", ErrMalformedDestination, err)
	}
	if u.User != nil {
		return hint, fmt.Errorf("%w: credentials in destination", ErrMalformedDestination)
	}
	if u.Host == "" {
		return hint, fmt.Errorf("%w: destination has no host", ErrMalformedDestination)
	}
	hint.URL = u
	return hint, nil
}

func parseInternal(hint DestinationHint) (DestinationHint, error) {
	rest := hint.Raw
	if before, fragment, ok := strings.Cut(rest, "#"); ok {
		rest = before
		if _, err := url.PathUnescape(fragment); err != nil {
			return hint, fmt.Errorf("%w: %w", ErrMalformedDestination, err)
		}
		hint.Fragment = escapeInvalid(fragment)
	}
	if before, rawQuery, ok := strings.Cut(rest, "?"); ok {
		rest = before
		q, err := url.ParseQuery(rawQuery)
		if err != nil {
			return hint, fmt.Errorf("%w: %w", ErrMalformedDestination, err)
		}
		hint.Query = q
		hint.RawQuery = escapeInvalid(rawQuery)
	}
	if _, err := url.PathUnescape(rest); err != nil {
		return hint, fmt.Errorf("%w: %w", ErrMalformedDestination, err)
	}
	hint.Path = rest
	return hint, nil
}

// hasExternalScheme reports whether s starts with "scheme:" for a listed
// scheme, with no '/', '?' or '#' before the colon.
func hasExternalScheme(s string, schemes []string) bool {
	scheme, _, ok := strings.Cut(s, ":")
	if !ok || scheme == "" || strings.ContainsAny(scheme, "/?#") {
		return false
	}
	for _, candidate := range schemes {
		if strings.EqualFold(scheme, candidate) {
			return true
		}
	}
	return false
}

// hasControl reports control characters or invalid UTF-8. A literal U+FFFD
// is valid text.
func hasControl(s string) bool {
	if !utf8.ValidString(s) {
		return true
	}
	for _, r := range s {
		if unicode.IsControl(r) {
			return true
		}
	}
	return false
}

// escapeInvalid percent-encodes the bytes of a query or fragment that may not
// appear literally in a URL. Existing escapes, order and separators are kept.
func escapeInvalid(s string) string {
	const hex = "0123456789ABCDEF"
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if allowedInQuery(c) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(hex[c>>4])
		b.WriteByte(hex[c&15])
	}
	return b.String()
}

// allowedInQuery reports whether c may appear unescaped in a query or
// fragment (RFC 3986 unreserved, sub-delims, ':', '@', '/', '?', and '%'
// starting an escape already validated by the caller).
func allowedInQuery(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	}
	return strings.IndexByte("-._~!$&'()*+,;=:@/?%", c) >= 0
}

// IsMalformed reports whether err came from ParseDestination rejecting a hint.
func IsMalformed(err error) bool {
	return errors.Is(err, ErrMalformedDestination)
}

// IsRelativeReference reports whether target is a relative reference, i.e.
// carries neither a scheme nor an authority. Browsers resolve such targets
// against the current page, so they cannot leave the site.
func IsRelativeReference(target string, externalSchemes []string) bool {
	normalized := strings.ReplaceAll(target, `\`, "/")
	if strings.HasPrefix(normalized, "//") || hasControl(target) {
		return false
	}
	u, err := url.Parse(normalized)
	if err != nil {
		return false
	}
	return u.Scheme == "" && u.Host == "" && !hasExternalScheme(normalized, externalSchemes)
}
