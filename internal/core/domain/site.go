package domain

import (
	"errors"
	"strings"
)

// ErrSiteNotFound is returned when no site policy matches a host.
var ErrSiteNotFound = errors.New("site policy not found")

// SitePolicy overrides the guard's defaults for one host or host pattern.
type SitePolicy struct {
	// Host is an exact host match, compared case-insensitively, with or
	// without port (mutually exclusive with Pattern).
	Host string `json:"host,omitempty" yaml:"host,omitempty" validate:"omitempty,hostname_port|hostname_rfc1123"`

	// Pattern is a glob over the hostname (mutually exclusive with Host).
	// Supports: "*.example.com", "intranet.*", "*staging*".
	Pattern string `json:"pattern,omitempty" yaml:"pattern,omitempty" validate:"omitempty,max=253"`

	// BasePath is the path the site is mounted under, e.g. "/drupal".
	BasePath string `json:"base_path,omitempty" yaml:"base_path,omitempty" validate:"omitempty,startswith=/"`

	// SchemePolicy overrides the scheme-matching policy for this site.
	SchemePolicy SchemePolicy `json:"scheme_policy,omitempty" yaml:"scheme_policy,omitempty" validate:"omitempty,oneof=ignore exact no_downgrade"`
}

// Validate checks that the policy is usable.
// Returns an error if both Host and Pattern are set, or if neither is set.
func (p *SitePolicy) Validate() error {
	hasHost := p.Host != ""
	hasPattern := p.Pattern != ""

	if hasHost && hasPattern {
		return errors.New("site policy cannot have both host and pattern")
	}
	if !hasHost && !hasPattern {
		return errors.New("site policy must have either host or pattern")
	}
	if _, err := ParseSchemePolicy(string(p.SchemePolicy)); err != nil {
		return err
	}
	return nil
}

// MatchesHost reports whether the policy applies to host. Exact hosts
// compare against the full host first and then against the hostname without
// port; patterns always match the hostname.
func (p *SitePolicy) MatchesHost(host string) bool {
	rc := RequestContext{Host: host}
	hostname := rc.Hostname()
	if p.Host != "" {
		return strings.EqualFold(p.Host, host) || strings.EqualFold(p.Host, hostname)
	}
	return MatchesHostPattern(hostname, strings.ToLower(p.Pattern))
}

// MatchesHostPattern checks if a hostname matches a glob-like pattern.
// Supported forms: "*", "*substring*", "prefix*", "*suffix" and exact match.
func MatchesHostPattern(hostname, pattern string) bool {
	if pattern == "" || pattern == "*" {
		return true
	}

	// Handle common case: *substring* pattern (substring match)
	if strings.HasPrefix(pattern, "*") && strings.HasSuffix(pattern, "*") && len(pattern) > 2 {
		return strings.Contains(hostname, pattern[1:len(pattern)-1])
	}

	// Handle prefix pattern: prefix*
	if strings.HasSuffix(pattern, "*") && !strings.HasPrefix(pattern, "*") {
		return strings.HasPrefix(hostname, pattern[:len(pattern)-1])
	}

	// Handle suffix pattern: *suffix
	if strings.HasPrefix(pattern, "*") && !strings.HasSuffix(pattern, "*") {
		return strings.HasSuffix(hostname, pattern[1:])
	}

	return hostname == pattern
}
