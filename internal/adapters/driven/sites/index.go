package sites

import (
	"strings"

	"github.com/philiph/caddy-redirect-guard/internal/core/domain"
)

// siteIndex organizes policies for lookup: exact hosts first, then patterns
// in declaration order.
type siteIndex struct {
	exact    map[string]domain.SitePolicy
	patterns []domain.SitePolicy
}

func newSiteIndex() siteIndex {
	return siteIndex{exact: make(map[string]domain.SitePolicy)}
}

func (idx *siteIndex) add(p domain.SitePolicy) {
	if p.Host != "" {
		idx.exact[strings.ToLower(p.Host)] = p
		return
	}
	idx.patterns = append(idx.patterns, p)
}

func (idx *siteIndex) lookup(host string) (*domain.SitePolicy, error) {
	host = strings.ToLower(host)

	// Check exact matches first, with and without port
	if p, ok := idx.exact[host]; ok {
		return &p, nil
	}
	hostname := domain.RequestContext{Host: host}.Hostname()
	if p, ok := idx.exact[hostname]; ok {
		return &p, nil
	}

	// Check pattern matches
	for i := range idx.patterns {
		if idx.patterns[i].MatchesHost(host) {
			p := idx.patterns[i]
			return &p, nil
		}
	}

	return nil, domain.ErrSiteNotFound
}

func (idx *siteIndex) len() int {
	return len(idx.exact) + len(idx.patterns)
}
