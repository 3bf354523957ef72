package caddyredirectguard

import (
	"github.com/philiph/caddy-redirect-guard/internal/adapters/driven/sites"
	"github.com/philiph/caddy-redirect-guard/internal/core/ports"
)

// Re-export SiteStore interface from ports
type SiteStore = ports.SiteStore

// Re-export site store adapters
type InMemorySiteStore = sites.InMemorySiteStore
type FileSiteStore = sites.FileSiteStore
type URLSiteStore = sites.URLSiteStore
type URLOption = sites.URLOption
type ChainSiteStore = sites.ChainSiteStore
type SitesFile = sites.SitesFile

var (
	NewInMemorySiteStore = sites.NewInMemorySiteStore
	NewFileSiteStore     = sites.NewFileSiteStore
	NewURLSiteStore      = sites.NewURLSiteStore
	NewChainSiteStore    = sites.NewChainSiteStore
	WithHTTPClient       = sites.WithHTTPClient
	WithUserAgent        = sites.WithUserAgent
)
