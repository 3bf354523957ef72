package caddyredirectguard

import (
	"github.com/philiph/caddy-redirect-guard/internal/adapters/driving/caddy"
	"github.com/philiph/caddy-redirect-guard/internal/core/domain"
)

// Re-export Config and related types from adapter
type Config = caddy.Config
type SitePolicy = domain.SitePolicy
type SchemePolicy = domain.SchemePolicy

const (
	DefaultTrustHeader      = caddy.DefaultTrustHeader
	DefaultDestinationParam = domain.DefaultDestinationParam

	ResponseFormatAuto = caddy.ResponseFormatAuto
	ResponseFormatText = caddy.ResponseFormatText
	ResponseFormatJSON = caddy.ResponseFormatJSON
	ResponseFormatHTML = caddy.ResponseFormatHTML

	SchemePolicyIgnore      = domain.SchemePolicyIgnore
	SchemePolicyExact       = domain.SchemePolicyExact
	SchemePolicyNoDowngrade = domain.SchemePolicyNoDowngrade
)

var (
	ParseSchemePolicy  = domain.ParseSchemePolicy
	MatchesHostPattern = domain.MatchesHostPattern
)
