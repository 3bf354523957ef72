package caddyredirectguard

import (
	"github.com/philiph/caddy-redirect-guard/internal/adapters/driven/requestctx"
	"github.com/philiph/caddy-redirect-guard/internal/adapters/driven/urlassembler"
	"github.com/philiph/caddy-redirect-guard/internal/core/domain"
	"github.com/philiph/caddy-redirect-guard/internal/core/guard"
)

// Re-export the guard core for use outside Caddy
type Guard = guard.RedirectGuard
type GuardOption = guard.Option
type Decision = guard.Decision

type RequestContext = domain.RequestContext
type IncomingRequest = domain.IncomingRequest
type Response = domain.Response
type ResponseKind = domain.ResponseKind
type OriginPolicy = domain.OriginPolicy
type DestinationHint = domain.DestinationHint

type RequestContextFactory = requestctx.Factory
type UnroutedAssembler = urlassembler.UnroutedAssembler

const (
	DecisionAccepted  = guard.DecisionAccepted
	DecisionRewritten = guard.DecisionRewritten
	DecisionRejected  = guard.DecisionRejected
	DecisionTrusted   = guard.DecisionTrusted
	DecisionSkipped   = guard.DecisionSkipped

	KindOther           = domain.KindOther
	KindRedirect        = domain.KindRedirect
	KindTrustedRedirect = domain.KindTrustedRedirect
)

var (
	NewGuard                 = guard.New
	WithLogger               = guard.WithLogger
	WithMetricsRecorder      = guard.WithMetricsRecorder
	WithDestinationParam     = guard.WithDestinationParam
	WithExternalSchemes      = guard.WithExternalSchemes
	WithOriginPolicy         = guard.WithOriginPolicy
	NewUnroutedAssembler     = urlassembler.NewUnroutedAssembler
	NewRequestContextFactory = requestctx.NewFactory
	NewRequestContext        = domain.NewRequestContext
	NewIncomingRequest       = domain.NewIncomingRequest
	NewRedirect              = domain.NewRedirect
	NewTrustedRedirect       = domain.NewTrustedRedirect
	ParseDestination         = domain.ParseDestination
	IsRedirectStatus         = domain.IsRedirectStatus
)
