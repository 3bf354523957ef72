package caddyredirectguard

import (
	"github.com/philiph/caddy-redirect-guard/internal/core/domain"
)

// Re-export error types from domain package
type ErrorCode = domain.ErrorCode
type AppError = domain.AppError
type JSONErrorResponse = domain.JSONErrorResponse
type JSONErrorDetail = domain.JSONErrorDetail

// Re-export error code constants
const (
	ErrCodeMalformedDestination   = domain.ErrCodeMalformedDestination
	ErrCodeCrossOriginDestination = domain.ErrCodeCrossOriginDestination
	ErrCodeConfigMissing          = domain.ErrCodeConfigMissing
	ErrCodeServiceError           = domain.ErrCodeServiceError
)

// Re-export sentinel errors
var (
	ErrMalformedDestination   = domain.ErrMalformedDestination
	ErrCrossOriginDestination = domain.ErrCrossOriginDestination
	ErrTrustBypass            = domain.ErrTrustBypass
	ErrSiteNotFound           = domain.ErrSiteNotFound
)

// Re-export error constructors
var (
	MalformedDestinationError   = domain.MalformedDestinationError
	CrossOriginDestinationError = domain.CrossOriginDestinationError
	ConfigError                 = domain.ConfigError
	ServiceError                = domain.ServiceError
	NewJSONErrorResponse        = domain.NewJSONErrorResponse
)
