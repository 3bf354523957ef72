package domain

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorCode represents categorized error types.
// These codes are stable and can be used for programmatic error handling.
type ErrorCode string

const (
	ErrCodeMalformedDestination   ErrorCode = "malformed_destination"
	ErrCodeCrossOriginDestination ErrorCode = "cross_origin_destination"
	ErrCodeConfigMissing          ErrorCode = "config_missing"
	ErrCodeServiceError           ErrorCode = "service_error"
)

var (
	// ErrMalformedDestination is the cause of rejections where the redirect
	// target cannot be parsed as a relative or absolute URL reference.
	ErrMalformedDestination = errors.New("malformed destination")

	// ErrCrossOriginDestination is the cause of rejections where the resolved
	// target's authority differs from the current request's authority.
	ErrCrossOriginDestination = errors.New("cross-origin destination")

	// ErrTrustBypass marks a trusted redirect. It is never returned as a
	// failure; it explains why validation was skipped.
	ErrTrustBypass = errors.New("trusted redirect: validation bypassed")
)

// String returns the error code as a string.
func (c ErrorCode) String() string {
	return string(c)
}

// AppError is a structured error with code, message, and optional cause.
type AppError struct {
	Code    ErrorCode
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *AppError) Error() string {
	return e.Message
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *AppError) Unwrap() error {
	return e.Cause
}

// HTTPStatus returns the HTTP status code for this error code.
func (c ErrorCode) HTTPStatus() int {
	switch c {
	case ErrCodeMalformedDestination, ErrCodeCrossOriginDestination:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// Title returns a user-friendly title for this error code.
func (c ErrorCode) Title() string {
	switch c {
	case ErrCodeMalformedDestination:
		return "Invalid Redirect"
	case ErrCodeCrossOriginDestination:
		return "Redirect Not Allowed"
	case ErrCodeConfigMissing:
		return "Configuration Error"
	case ErrCodeServiceError:
		return "Service Error"
	default:
		return "Error"
	}
}

// JSONErrorResponse is the standard JSON error format for rejected redirects.
type JSONErrorResponse struct {
	Error JSONErrorDetail `json:"error"`
}

// JSONErrorDetail contains error details.
type JSONErrorDetail struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	IncidentID string `json:"incident_id,omitempty"`
}

// NewJSONErrorResponse creates a JSON error response from an AppError.
func NewJSONErrorResponse(err *AppError, incidentID string) JSONErrorResponse {
	return JSONErrorResponse{
		Error: JSONErrorDetail{
			Code:       err.Code.String(),
			Message:    err.Message,
			IncidentID: incidentID,
		},
	}
}

// MalformedDestinationError creates an error for a destination that cannot be
// parsed as a URL reference.
func MalformedDestinationError(destination string, cause error) *AppError {
	if cause == nil {
		cause = ErrMalformedDestination
	} else if !errors.Is(cause, ErrMalformedDestination) {
		cause = fmt.Errorf("%w: %w", ErrMalformedDestination, cause)
	}
	return &AppError{
		Code:    ErrCodeMalformedDestination,
		Message: fmt.Sprintf("The redirect destination %q is not a valid URL", destination),
		Cause:   cause,
	}
}

// CrossOriginDestinationError creates an error for a redirect target that
// leaves the current site.
func CrossOriginDestinationError(target string) *AppError {
	return &AppError{
		Code:    ErrCodeCrossOriginDestination,
		Message: "Redirects to external URLs are not allowed",
		Cause:   fmt.Errorf("%w: %s", ErrCrossOriginDestination, target),
	}
}

// ConfigError creates a configuration error. A non-nil cause is appended to
// the message and kept for errors.Is/As.
func ConfigError(message string, cause error) *AppError {
	if cause != nil {
		message = message + ": " + cause.Error()
	}
	return &AppError{Code: ErrCodeConfigMissing, Message: message, Cause: cause}
}

// ServiceError creates a service error. The rejection renderer falls back to
// it when a rejected response carries no error.
func ServiceError(message string) *AppError {
	return &AppError{Code: ErrCodeServiceError, Message: message}
}
