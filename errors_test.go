//go:build unit

package caddyredirectguard

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"testing"
)

func TestErrorCode_HTTPStatus(t *testing.T) {
	tests := []struct {
		code ErrorCode
		want int
	}{
		{ErrCodeMalformedDestination, http.StatusBadRequest},
		{ErrCodeCrossOriginDestination, http.StatusBadRequest},
		{ErrCodeConfigMissing, http.StatusInternalServerError},
		{ErrCodeServiceError, http.StatusInternalServerError},
	}
	for _, tc := range tests {
		if got := tc.code.HTTPStatus(); got != tc.want {
			t.Errorf("%s.HTTPStatus() = %d, want %d", tc.code, got, tc.want)
		}
		if tc.code.Title() == "Error" {
			t.Errorf("%s.Title() fell through to the generic title", tc.code)
		}
	}
}

func TestMalformedDestinationError_WrapsSentinel(t *testing.T) {
	cause := errors.New("invalid percent-encoding")
	err := MalformedDestinationError("%zz", cause)

	if !errors.Is(err, ErrMalformedDestination) {
		t.Error("errors.Is(err, ErrMalformedDestination) = false")
	}
	if !errors.Is(err, cause) {
		t.Error("original cause lost")
	}
	if !strings.Contains(err.Error(), `"%zz"`) {
		t.Errorf("message %q does not quote the destination", err.Error())
	}

	var appErr *AppError
	if !errors.As(err, &appErr) || appErr.Code != ErrCodeMalformedDestination {
		t.Errorf("errors.As() code = %v, want %s", appErr, ErrCodeMalformedDestination)
	}

	if !errors.Is(MalformedDestinationError("x", nil), ErrMalformedDestination) {
		t.Error("nil cause should default to ErrMalformedDestination")
	}
}

func TestCrossOriginDestinationError_HidesTarget(t *testing.T) {
	err := CrossOriginDestinationError("https://evil.example/")
	if !errors.Is(err, ErrCrossOriginDestination) {
		t.Error("errors.Is(err, ErrCrossOriginDestination) = false")
	}
	if strings.Contains(err.Error(), "evil.example") {
		t.Errorf("client-facing message leaks the target: %q", err.Error())
	}
	if !strings.Contains(err.Cause.Error(), "evil.example") {
		t.Errorf("cause %q should keep the target for logs", err.Cause)
	}
}

func TestNewJSONErrorResponse(t *testing.T) {
	resp := NewJSONErrorResponse(CrossOriginDestinationError("https://evil.example/"), "inc-1")
	data, err := json.Marshal(resp)
	if err != nil {
		t.Fatal(err)
	}
	want := `{"error":{"code":"cross_origin_destination","message":"Redirects to external URLs are not allowed","incident_id":"inc-1"}}`
	if string(data) != want {
		t.Errorf("JSON = %s\nwant   %s", data, want)
	}

	data, _ = json.Marshal(NewJSONErrorResponse(ServiceError("nope"), ""))
	if strings.Contains(string(data), "incident_id") {
		t.Errorf("empty incident id should be omitted: %s", data)
	}
}

func TestConfigError_KeepsCause(t *testing.T) {
	cause := errors.New(`unknown scheme policy "sometimes"`)
	err := ConfigError("scheme_policy", cause)

	if err.Code != ErrCodeConfigMissing {
		t.Errorf("Code = %s, want %s", err.Code, ErrCodeConfigMissing)
	}
	if !errors.Is(err, cause) {
		t.Error("errors.Is(err, cause) = false")
	}
	if want := `scheme_policy: unknown scheme policy "sometimes"`; err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
	if got := ConfigError("base_path missing", nil).Error(); got != "base_path missing" {
		t.Errorf("Error() without cause = %q", got)
	}
}
