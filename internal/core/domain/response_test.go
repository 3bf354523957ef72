//go:build unit

package domain

import (
	"crypto/tls"
	"net/http/httptest"
	"testing"
)

func TestClassifyResponse(t *testing.T) {
	tests := []struct {
		status   int
		location string
		want     ResponseKind
	}{
		{301, "/x", KindRedirect},
		{302, "/x", KindRedirect},
		{303, "/x", KindRedirect},
		{307, "/x", KindRedirect},
		{308, "/x", KindRedirect},
		{300, "/x", KindRedirect},
		{302, "", KindOther},
		{304, "/x", KindOther},
		{305, "/x", KindOther},
		{200, "/x", KindOther},
		{400, "/x", KindOther},
	}

	for _, tc := range tests {
		if got := ClassifyResponse(tc.status, tc.location); got != tc.want {
			t.Errorf("ClassifyResponse(%d, %q) = %v, want %v", tc.status, tc.location, got, tc.want)
		}
	}
}

func TestNewRedirect_DefaultStatus(t *testing.T) {
	r := NewRedirect("/x", 0)
	if r.StatusCode != 302 || r.Kind != KindRedirect {
		t.Errorf("NewRedirect(0) = %+v, want 302 redirect", r)
	}

	tr := NewTrustedRedirect("http://external-url.com", 307)
	if tr.StatusCode != 307 || tr.Kind != KindTrustedRedirect {
		t.Errorf("NewTrustedRedirect() = %+v, want 307 trusted redirect", tr)
	}
}

func TestResponse_Reject(t *testing.T) {
	r := NewRedirect("http://evil.test", 302)
	r.Reject(CrossOriginDestinationError("http://evil.test"), "abc")

	if r.Kind != KindOther {
		t.Errorf("Kind = %v, want other", r.Kind)
	}
	if r.StatusCode != 400 {
		t.Errorf("StatusCode = %d, want 400", r.StatusCode)
	}
	if r.TargetURL != "" {
		t.Errorf("TargetURL = %q, want empty", r.TargetURL)
	}
	if !r.Rejected() || r.IncidentID != "abc" {
		t.Errorf("Rejected() = %v, IncidentID = %q", r.Rejected(), r.IncidentID)
	}
}

func TestResponseKind_String(t *testing.T) {
	if KindOther.String() != "other" || KindRedirect.String() != "redirect" || KindTrustedRedirect.String() != "trusted_redirect" {
		t.Error("ResponseKind.String() returned unexpected names")
	}
}

func TestNewIncomingRequest(t *testing.T) {
	r := httptest.NewRequest("GET", "https://example.com:8443/drupal/user?destination=test&x=1", nil)
	r.TLS = &tls.ConnectionState{}

	req := NewIncomingRequest(r)
	if req.Host != "example.com:8443" {
		t.Errorf("Host = %q", req.Host)
	}
	if req.Scheme != "https" {
		t.Errorf("Scheme = %q, want https", req.Scheme)
	}
	if req.Path != "/drupal/user" {
		t.Errorf("Path = %q", req.Path)
	}
	if req.Query.Get("destination") != "test" {
		t.Errorf("Query[destination] = %q, want test", req.Query.Get("destination"))
	}
}
