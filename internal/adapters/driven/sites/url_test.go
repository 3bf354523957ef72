//go:build integration

package sites

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/philiph/caddy-redirect-guard/internal/core/domain"
)

// sitesServer serves body with an ETag and answers conditional requests.
type sitesServer struct {
	body        atomic.Value
	contentType string
	status      atomic.Int32
	requests    atomic.Int32
	notModified atomic.Int32
	userAgent   atomic.Value
}

func newSitesServer(t *testing.T, body, contentType string) (*sitesServer, *httptest.Server) {
	t.Helper()
	s := &sitesServer{contentType: contentType}
	s.body.Store(body)
	s.status.Store(http.StatusOK)
	srv := httptest.NewServer(s)
	t.Cleanup(srv.Close)
	return s, srv
}

func (s *sitesServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.requests.Add(1)
	s.userAgent.Store(r.Header.Get("User-Agent"))
	if status := int(s.status.Load()); status != http.StatusOK {
		w.WriteHeader(status)
		return
	}
	body := s.body.Load().(string)
	etag := fmt.Sprintf(`"%x"`, sha256.Sum256([]byte(body)))
	if r.Header.Get("If-None-Match") == etag {
		s.notModified.Add(1)
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("ETag", etag)
	if s.contentType != "" {
		w.Header().Set("Content-Type", s.contentType)
	}
	_, _ = w.Write([]byte(body))
}

func readTestdata(t *testing.T, name string) string {
	t.Helper()
	data, err := os.ReadFile("testdata/" + name)
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}

func TestURLSiteStore_LoadJSON(t *testing.T) {
	_, srv := newSitesServer(t, readTestdata(t, "sites.json"), "application/json")

	metrics := &recordingMetrics{}
	store := NewURLSiteStore(srv.URL+"/sites", nil, metrics)
	if err := store.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}

	site, err := store.Lookup("www.example.com")
	if err != nil {
		t.Fatalf("Lookup() error = %v", err)
	}
	if site.BasePath != "/drupal" {
		t.Errorf("BasePath = %q, want /drupal", site.BasePath)
	}
	if len(metrics.refresh) != 1 || metrics.refresh[0] != (refreshCall{"url", true, 3}) {
		t.Errorf("refresh metrics = %+v", metrics.refresh)
	}
}

func TestURLSiteStore_FormatDetection(t *testing.T) {
	yamlBody := readTestdata(t, "sites.yaml")

	tests := []struct {
		name        string
		path        string
		contentType string
	}{
		{"yaml content type", "/sites", "application/yaml; charset=utf-8"},
		{"text/yaml", "/config", "text/yaml"},
		{"yaml extension", "/sites.yaml", "text/plain"},
		{"yml extension without type", "/sites.yml", ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, srv := newSitesServer(t, yamlBody, tc.contentType)
			store := NewURLSiteStore(srv.URL+tc.path, nil, nil)
			if err := store.Refresh(context.Background()); err != nil {
				t.Fatalf("Refresh() error = %v", err)
			}
			site, err := store.Lookup("wiki.intranet.example.com")
			if err != nil {
				t.Fatalf("Lookup() error = %v", err)
			}
			if site.SchemePolicy != domain.SchemePolicyNoDowngrade {
				t.Errorf("SchemePolicy = %q, want no_downgrade", site.SchemePolicy)
			}
		})
	}
}

func TestURLSiteStore_ConditionalRequest(t *testing.T) {
	server, srv := newSitesServer(t, readTestdata(t, "sites.json"), "application/json")

	store := NewURLSiteStore(srv.URL, nil, nil, WithUserAgent("guard-test/1.0"))
	for i := 0; i < 3; i++ {
		if err := store.Refresh(context.Background()); err != nil {
			t.Fatalf("Refresh() #%d error = %v", i, err)
		}
	}

	if got := server.notModified.Load(); got != 2 {
		t.Errorf("304 responses = %d, want 2", got)
	}
	if got := server.userAgent.Load().(string); got != "guard-test/1.0" {
		t.Errorf("User-Agent = %q, want guard-test/1.0", got)
	}
	if _, err := store.Lookup("www.example.com"); err != nil {
		t.Errorf("policies lost after 304: %v", err)
	}
	if store.LastSuccess().IsZero() {
		t.Error("LastSuccess() is zero after successful refresh")
	}
}

func TestURLSiteStore_ChangedDocument(t *testing.T) {
	server, srv := newSitesServer(t, `{"sites":[{"host":"a.example.com","base_path":"/a"}]}`, "application/json")

	store := NewURLSiteStore(srv.URL, nil, nil)
	if err := store.Refresh(context.Background()); err != nil {
		t.Fatal(err)
	}

	server.body.Store(`{"sites":[{"host":"b.example.com","base_path":"/b"}]}`)
	if err := store.Refresh(context.Background()); err != nil {
		t.Fatal(err)
	}

	if _, err := store.Lookup("a.example.com"); !errors.Is(err, domain.ErrSiteNotFound) {
		t.Errorf("Lookup(a) error = %v, want ErrSiteNotFound", err)
	}
	site, err := store.Lookup("b.example.com")
	if err != nil {
		t.Fatalf("Lookup(b) error = %v", err)
	}
	if site.BasePath != "/b" {
		t.Errorf("BasePath = %q, want /b", site.BasePath)
	}
}

func TestURLSiteStore_FailureKeepsPolicies(t *testing.T) {
	server, srv := newSitesServer(t, readTestdata(t, "sites.json"), "application/json")

	metrics := &recordingMetrics{}
	store := NewURLSiteStore(srv.URL, nil, metrics)
	if err := store.Refresh(context.Background()); err != nil {
		t.Fatal(err)
	}

	server.status.Store(http.StatusServiceUnavailable)
	err := store.Refresh(context.Background())
	if err == nil || !strings.Contains(err.Error(), "HTTP 503") {
		t.Fatalf("Refresh() error = %v, want HTTP 503", err)
	}
	if store.LastError() == nil {
		t.Error("LastError() = nil after failed refresh")
	}
	if _, err := store.Lookup("www.example.com"); err != nil {
		t.Errorf("previous policies dropped: %v", err)
	}

	last := metrics.refresh[len(metrics.refresh)-1]
	if last != (refreshCall{"url", false, 0}) {
		t.Errorf("last refresh metric = %+v, want failed url refresh", last)
	}

	server.status.Store(http.StatusOK)
	if err := store.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh() after recovery error = %v", err)
	}
	if store.LastError() != nil {
		t.Errorf("LastError() = %v after recovery, want nil", store.LastError())
	}
}

func TestURLSiteStore_InvalidDocument(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"malformed json", `{"sites": [`},
		{"host and pattern", `{"sites":[{"host":"a.example.com","pattern":"*.example.com"}]}`},
		{"relative base path", `{"sites":[{"host":"a.example.com","base_path":"app"}]}`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, srv := newSitesServer(t, tc.body, "application/json")
			store := NewURLSiteStore(srv.URL, nil, nil)
			if err := store.Refresh(context.Background()); err == nil {
				t.Error("Refresh() error = nil, want error")
			}
		})
	}
}

func TestURLSiteStore_OversizedDocument(t *testing.T) {
	body := `{"sites":[],"padding":"` + strings.Repeat("x", maxSitesBody) + `"}`
	_, srv := newSitesServer(t, body, "application/json")

	store := NewURLSiteStore(srv.URL, nil, nil)
	err := store.Refresh(context.Background())
	if err == nil || !strings.Contains(err.Error(), "exceeds") {
		t.Errorf("Refresh() error = %v, want size error", err)
	}
}

func TestURLSiteStore_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	store := NewURLSiteStore(url, nil, nil, WithHTTPClient(&http.Client{}))
	if err := store.Refresh(context.Background()); err == nil {
		t.Error("Refresh() error = nil for closed server")
	}
}
