//go:build unit

package requestctx

import (
	"context"
	"crypto/tls"
	"errors"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/philiph/caddy-redirect-guard/internal/adapters/driven/sites"
	"github.com/philiph/caddy-redirect-guard/internal/core/domain"
)

type failingStore struct{}

func (failingStore) Lookup(host string) (*domain.SitePolicy, error) {
	return nil, errors.New("backend down")
}
func (failingStore) Refresh(ctx context.Context) error { return nil }

func TestFactory_ForRequest_Defaults(t *testing.T) {
	f := NewFactory("/drupal/", domain.SchemePolicyIgnore)
	r := httptest.NewRequest("GET", "http://example.com/drupal/user", nil)

	rc := f.ForRequest(r)
	if rc.CompleteBaseURL() != "http://example.com/drupal" {
		t.Errorf("CompleteBaseURL() = %q, want http://example.com/drupal", rc.CompleteBaseURL())
	}
}

func TestFactory_SchemeDetection(t *testing.T) {
	r := httptest.NewRequest("GET", "http://example.com/", nil)
	r.TLS = &tls.ConnectionState{}

	if rc := NewFactory("", "").ForRequest(r); rc.Scheme != "https" {
		t.Errorf("Scheme = %q, want https for TLS request", rc.Scheme)
	}

	plain := httptest.NewRequest("GET", "http://example.com/", nil)
	if rc := NewFactory("", "", WithScheme("https")).ForRequest(plain); rc.Scheme != "https" {
		t.Errorf("Scheme = %q, want forced https", rc.Scheme)
	}
}

func TestFactory_Resolve_SiteOverrides(t *testing.T) {
	store := sites.NewInMemorySiteStore()
	if err := store.Add(domain.SitePolicy{Host: "blog.example.com", BasePath: "/blog", SchemePolicy: domain.SchemePolicyExact}); err != nil {
		t.Fatal(err)
	}
	if err := store.Add(domain.SitePolicy{Pattern: "*.intranet.test", SchemePolicy: domain.SchemePolicyNoDowngrade}); err != nil {
		t.Fatal(err)
	}
	f := NewFactory("/drupal", domain.SchemePolicyIgnore, WithSiteStore(store))

	tests := []struct {
		url        string
		wantBase   string
		wantPolicy domain.SchemePolicy
	}{
		{"http://blog.example.com/", "/blog", domain.SchemePolicyExact},
		{"http://wiki.intranet.test/", "/drupal", domain.SchemePolicyNoDowngrade},
		{"http://example.com/", "/drupal", domain.SchemePolicyIgnore},
	}

	for _, tc := range tests {
		rc, policy := f.Resolve(httptest.NewRequest("GET", tc.url, nil))
		if rc.BasePath != tc.wantBase {
			t.Errorf("Resolve(%s) BasePath = %q, want %q", tc.url, rc.BasePath, tc.wantBase)
		}
		if policy.Scheme != tc.wantPolicy {
			t.Errorf("Resolve(%s) policy = %q, want %q", tc.url, policy.Scheme, tc.wantPolicy)
		}
	}
}

func TestFactory_LookupFailureFallsBack(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	f := NewFactory("/drupal", domain.SchemePolicyExact, WithSiteStore(failingStore{}), WithLogger(zap.New(core)))

	rc, policy := f.Resolve(httptest.NewRequest("GET", "http://example.com/", nil))
	if rc.BasePath != "/drupal" || policy.Scheme != domain.SchemePolicyExact {
		t.Errorf("Resolve() = %+v %+v, want defaults", rc, policy)
	}
	if logs.FilterMessage("site policy lookup failed").Len() != 1 {
		t.Error("expected a warning for the failed lookup")
	}
}
