//go:build unit

package sites

import (
	"context"
	"errors"
	"testing"

	"github.com/philiph/caddy-redirect-guard/internal/core/domain"
)

func TestInMemorySiteStore_Lookup(t *testing.T) {
	store := NewInMemorySiteStore()
	policies := []domain.SitePolicy{
		{Host: "www.example.com", BasePath: "/drupal"},
		{Host: "www.example.com:8080", BasePath: "/alt"},
		{Pattern: "*.example.org", SchemePolicy: domain.SchemePolicyExact},
	}
	for _, p := range policies {
		if err := store.Add(p); err != nil {
			t.Fatalf("Add(%+v) error = %v", p, err)
		}
	}

	tests := []struct {
		host     string
		wantBase string
		wantErr  error
	}{
		{host: "www.example.com", wantBase: "/drupal"},
		{host: "WWW.Example.COM", wantBase: "/drupal"},
		{host: "www.example.com:8080", wantBase: "/alt"},
		{host: "www.example.com:9090", wantBase: "/drupal"},
		{host: "docs.example.org", wantBase: ""},
		{host: "example.net", wantErr: domain.ErrSiteNotFound},
	}

	for _, tc := range tests {
		t.Run(tc.host, func(t *testing.T) {
			site, err := store.Lookup(tc.host)
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Errorf("Lookup(%q) error = %v, want %v", tc.host, err, tc.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Lookup(%q) error = %v", tc.host, err)
			}
			if site.BasePath != tc.wantBase {
				t.Errorf("Lookup(%q) BasePath = %q, want %q", tc.host, site.BasePath, tc.wantBase)
			}
		})
	}

	if store.Len() != 3 {
		t.Errorf("Len() = %d, want 3", store.Len())
	}
}

func TestInMemorySiteStore_AddRejectsInvalid(t *testing.T) {
	tests := []struct {
		name   string
		policy domain.SitePolicy
	}{
		{"empty", domain.SitePolicy{}},
		{"host and pattern", domain.SitePolicy{Host: "a.example.com", Pattern: "*.example.com"}},
		{"relative base path", domain.SitePolicy{Host: "a.example.com", BasePath: "drupal"}},
		{"unknown scheme policy", domain.SitePolicy{Host: "a.example.com", SchemePolicy: "maybe"}},
		{"invalid host", domain.SitePolicy{Host: "bad host!"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			store := NewInMemorySiteStore()
			if err := store.Add(tc.policy); err == nil {
				t.Errorf("Add(%+v) error = nil, want error", tc.policy)
			}
			if store.Len() != 0 {
				t.Errorf("Len() = %d after rejected Add, want 0", store.Len())
			}
		})
	}
}

func TestInMemorySiteStore_PatternOrder(t *testing.T) {
	store := NewInMemorySiteStore()
	if err := store.Add(domain.SitePolicy{Pattern: "*.example.com", BasePath: "/first"}); err != nil {
		t.Fatal(err)
	}
	if err := store.Add(domain.SitePolicy{Pattern: "*example*", BasePath: "/second"}); err != nil {
		t.Fatal(err)
	}

	site, err := store.Lookup("a.example.com")
	if err != nil {
		t.Fatalf("Lookup() error = %v", err)
	}
	if site.BasePath != "/first" {
		t.Errorf("Lookup() BasePath = %q, want first declared pattern", site.BasePath)
	}
}

func TestChainSiteStore_FirstMatchWins(t *testing.T) {
	inline := NewInMemorySiteStore()
	if err := inline.Add(domain.SitePolicy{Host: "a.example.com", BasePath: "/inline"}); err != nil {
		t.Fatal(err)
	}
	fallback := NewInMemorySiteStore()
	if err := fallback.Add(domain.SitePolicy{Pattern: "*.example.com", BasePath: "/fallback"}); err != nil {
		t.Fatal(err)
	}
	chain := NewChainSiteStore(inline, fallback)

	site, err := chain.Lookup("a.example.com")
	if err != nil || site.BasePath != "/inline" {
		t.Errorf("Lookup(a.example.com) = %+v, %v, want /inline", site, err)
	}
	site, err = chain.Lookup("b.example.com")
	if err != nil || site.BasePath != "/fallback" {
		t.Errorf("Lookup(b.example.com) = %+v, %v, want /fallback", site, err)
	}
	if _, err := chain.Lookup("example.org"); !errors.Is(err, domain.ErrSiteNotFound) {
		t.Errorf("Lookup(example.org) error = %v, want ErrSiteNotFound", err)
	}
	if err := chain.Refresh(context.Background()); err != nil {
		t.Errorf("Refresh() error = %v", err)
	}
}
