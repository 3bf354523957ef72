//go:build integration

package caddy

import (
	"context"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/caddyserver/caddy/v2/modules/caddyhttp"

	"github.com/philiph/caddy-redirect-guard/internal/adapters/driven/trust"
	"github.com/philiph/caddy-redirect-guard/testfixtures/app"
)

// guarded wraps an http.Handler with g as Caddy would.
func guarded(g *RedirectGuard) func(http.Handler) http.Handler {
	return func(h http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next := caddyhttp.HandlerFunc(func(w http.ResponseWriter, r *http.Request) error {
				h.ServeHTTP(w, r)
				return nil
			})
			if err := g.ServeHTTP(w, r, next); err != nil {
				http.Error(w, err.Error(), http.StatusInternalServerError)
			}
		})
	}
}

func get(t *testing.T, a *app.TestApp, path string) *http.Response {
	t.Helper()
	resp, err := a.Client().Get(a.BaseURL() + path)
	if err != nil {
		t.Fatalf("GET %s: %v", path, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestIntegration_LoginWithDestination(t *testing.T) {
	g := NewRedirectGuardForTest(Config{}, nil, nil, nil)
	a := app.New(t, guarded(g))
	defer a.Close()
	base, _ := url.Parse(a.BaseURL())

	resp := get(t, a, app.LoginPath+"?destination=node/5%3Fpage%3D2")
	if resp.StatusCode != http.StatusSeeOther {
		t.Fatalf("status = %d, want 303", resp.StatusCode)
	}
	want := "http://" + base.Host + "/node/5?page=2"
	if got := resp.Header.Get("Location"); got != want {
		t.Errorf("Location = %q, want %q", got, want)
	}

	resp = get(t, a, app.LoginPath)
	if got := resp.Header.Get("Location"); got != app.HomePath {
		t.Errorf("without destination Location = %q, want %q", got, app.HomePath)
	}
}

func TestIntegration_OpenRedirectBlocked(t *testing.T) {
	g := NewRedirectGuardForTest(Config{ResponseFormat: ResponseFormatText}, nil, nil, nil)
	a := app.New(t, guarded(g))
	defer a.Close()

	for _, path := range []string{
		app.LoginPath + "?destination=" + url.QueryEscape("https://evil.example/"),
		app.LoginPath + "?destination=" + url.QueryEscape("//evil.example/"),
		app.RedirectPath + "?to=" + url.QueryEscape("https://evil.example/"),
	} {
		resp := get(t, a, path)
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("GET %s: status = %d, want 400", path, resp.StatusCode)
		}
		if resp.Header.Get("Location") != "" {
			t.Errorf("GET %s: Location = %q, want none", path, resp.Header.Get("Location"))
		}
	}
}

func TestIntegration_TrustedRedirect(t *testing.T) {
	assertions, err := trust.NewHMACAssertions([]byte("integration-secret-0123456789abcdef"))
	if err != nil {
		t.Fatal(err)
	}
	g := NewRedirectGuardForTest(Config{}, assertions, nil, nil)
	a := app.New(t, guarded(g), app.WithSigner(assertions))
	defer a.Close()

	resp := get(t, a, app.TrustedPath+"?to="+url.QueryEscape("https://idp.example.org/sso"))
	if resp.StatusCode != http.StatusFound {
		t.Fatalf("status = %d, want 302", resp.StatusCode)
	}
	if got := resp.Header.Get("Location"); got != "https://idp.example.org/sso" {
		t.Errorf("Location = %q", got)
	}
	if got := resp.Header.Get(app.DefaultTrustHeader); got != "" {
		t.Errorf("trust header leaked: %q", got)
	}

	resp = get(t, a, app.LeakPath)
	if got := resp.Header.Get(app.DefaultTrustHeader); got != "" {
		t.Errorf("trust header leaked on 200: %q", got)
	}
}

func TestIntegration_SitesFileReload(t *testing.T) {
	dir := t.TempDir()
	sitesPath := filepath.Join(dir, "sites.yaml")
	write := func(basePath string) {
		content := "sites:\n  - pattern: \"*\"\n    base_path: " + basePath + "\n"
		if err := os.WriteFile(sitesPath, []byte(content), 0600); err != nil {
			t.Fatal(err)
		}
	}
	write("/one")

	g := NewRedirectGuardForTest(Config{SitesFile: sitesPath}, nil, nil, nil)
	store, err := g.buildSiteStore(context.Background())
	if err != nil {
		t.Fatalf("buildSiteStore() error = %v", err)
	}
	g.SetSiteStore(store)
	g.wire("ignore")

	a := app.New(t, guarded(g))
	defer a.Close()

	resp := get(t, a, app.LoginPath+"?destination=home")
	if got := resp.Header.Get("Location"); !strings.HasSuffix(got, "/one/home") {
		t.Errorf("Location = %q, want suffix /one/home", got)
	}

	write("/two")
	if err := store.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}

	resp = get(t, a, app.LoginPath+"?destination=home")
	if got := resp.Header.Get("Location"); !strings.HasSuffix(got, "/two/home") {
		t.Errorf("after reload Location = %q, want suffix /two/home", got)
	}
}
