// Command redirectcheck evaluates a redirect the way the redirect_guard
// handler would, and mints trust assertions for testing trusted redirects.
//
// Usage:
//
//	go run ./cmd/redirectcheck -url 'https://example.com/user/login?destination=node/1' -target /user
//	go run ./cmd/redirectcheck -mint -target https://idp.example.org/sso
//
// Defaults for -secret, -base-path and -scheme-policy are read from
// REDIRECT_GUARD_SECRET, REDIRECT_GUARD_BASE_PATH and
// REDIRECT_GUARD_SCHEME_POLICY, also loaded from a .env file if present.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/philiph/caddy-redirect-guard/internal/adapters/driven/requestctx"
	"github.com/philiph/caddy-redirect-guard/internal/adapters/driven/trust"
	"github.com/philiph/caddy-redirect-guard/internal/adapters/driven/urlassembler"
	"github.com/philiph/caddy-redirect-guard/internal/core/domain"
	"github.com/philiph/caddy-redirect-guard/internal/core/guard"
)

type options struct {
	requestURL   string
	target       string
	status       int
	basePath     string
	schemePolicy string
	param        string
	logger       *zap.Logger
}

type result struct {
	Decision   guard.Decision `json:"decision"`
	Status     int            `json:"status"`
	Location   string         `json:"location,omitempty"`
	Code       string         `json:"code,omitempty"`
	Message    string         `json:"message,omitempty"`
	IncidentID string         `json:"incident_id,omitempty"`
}

func main() {
	// Load .env file if exists (ignore error if not found)
	_ = godotenv.Load()

	requestURL := flag.String("url", "", "Incoming request URL, including any destination parameter")
	target := flag.String("target", "/", "Redirect target chosen by the application (Location header)")
	status := flag.Int("status", http.StatusFound, "Redirect status code")
	basePath := flag.String("base-path", getEnv("REDIRECT_GUARD_BASE_PATH", ""), "Base path the site is mounted under")
	schemePolicy := flag.String("scheme-policy", getEnv("REDIRECT_GUARD_SCHEME_POLICY", "ignore"), "Scheme policy: ignore, exact or no_downgrade")
	param := flag.String("param", domain.DefaultDestinationParam, "Destination query parameter")
	jsonOut := flag.Bool("json", false, "Print the result as JSON")
	verbose := flag.Bool("v", false, "Log guard decisions")

	mint := flag.Bool("mint", false, "Mint a trust assertion for -target instead of evaluating")
	secret := flag.String("secret", getEnv("REDIRECT_GUARD_SECRET", ""), "HS256 secret for -mint (at least 32 bytes)")
	issuer := flag.String("issuer", "", "Issuer claim for -mint")
	ttl := flag.Duration("ttl", trust.DefaultTTL, "Lifetime of a minted assertion")
	flag.Parse()

	if *mint {
		token, err := mintAssertion(*secret, *issuer, *target, *ttl)
		if err != nil {
			color.Red("mint: %v", err)
			os.Exit(1)
		}
		fmt.Println(token)
		return
	}

	logger := zap.NewNop()
	if *verbose {
		var err error
		if logger, err = zap.NewDevelopment(); err != nil {
			color.Red("logger: %v", err)
			os.Exit(1)
		}
		defer func() { _ = logger.Sync() }()
	}

	res, err := evaluate(options{
		requestURL:   *requestURL,
		target:       *target,
		status:       *status,
		basePath:     *basePath,
		schemePolicy: *schemePolicy,
		param:        *param,
		logger:       logger,
	})
	if err != nil {
		color.Red("error: %v", err)
		flag.Usage()
		os.Exit(2)
	}

	if *jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(res)
	} else {
		printResult(res)
	}
	if res.Decision == guard.DecisionRejected {
		os.Exit(1)
	}
}

// evaluate runs the guard once for a synthetic request and redirect.
func evaluate(o options) (result, error) {
	u, err := url.Parse(o.requestURL)
	if err != nil {
		return result{}, fmt.Errorf("parse -url: %w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return result{}, fmt.Errorf("-url must be an absolute http or https URL, got %q", o.requestURL)
	}
	if !domain.IsRedirectStatus(o.status) {
		return result{}, fmt.Errorf("-status %d is not a redirect status", o.status)
	}
	policy, err := domain.ParseSchemePolicy(o.schemePolicy)
	if err != nil {
		return result{}, err
	}
	if o.logger == nil {
		o.logger = zap.NewNop()
	}

	req, err := http.NewRequest(http.MethodGet, u.String(), nil)
	if err != nil {
		return result{}, err
	}

	factory := requestctx.NewFactory(o.basePath, policy,
		requestctx.WithScheme(u.Scheme),
		requestctx.WithLogger(o.logger))
	rc, originPolicy := factory.Resolve(req)

	opts := []guard.Option{guard.WithLogger(o.logger)}
	if o.param != "" {
		opts = append(opts, guard.WithDestinationParam(o.param))
	}
	g := guard.New(urlassembler.NewUnroutedAssembler(), opts...)

	resp := domain.NewRedirect(o.target, o.status)
	decision := g.CheckRedirectURLWithPolicy(domain.NewIncomingRequest(req), rc, originPolicy, resp)

	res := result{
		Decision:   decision,
		Status:     resp.StatusCode,
		Location:   resp.TargetURL,
		IncidentID: resp.IncidentID,
	}
	if resp.Error != nil {
		res.Code = resp.Error.Code.String()
		res.Message = resp.Error.Message
	}
	return res, nil
}

// mintAssertion signs target with an HS256 secret.
func mintAssertion(secret, issuer, target string, ttl time.Duration) (string, error) {
	if secret == "" {
		return "", fmt.Errorf("-secret or REDIRECT_GUARD_SECRET is required")
	}
	var opts []trust.Option
	if issuer != "" {
		opts = append(opts, trust.WithIssuer(issuer))
	}
	signer, err := trust.NewHMACAssertions([]byte(secret), opts...)
	if err != nil {
		return "", err
	}
	return signer.Sign(target, ttl)
}

func printResult(res result) {
	switch res.Decision {
	case guard.DecisionRejected:
		color.Red("✗ %s (%d %s)", res.Decision, res.Status, res.Code)
		fmt.Printf("  %s\n", res.Message)
		fmt.Printf("  incident: %s\n", res.IncidentID)
	case guard.DecisionRewritten:
		color.Yellow("→ %s (%d)", res.Decision, res.Status)
		fmt.Printf("  Location: %s\n", res.Location)
	default:
		color.Green("✓ %s (%d)", res.Decision, res.Status)
		fmt.Printf("  Location: %s\n", res.Location)
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
