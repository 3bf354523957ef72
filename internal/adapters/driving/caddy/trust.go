package caddy

import (
	"fmt"
	"time"

	"github.com/caddyserver/caddy/v2"

	"github.com/philiph/caddy-redirect-guard/internal/adapters/driven/trust"
	"github.com/philiph/caddy-redirect-guard/internal/core/ports"
)

// buildTrustVerifier returns the verifier for trusted-redirect assertions.
// Without a configured key every assertion is rejected.
func (g *RedirectGuard) buildTrustVerifier() (ports.TrustVerifier, error) {
	var opts []trust.Option
	if g.TrustIssuer != "" {
		opts = append(opts, trust.WithIssuer(g.TrustIssuer))
	}
	if g.TrustLeeway != "" {
		leeway, err := time.ParseDuration(g.TrustLeeway)
		if err != nil {
			return nil, fmt.Errorf("parse trust leeway: %w", err)
		}
		opts = append(opts, trust.WithLeeway(leeway))
	}

	switch {
	case g.TrustSecret != "":
		secret := caddy.NewReplacer().ReplaceKnown(g.TrustSecret, "")
		verifier, err := trust.NewHMACAssertions([]byte(secret), opts...)
		if err != nil {
			return nil, fmt.Errorf("trust secret: %w", err)
		}
		return verifier, nil

	case g.TrustPublicKey != "":
		key, err := trust.LoadPublicKey(g.TrustPublicKey)
		if err != nil {
			return nil, fmt.Errorf("load trust public key: %w", err)
		}
		return trust.NewRSAVerifier(key, opts...), nil

	default:
		return trust.NewNoopVerifier(), nil
	}
}

// trustEnabled reports whether a trust key is configured.
func (g *RedirectGuard) trustEnabled() bool {
	return g.TrustSecret != "" || g.TrustPublicKey != ""
}
