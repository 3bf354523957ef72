package caddyredirectguard

import (
	"github.com/philiph/caddy-redirect-guard/internal/adapters/driven/trust"
	"github.com/philiph/caddy-redirect-guard/internal/core/ports"
)

// Re-export trust assertion types. Applications written in Go use a
// TrustSigner to mark redirects they validated themselves.
type TrustVerifier = ports.TrustVerifier
type TrustSigner = ports.TrustSigner
type JWTAssertions = trust.JWTAssertions

var ErrUntrusted = ports.ErrUntrusted

const DefaultTrustTTL = trust.DefaultTTL

var (
	NewHMACAssertions = trust.NewHMACAssertions
	NewRSASigner      = trust.NewRSASigner
	NewRSAVerifier    = trust.NewRSAVerifier
	NewNoopVerifier   = trust.NewNoopVerifier
	WithTrustIssuer   = trust.WithIssuer
	WithTrustLeeway   = trust.WithLeeway
	LoadPrivateKey    = trust.LoadPrivateKey
	LoadPublicKey     = trust.LoadPublicKey
)
