package trust

import "github.com/philiph/caddy-redirect-guard/internal/core/ports"

// NoopVerifier trusts nothing. It is used when no trust key is configured,
// so every redirect is validated.
type NoopVerifier struct{}

// NewNoopVerifier creates a verifier that rejects every assertion.
func NewNoopVerifier() *NoopVerifier {
	return &NoopVerifier{}
}

// Verify always returns ports.ErrUntrusted.
func (v *NoopVerifier) Verify(assertion, target string) error {
	return ports.ErrUntrusted
}

var _ ports.TrustVerifier = (*NoopVerifier)(nil)
