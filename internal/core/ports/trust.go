package ports

import (
	"errors"
	"time"
)

// ErrUntrusted is returned when a trust assertion does not vouch for a target.
var ErrUntrusted = errors.New("trust assertion rejected")

// TrustVerifier checks a trusted-redirect assertion attached by an upstream
// application.
type TrustVerifier interface {
	// Verify returns nil if assertion vouches for target. Any other result
	// wraps ErrUntrusted.
	Verify(assertion, target string) error
}

// TrustSigner issues trusted-redirect assertions for a target.
type TrustSigner interface {
	Sign(target string, ttl time.Duration) (string, error)
}
