// Package trust signs and verifies trusted-redirect assertions.
//
// An upstream application that has validated a redirect target itself attaches
// a short-lived JWT whose "target" claim equals the Location header. The guard
// passes such redirects through untouched.
package trust

import (
	"crypto/rsa"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/philiph/caddy-redirect-guard/internal/core/ports"
)

// DefaultTTL is the lifetime of assertions minted without an explicit TTL.
const DefaultTTL = 30 * time.Second

// assertionClaims defines the JWT claims structure for trust assertions.
type assertionClaims struct {
	jwt.RegisteredClaims
	Target string `json:"target"`
}

// JWTAssertions implements TrustVerifier and TrustSigner with HS256 or RS256
// tokens.
type JWTAssertions struct {
	method    jwt.SigningMethod
	signKey   interface{}
	verifyKey interface{}
	issuer    string
	leeway    time.Duration
}

// Option configures JWTAssertions.
type Option func(*JWTAssertions)

// WithIssuer sets the issuer written into minted assertions and required on
// verified ones.
func WithIssuer(issuer string) Option {
	return func(a *JWTAssertions) {
		a.issuer = issuer
	}
}

// WithLeeway tolerates clock skew between the application and the proxy.
func WithLeeway(d time.Duration) Option {
	return func(a *JWTAssertions) {
		a.leeway = d
	}
}

// NewHMACAssertions creates HS256 assertions from a shared secret.
func NewHMACAssertions(secret []byte, opts ...Option) (*JWTAssertions, error) {
	if len(secret) < 32 {
		return nil, errors.New("trust secret must be at least 32 bytes")
	}
	a := &JWTAssertions{
		method:    jwt.SigningMethodHS256,
		signKey:   secret,
		verifyKey: secret,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// NewRSAVerifier creates RS256 assertions that can only be verified.
func NewRSAVerifier(publicKey *rsa.PublicKey, opts ...Option) *JWTAssertions {
	a := &JWTAssertions{
		method:    jwt.SigningMethodRS256,
		verifyKey: publicKey,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// NewRSASigner creates RS256 assertions that can be signed and verified.
func NewRSASigner(privateKey *rsa.PrivateKey, opts ...Option) *JWTAssertions {
	a := NewRSAVerifier(&privateKey.PublicKey, opts...)
	a.signKey = privateKey
	return a
}

// Sign mints an assertion vouching for target.
func (a *JWTAssertions) Sign(target string, ttl time.Duration) (string, error) {
	if a.signKey == nil {
		return "", errors.New("trust assertions are verify-only")
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	now := time.Now()
	claims := assertionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    a.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Target: target,
	}

	token := jwt.NewWithClaims(a.method, claims)
	return token.SignedString(a.signKey)
}

// Verify checks that assertion is valid, unexpired and vouches for exactly
// target.
func (a *JWTAssertions) Verify(assertion, target string) error {
	if assertion == "" {
		return fmt.Errorf("%w: empty assertion", ports.ErrUntrusted)
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{a.method.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(a.leeway),
	}
	if a.issuer != "" {
		opts = append(opts, jwt.WithIssuer(a.issuer))
	}

	parsed, err := jwt.ParseWithClaims(assertion, &assertionClaims{}, func(t *jwt.Token) (interface{}, error) {
		return a.verifyKey, nil
	}, opts...)
	if err != nil {
		return fmt.Errorf("%w: %w", ports.ErrUntrusted, err)
	}

	claims, ok := parsed.Claims.(*assertionClaims)
	if !ok || !parsed.Valid {
		return ports.ErrUntrusted
	}
	if claims.Target != target {
		return fmt.Errorf("%w: target mismatch", ports.ErrUntrusted)
	}
	return nil
}

// Ensure JWTAssertions implements the trust ports
var (
	_ ports.TrustVerifier = (*JWTAssertions)(nil)
	_ ports.TrustSigner   = (*JWTAssertions)(nil)
)
