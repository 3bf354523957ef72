package ports

import (
	"context"

	"github.com/philiph/caddy-redirect-guard/internal/core/domain"
)

// SiteStore is the port interface for per-host site policies.
// Implementations must be safe for concurrent use.
type SiteStore interface {
	// Lookup returns the policy for a request host.
	// Returns domain.ErrSiteNotFound if no policy matches.
	Lookup(host string) (*domain.SitePolicy, error)

	// Refresh reloads policies from the source.
	Refresh(ctx context.Context) error
}
