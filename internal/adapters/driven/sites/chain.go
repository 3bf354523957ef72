package sites

import (
	"context"
	"errors"

	"github.com/philiph/caddy-redirect-guard/internal/core/domain"
	"github.com/philiph/caddy-redirect-guard/internal/core/ports"
)

// ChainSiteStore consults several stores in order and returns the first match.
// Inline Caddyfile sites come first so they override file-based ones.
type ChainSiteStore struct {
	stores []ports.SiteStore
}

// NewChainSiteStore creates a store that tries each of stores in order.
func NewChainSiteStore(stores ...ports.SiteStore) *ChainSiteStore {
	return &ChainSiteStore{stores: stores}
}

// Lookup returns the first policy matching host.
func (c *ChainSiteStore) Lookup(host string) (*domain.SitePolicy, error) {
	for _, s := range c.stores {
		p, err := s.Lookup(host)
		if err == nil {
			return p, nil
		}
		if !errors.Is(err, domain.ErrSiteNotFound) {
			return nil, err
		}
	}
	return nil, domain.ErrSiteNotFound
}

// Refresh refreshes every store and joins their errors.
func (c *ChainSiteStore) Refresh(ctx context.Context) error {
	var errs []error
	for _, s := range c.stores {
		if err := s.Refresh(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Ensure ChainSiteStore implements ports.SiteStore
var _ ports.SiteStore = (*ChainSiteStore)(nil)
