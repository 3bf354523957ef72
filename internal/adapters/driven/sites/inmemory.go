package sites

import (
	"context"
	"sync"

	"github.com/philiph/caddy-redirect-guard/internal/core/domain"
	"github.com/philiph/caddy-redirect-guard/internal/core/ports"
)

// InMemorySiteStore is an in-memory implementation of SiteStore.
// Used for sites declared inline in the Caddyfile and in tests.
type InMemorySiteStore struct {
	mu    sync.RWMutex
	index siteIndex
}

// NewInMemorySiteStore creates a new in-memory site store.
func NewInMemorySiteStore() *InMemorySiteStore {
	return &InMemorySiteStore{index: newSiteIndex()}
}

// Add validates and adds a site policy to the store.
func (s *InMemorySiteStore) Add(p domain.SitePolicy) error {
	if err := validatePolicy(p); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.index.add(p)
	return nil
}

// Lookup returns the policy for a request host.
func (s *InMemorySiteStore) Lookup(host string) (*domain.SitePolicy, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index.lookup(host)
}

// Len returns the number of policies in the store.
func (s *InMemorySiteStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index.len()
}

// Refresh is a no-op for in-memory store.
func (s *InMemorySiteStore) Refresh(ctx context.Context) error {
	return nil
}

// Ensure InMemorySiteStore implements ports.SiteStore
var _ ports.SiteStore = (*InMemorySiteStore)(nil)
