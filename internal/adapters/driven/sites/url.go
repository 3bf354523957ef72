package sites

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/philiph/caddy-redirect-guard/internal/core/domain"
	"github.com/philiph/caddy-redirect-guard/internal/core/ports"
)

// maxSitesBody caps the size of a fetched sites document.
const maxSitesBody = 1 << 20

// URLSiteStore loads site policies from an HTTP(S) URL. Conditional requests
// (ETag / Last-Modified) avoid re-parsing an unchanged document.
type URLSiteStore struct {
	url        string
	httpClient *http.Client
	userAgent  string
	logger     *zap.Logger
	metrics    ports.MetricsRecorder

	mu           sync.RWMutex
	index        siteIndex
	etag         string
	lastModified string
	lastSuccess  time.Time
	lastError    error
}

// URLOption configures a URLSiteStore.
type URLOption func(*URLSiteStore)

// WithHTTPClient replaces the default client (30s timeout).
func WithHTTPClient(c *http.Client) URLOption {
	return func(s *URLSiteStore) {
		s.httpClient = c
	}
}

// WithUserAgent sets the User-Agent sent with every fetch.
func WithUserAgent(ua string) URLOption {
	return func(s *URLSiteStore) {
		s.userAgent = ua
	}
}

// NewURLSiteStore creates a store for rawURL. Call Refresh to load it.
func NewURLSiteStore(rawURL string, logger *zap.Logger, metrics ports.MetricsRecorder, opts ...URLOption) *URLSiteStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &URLSiteStore{
		url:        rawURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		userAgent:  "caddy-redirect-guard",
		logger:     logger,
		metrics:    metrics,
		index:      newSiteIndex(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Lookup returns the policy for a request host.
func (s *URLSiteStore) Lookup(host string) (*domain.SitePolicy, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index.lookup(host)
}

// LastError returns the error of the most recent refresh, or nil.
func (s *URLSiteStore) LastError() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastError
}

// LastSuccess returns when the document was last fetched or confirmed unchanged.
func (s *URLSiteStore) LastSuccess() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastSuccess
}

// Refresh fetches the document. A 304 keeps the current policies; any
// failure keeps them too and is returned.
func (s *URLSiteStore) Refresh(ctx context.Context) error {
	s.mu.RLock()
	etag, lastModified := s.etag, s.lastModified
	s.mu.RUnlock()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return s.fail(fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("User-Agent", s.userAgent)
	req.Header.Set("Accept", "application/json, application/yaml;q=0.9, */*;q=0.1")
	if etag != "" {
		req.Header.Set("If-None-Match", etag)
	}
	if lastModified != "" {
		req.Header.Set("If-Modified-Since", lastModified)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return s.fail(fmt.Errorf("fetch sites: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotModified {
		s.mu.Lock()
		s.lastSuccess = time.Now()
		s.lastError = nil
		count := s.index.len()
		s.mu.Unlock()
		s.recordRefresh(true, count)
		return nil
	}
	if resp.StatusCode != http.StatusOK {
		return s.fail(fmt.Errorf("fetch sites: HTTP %d", resp.StatusCode))
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxSitesBody+1))
	if err != nil {
		return s.fail(fmt.Errorf("read response: %w", err))
	}
	if len(data) > maxSitesBody {
		return s.fail(fmt.Errorf("sites document exceeds %d bytes", maxSitesBody))
	}

	index, err := decodeSites(data, s.isYAML(resp))
	if err != nil {
		return s.fail(err)
	}

	s.mu.Lock()
	s.index = index
	s.etag = resp.Header.Get("ETag")
	s.lastModified = resp.Header.Get("Last-Modified")
	s.lastSuccess = time.Now()
	s.lastError = nil
	s.mu.Unlock()

	s.recordRefresh(true, index.len())
	s.logger.Debug("site policies fetched",
		zap.String("url", s.url),
		zap.Int("site_count", index.len()))
	return nil
}

// isYAML decides the document format from the Content-Type, falling back to
// the URL path extension.
func (s *URLSiteStore) isYAML(resp *http.Response) bool {
	if mt, _, err := mime.ParseMediaType(resp.Header.Get("Content-Type")); err == nil {
		switch mt {
		case "application/yaml", "application/x-yaml", "text/yaml", "text/x-yaml":
			return true
		case "application/json":
			return false
		}
	}
	if u, err := url.Parse(s.url); err == nil {
		return isYAMLPath(u.Path)
	}
	return false
}

// fail records a failed refresh. Previously loaded policies stay in effect.
func (s *URLSiteStore) fail(err error) error {
	s.mu.Lock()
	s.lastError = err
	s.mu.Unlock()

	s.recordRefresh(false, 0)
	s.logger.Warn("site policy fetch failed",
		zap.String("url", s.url),
		zap.Error(err))
	return err
}

func (s *URLSiteStore) recordRefresh(success bool, count int) {
	if s.metrics != nil {
		s.metrics.RecordSitesRefresh("url", success, count)
	}
}

// Ensure URLSiteStore implements ports.SiteStore
var _ ports.SiteStore = (*URLSiteStore)(nil)
