package sites

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/philiph/caddy-redirect-guard/internal/core/domain"
	"github.com/philiph/caddy-redirect-guard/internal/core/ports"
)

// FileSiteStore loads site policies from a local JSON or YAML file.
type FileSiteStore struct {
	path    string
	logger  *zap.Logger
	metrics ports.MetricsRecorder

	mu    sync.RWMutex
	index siteIndex
}

// SitesFile represents the structure of the sites file.
type SitesFile struct {
	Sites []domain.SitePolicy `json:"sites" yaml:"sites"`
}

// NewFileSiteStore creates a new file-based site store. Call Refresh to load it.
func NewFileSiteStore(path string, logger *zap.Logger, metrics ports.MetricsRecorder) *FileSiteStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FileSiteStore{
		path:    path,
		logger:  logger,
		metrics: metrics,
		index:   newSiteIndex(),
	}
}

// Lookup returns the policy for a request host.
func (s *FileSiteStore) Lookup(host string) (*domain.SitePolicy, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index.lookup(host)
}

// Refresh reloads site policies from the file. On error the previously
// loaded policies stay in effect.
func (s *FileSiteStore) Refresh(ctx context.Context) error {
	index, err := s.load()
	if err != nil {
		s.recordRefresh(false, 0)
		s.logger.Warn("site policy reload failed",
			zap.String("file", s.path),
			zap.Error(err))
		return err
	}

	// Atomic update
	s.mu.Lock()
	s.index = index
	s.mu.Unlock()

	s.recordRefresh(true, index.len())
	s.logger.Debug("site policies loaded",
		zap.String("file", s.path),
		zap.Int("site_count", index.len()))
	return nil
}

func (s *FileSiteStore) load() (siteIndex, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return siteIndex{}, fmt.Errorf("read sites file: %w", err)
	}
	return decodeSites(data, isYAMLPath(s.path))
}

func isYAMLPath(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

// decodeSites parses a sites document and validates every policy in it.
func decodeSites(data []byte, yamlFormat bool) (siteIndex, error) {
	var file SitesFile
	if yamlFormat {
		if err := yaml.Unmarshal(data, &file); err != nil {
			return siteIndex{}, fmt.Errorf("parse YAML sites file: %w", err)
		}
	} else {
		if err := json.Unmarshal(data, &file); err != nil {
			return siteIndex{}, fmt.Errorf("parse JSON sites file: %w", err)
		}
	}

	index := newSiteIndex()
	for _, p := range file.Sites {
		if err := validatePolicy(p); err != nil {
			return siteIndex{}, err
		}
		index.add(p)
	}
	return index, nil
}

func (s *FileSiteStore) recordRefresh(success bool, count int) {
	if s.metrics != nil {
		s.metrics.RecordSitesRefresh("file", success, count)
	}
}

// Ensure FileSiteStore implements ports.SiteStore
var _ ports.SiteStore = (*FileSiteStore)(nil)
