package caddy

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/philiph/caddy-redirect-guard/internal/adapters/driven/sites"
	"github.com/philiph/caddy-redirect-guard/internal/core/ports"
)

// buildSiteStore assembles the per-host policy store from inline sites, the
// sites file and the sites URL, consulted in that order. Returns nil when
// none is configured.
func (g *RedirectGuard) buildSiteStore(ctx context.Context) (ports.SiteStore, error) {
	var stores []ports.SiteStore

	if len(g.Sites) > 0 {
		inline := sites.NewInMemorySiteStore()
		for _, p := range g.Sites {
			if err := inline.Add(p); err != nil {
				return nil, err
			}
		}
		g.getMetricsRecorder().RecordSitesRefresh("inline", true, inline.Len())
		stores = append(stores, inline)
	}

	var remote []ports.SiteStore
	if g.SitesFile != "" {
		file := sites.NewFileSiteStore(g.SitesFile, g.getLogger(), g.getMetricsRecorder())
		if err := file.Refresh(ctx); err != nil {
			return nil, fmt.Errorf("load sites file: %w", err)
		}
		remote = append(remote, file)
	}
	if g.SitesURL != "" {
		fetched := sites.NewURLSiteStore(g.SitesURL, g.getLogger(), g.getMetricsRecorder(),
			sites.WithUserAgent("caddy-redirect-guard/"+getVersion()))
		if err := fetched.Refresh(ctx); err != nil {
			return nil, fmt.Errorf("load sites url: %w", err)
		}
		remote = append(remote, fetched)
	}
	stores = append(stores, remote...)

	if g.SitesRefreshInterval != "" && len(remote) > 0 {
		interval, err := time.ParseDuration(g.SitesRefreshInterval)
		if err != nil {
			return nil, fmt.Errorf("parse sites refresh interval: %w", err)
		}
		g.startSitesRefresh(remote, interval)
	}

	switch len(stores) {
	case 0:
		return nil, nil
	case 1:
		return stores[0], nil
	default:
		return sites.NewChainSiteStore(stores...), nil
	}
}

// startSitesRefresh reloads stores every interval until Cleanup.
// Failed reloads keep the previous policies.
func (g *RedirectGuard) startSitesRefresh(stores []ports.SiteStore, interval time.Duration) {
	ctx, cancel := context.WithCancel(context.Background())
	g.stopRefresh = cancel
	g.refreshDone = make(chan struct{})

	go func() {
		defer close(g.refreshDone)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				for _, s := range stores {
					_ = s.Refresh(ctx)
				}
			}
		}
	}()

	g.getLogger().Info("site policy background refresh started",
		zap.String("file", g.SitesFile),
		zap.String("url", g.SitesURL),
		zap.Duration("interval", interval))
}
