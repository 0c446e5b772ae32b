package fetcher

import (
	"fmt"
	"log/slog"

	"github.com/rbdcsite/shelfeed/cache"
	"github.com/rbdcsite/shelfeed/config"
	"github.com/rbdcsite/shelfeed/fetcher/types"
)

// Build assembles the fetcher described by cfg: an HTTP fetcher, wrapped by
// the sqlite body cache when a database path and a TTL are configured.
// The returned cache is nil when caching is disabled; callers close it.
func Build(cfg config.Config) (types.FeedFetcher, *cache.Cache, error) {
	var f types.FeedFetcher = NewHTTPFetcher(cfg.UserAgent, cfg.FetchTimeoutDuration())

	ttl := cfg.CacheTTLDuration()
	if cfg.DatabasePath == "" || ttl == 0 {
		slog.Debug("feed cache disabled")
		return f, nil, nil
	}

	c, err := cache.NewCache(cfg.DatabasePath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open feed cache at '%s' with %w", cfg.DatabasePath, err)
	}
	slog.Debug("feed cache enabled", "path", cfg.DatabasePath, "ttl", ttl)
	return NewCachedFetcher(f, c, ttl), c, nil
}
