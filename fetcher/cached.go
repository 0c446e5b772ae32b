package fetcher

import (
	"context"
	"log/slog"
	"time"

	"github.com/rbdcsite/shelfeed/fetcher/types"
)

// BodyCache stores upstream bodies for a limited time
type BodyCache interface {
	Get(url string, maxAge time.Duration) (string, bool, error)
	Set(url, body string) error
}

// CachedFetcher serves recently fetched bodies from a cache and falls back
// to the wrapped fetcher otherwise. Cache failures never fail a fetch.
type CachedFetcher struct {
	next  types.FeedFetcher
	cache BodyCache
	ttl   time.Duration
}

func NewCachedFetcher(next types.FeedFetcher, cache BodyCache, ttl time.Duration) *CachedFetcher {
	return &CachedFetcher{next: next, cache: cache, ttl: ttl}
}

func (f *CachedFetcher) Fetch(ctx context.Context, url string) (string, error) {
	if body, hit, err := f.cache.Get(url, f.ttl); err == nil && hit {
		slog.Debug("feed cache hit", "url", url)
		return body, nil
	}

	body, err := f.next.Fetch(ctx, url)
	if err != nil {
		return "", err
	}
	slog.Debug("feed fetched", "url", url, "length", len(body))

	if err := f.cache.Set(url, body); err != nil {
		slog.Warn("failed to cache feed body", "url", url, "error", err)
	}
	return body, nil
}
