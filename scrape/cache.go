/*
cache.go - TTL caching for claim details

PURPOSE:
  Agents re-open the same claims all day. Portal state moves slowly
  (carrier scans, schedule changes), so a short TTL cuts most page
  loads without serving stale operational data.
*/
package scrape

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"
)

// CachedFetcher wraps a Fetcher with a TTL cache keyed by claim ID.
// Errors are never cached; a failed fetch retries on the next call.
type CachedFetcher struct {
	inner Fetcher
	cache *cache.Cache
}

// NewCachedFetcher wraps inner with the given TTL.
func NewCachedFetcher(inner Fetcher, ttl time.Duration) *CachedFetcher {
	return &CachedFetcher{
		inner: inner,
		cache: cache.New(ttl, 2*ttl),
	}
}

// FetchDetail serves from cache when fresh, otherwise delegates.
func (c *CachedFetcher) FetchDetail(ctx context.Context, claimID string) (*Detail, error) {
	if v, ok := c.cache.Get(claimID); ok {
		return v.(*Detail), nil
	}
	d, err := c.inner.FetchDetail(ctx, claimID)
	if err != nil {
		return nil, err
	}
	c.cache.SetDefault(claimID, d)
	return d, nil
}

// Invalidate drops one claim from the cache, for when an agent
// knows the portal just changed.
func (c *CachedFetcher) Invalidate(claimID string) {
	c.cache.Delete(claimID)
}
