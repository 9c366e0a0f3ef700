// Package prices caches externally fetched market price records in the
// price_cache store of the stash database, to avoid redundant network
// fetches. The cache is an optimization: when storage is degraded or
// unavailable every lookup simply falls through to the fetcher.
package prices

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/prismkit/stash/internal/stash"
)

// Record is one cached market price for an item.
type Record struct {
	ItemID    string    `json:"item_id"`
	Amount    float64   `json:"amount"`
	Currency  string    `json:"currency"`
	FetchedAt time.Time `json:"fetched_at"`
}

// FetchFunc retrieves the current price of an item from the market source.
type FetchFunc func(ctx context.Context, itemID string) (Record, error)

// Cache is a read-through price cache. Cached records are served while
// younger than the TTL; stale or missing records trigger one fetch, whose
// result is persisted best-effort.
type Cache struct {
	db    *stash.DB
	fetch FetchFunc
	ttl   time.Duration
	now   func() time.Time
}

// New creates a Cache over db with the given fetcher and freshness window.
func New(db *stash.DB, fetch FetchFunc, ttl time.Duration) *Cache {
	return &Cache{db: db, fetch: fetch, ttl: ttl, now: time.Now}
}

// WithClock overrides the cache's time source. Intended for tests.
func (c *Cache) WithClock(now func() time.Time) *Cache {
	c.now = now
	return c
}

// Price returns the price for itemID, from cache when fresh, otherwise from
// the fetcher. A fetched record is written back to the cache; a failed write
// is ignored (the next lookup fetches again). Fetch errors surface to the
// caller only when no fresh cached record exists.
func (c *Cache) Price(ctx context.Context, itemID string) (Record, error) {
	if rec, ok := stash.GetAs[Record](ctx, c.db, stash.StorePriceCache, itemID); ok && c.fresh(rec) {
		return rec, nil
	}

	rec, err := c.fetch(ctx, itemID)
	if err != nil {
		return Record{}, fmt.Errorf("fetch price for %s: %w", itemID, err)
	}
	rec.ItemID = itemID
	rec.FetchedAt = c.now().UTC()

	if !c.db.Set(ctx, stash.StorePriceCache, itemID, rec) {
		slog.Debug("prices: cache write skipped", "item", itemID)
	}
	return rec, nil
}

// Invalidate drops the cached record for itemID, forcing the next lookup to
// fetch. Dropping an absent record still reports true.
func (c *Cache) Invalidate(ctx context.Context, itemID string) bool {
	return c.db.Delete(ctx, stash.StorePriceCache, itemID)
}

// Prune removes every cached record older than the TTL and returns how many
// were dropped.
func (c *Cache) Prune(ctx context.Context) int {
	dropped := 0
	for _, rec := range stash.AllAs[Record](ctx, c.db, stash.StorePriceCache) {
		if c.fresh(rec) {
			continue
		}
		if c.db.Delete(ctx, stash.StorePriceCache, rec.ItemID) {
			dropped++
		}
	}
	return dropped
}

func (c *Cache) fresh(rec Record) bool {
	return c.now().Sub(rec.FetchedAt) < c.ttl
}
