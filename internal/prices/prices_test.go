package prices

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prismkit/stash/internal/stash"
	"github.com/prismkit/stash/internal/testutil"
)

// countingFetcher serves fixed prices and counts calls.
type countingFetcher struct {
	calls int
	err   error
}

func (f *countingFetcher) fetch(_ context.Context, itemID string) (Record, error) {
	f.calls++
	if f.err != nil {
		return Record{}, f.err
	}
	return Record{Amount: 9.99, Currency: "USD"}, nil
}

func newTestCache(t *testing.T) (*Cache, *countingFetcher, *testutil.Clock) {
	t.Helper()
	db := stash.New(stash.Config{Driver: "sqlite3", Path: filepath.Join(t.TempDir(), "stash.db")})
	t.Cleanup(db.Close)
	require.True(t, db.Initialize(context.Background()))

	clock := testutil.NewClock(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))
	fetcher := &countingFetcher{}
	cache := New(db, fetcher.fetch, time.Hour).WithClock(clock.Now)
	return cache, fetcher, clock
}

func TestPrice_FetchesOnceWhileFresh(t *testing.T) {
	cache, fetcher, _ := newTestCache(t)
	ctx := context.Background()

	rec, err := cache.Price(ctx, "brush-42")
	require.NoError(t, err)
	assert.Equal(t, "brush-42", rec.ItemID)
	assert.Equal(t, 9.99, rec.Amount)
	assert.Equal(t, 1, fetcher.calls)

	// Second lookup is served from the cache.
	rec2, err := cache.Price(ctx, "brush-42")
	require.NoError(t, err)
	assert.Equal(t, rec, rec2)
	assert.Equal(t, 1, fetcher.calls)
}

func TestPrice_RefetchesAfterTTL(t *testing.T) {
	cache, fetcher, clock := newTestCache(t)
	ctx := context.Background()

	_, err := cache.Price(ctx, "brush-42")
	require.NoError(t, err)

	clock.Advance(59 * time.Minute)
	_, err = cache.Price(ctx, "brush-42")
	require.NoError(t, err)
	assert.Equal(t, 1, fetcher.calls, "a record inside the TTL is fresh")

	clock.Advance(2 * time.Minute)
	_, err = cache.Price(ctx, "brush-42")
	require.NoError(t, err)
	assert.Equal(t, 2, fetcher.calls, "a record past the TTL is refetched")
}

func TestPrice_FetchErrorSurfaces(t *testing.T) {
	cache, fetcher, _ := newTestCache(t)
	fetcher.err = errors.New("market unreachable")

	_, err := cache.Price(context.Background(), "brush-42")
	assert.ErrorContains(t, err, "market unreachable")
}

func TestPrice_CachedRecordMasksFetchError(t *testing.T) {
	cache, fetcher, _ := newTestCache(t)
	ctx := context.Background()

	_, err := cache.Price(ctx, "brush-42")
	require.NoError(t, err)

	// While the record is fresh the fetcher is not consulted at all.
	fetcher.err = errors.New("market unreachable")
	rec, err := cache.Price(ctx, "brush-42")
	require.NoError(t, err)
	assert.Equal(t, 9.99, rec.Amount)
}

func TestInvalidate_ForcesRefetch(t *testing.T) {
	cache, fetcher, _ := newTestCache(t)
	ctx := context.Background()

	_, err := cache.Price(ctx, "brush-42")
	require.NoError(t, err)
	assert.True(t, cache.Invalidate(ctx, "brush-42"))

	_, err = cache.Price(ctx, "brush-42")
	require.NoError(t, err)
	assert.Equal(t, 2, fetcher.calls)
}

func TestPrune_DropsOnlyStaleRecords(t *testing.T) {
	cache, _, clock := newTestCache(t)
	ctx := context.Background()

	_, err := cache.Price(ctx, "old-item")
	require.NoError(t, err)

	clock.Advance(2 * time.Hour)
	_, err = cache.Price(ctx, "new-item")
	require.NoError(t, err)

	assert.Equal(t, 1, cache.Prune(ctx))

	_, fresh := stash.GetAs[Record](ctx, cache.db, stash.StorePriceCache, "new-item")
	assert.True(t, fresh, "fresh record survives pruning")
	_, stale := stash.GetAs[Record](ctx, cache.db, stash.StorePriceCache, "old-item")
	assert.False(t, stale, "stale record is pruned")
}

func TestPrice_UnavailableStorageFallsThroughToFetch(t *testing.T) {
	db := stash.New(stash.Config{Driver: "no-such-driver", Path: "x.db"})
	fetcher := &countingFetcher{}
	cache := New(db, fetcher.fetch, time.Hour)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		rec, err := cache.Price(ctx, "brush-42")
		require.NoError(t, err)
		assert.Equal(t, 9.99, rec.Amount)
	}
	assert.Equal(t, 3, fetcher.calls, "every lookup fetches when storage is absent")
}
