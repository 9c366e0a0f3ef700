package stash

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// forEachDriver runs the CRUD contract against both real engines so their
// behavior stays interchangeable behind the facade.
func forEachDriver(t *testing.T, fn func(t *testing.T, db *DB)) {
	for _, driver := range []string{"sqlite3", "bolt"} {
		t.Run(driver, func(t *testing.T) {
			db := New(Config{Driver: driver, Path: filepath.Join(t.TempDir(), "stash.db")})
			t.Cleanup(db.Close)
			require.True(t, db.Initialize(context.Background()))
			fn(t, db)
		})
	}
}

func TestSetGet_RoundTrip(t *testing.T) {
	forEachDriver(t, func(t *testing.T, db *DB) {
		ctx := context.Background()

		require.True(t, db.Set(ctx, StoreSettings, "theme", "dark"))

		got, ok := GetAs[string](ctx, db, StoreSettings, "theme")
		require.True(t, ok)
		assert.Equal(t, "dark", got)
	})
}

func TestSetGet_StructuredValue(t *testing.T) {
	type price struct {
		ItemID   string  `json:"item_id"`
		Amount   float64 `json:"amount"`
		Currency string  `json:"currency"`
	}

	forEachDriver(t, func(t *testing.T, db *DB) {
		ctx := context.Background()
		want := price{ItemID: "brush-42", Amount: 12.5, Currency: "EUR"}

		require.True(t, db.Set(ctx, StorePriceCache, want.ItemID, want))

		got, ok := GetAs[price](ctx, db, StorePriceCache, want.ItemID)
		require.True(t, ok)
		assert.Equal(t, want, got)
	})
}

func TestGet_MissReturnsNil(t *testing.T) {
	forEachDriver(t, func(t *testing.T, db *DB) {
		assert.Nil(t, db.Get(context.Background(), StoreSettings, "never-written"))
	})
}

func TestDelete_Idempotent(t *testing.T) {
	forEachDriver(t, func(t *testing.T, db *DB) {
		ctx := context.Background()

		require.True(t, db.Set(ctx, StoreSettings, "k", 1))
		assert.True(t, db.Delete(ctx, StoreSettings, "k"))
		assert.Nil(t, db.Get(ctx, StoreSettings, "k"))

		// Deleting an absent key still commits.
		assert.True(t, db.Delete(ctx, StoreSettings, "k"))
		assert.True(t, db.Delete(ctx, StoreSettings, "never-written"))
	})
}

func TestCount_MatchesEnumeration(t *testing.T) {
	forEachDriver(t, func(t *testing.T, db *DB) {
		ctx := context.Background()

		for _, k := range []string{"c", "a", "b", "d"} {
			require.True(t, db.Set(ctx, StoreSettings, k, k))
		}
		require.True(t, db.Delete(ctx, StoreSettings, "d"))

		keys := db.Keys(ctx, StoreSettings)
		values := db.GetAll(ctx, StoreSettings)
		assert.Equal(t, []string{"a", "b", "c"}, keys, "keys are in primary-key order")
		assert.Len(t, values, len(keys))
		assert.Equal(t, len(keys), db.Count(ctx, StoreSettings))
	})
}

func TestClear_EmptiesStore(t *testing.T) {
	forEachDriver(t, func(t *testing.T, db *DB) {
		ctx := context.Background()

		for _, k := range []string{"a", "b"} {
			require.True(t, db.Set(ctx, StoreSettings, k, k))
		}
		require.True(t, db.Set(ctx, StorePriceCache, "p", 1))

		assert.True(t, db.Clear(ctx, StoreSettings))
		assert.Zero(t, db.Count(ctx, StoreSettings))
		assert.Empty(t, db.Keys(ctx, StoreSettings))
		assert.Equal(t, 1, db.Count(ctx, StorePriceCache), "other stores are untouched")
	})
}

func TestDirectStore_PersistsRecordUnwrapped(t *testing.T) {
	forEachDriver(t, func(t *testing.T, db *DB) {
		ctx := context.Background()
		record := map[string]any{"id": "p1", "name": "sunset"}

		require.True(t, db.Set(ctx, StorePalettes, "p1", record))

		// The raw bytes are the record itself, not an envelope.
		raw := db.Get(ctx, StorePalettes, "p1")
		require.NotNil(t, raw)
		var got map[string]any
		require.NoError(t, json.Unmarshal(raw, &got))
		assert.Equal(t, "sunset", got["name"])
		assert.NotContains(t, got, "value")
	})
}

func TestEnvelopeStore_UnwrapsOnRead(t *testing.T) {
	forEachDriver(t, func(t *testing.T, db *DB) {
		ctx := context.Background()

		require.True(t, db.Set(ctx, StoreSettings, "volume", 7))
		assert.JSONEq(t, `7`, string(db.Get(ctx, StoreSettings, "volume")))

		all := db.GetAll(ctx, StoreSettings)
		require.Len(t, all, 1)
		assert.JSONEq(t, `7`, string(all[0]))
	})
}

func TestUnknownStore_Sentinels(t *testing.T) {
	forEachDriver(t, func(t *testing.T, db *DB) {
		ctx := context.Background()
		bogus := Store("not_registered")

		assert.Nil(t, db.Get(ctx, bogus, "k"))
		assert.False(t, db.Set(ctx, bogus, "k", 1))
		assert.False(t, db.Delete(ctx, bogus, "k"))
		assert.Empty(t, db.Keys(ctx, bogus))
		assert.Empty(t, db.GetAll(ctx, bogus))
		assert.False(t, db.Clear(ctx, bogus))
		assert.Zero(t, db.Count(ctx, bogus))
	})
}

func TestNotReady_AllMethodsDegrade(t *testing.T) {
	db := New(Config{Driver: "sqlite3", Path: filepath.Join(t.TempDir(), "stash.db")})
	ctx := context.Background()

	// No Initialize has been awaited; nothing may touch the database or
	// trigger an open implicitly.
	assert.Nil(t, db.Get(ctx, StoreSettings, "x"))
	assert.False(t, db.Set(ctx, StoreSettings, "x", 1))
	assert.False(t, db.Delete(ctx, StoreSettings, "x"))
	assert.Empty(t, db.Keys(ctx, StoreSettings))
	assert.Empty(t, db.GetAll(ctx, StoreSettings))
	assert.False(t, db.Clear(ctx, StoreSettings))
	assert.Zero(t, db.Count(ctx, StoreSettings))
	assert.False(t, db.IsReady(), "CRUD calls must not initialize implicitly")
}

func TestSet_UnserializableValue(t *testing.T) {
	forEachDriver(t, func(t *testing.T, db *DB) {
		assert.False(t, db.Set(context.Background(), StoreSettings, "ch", make(chan int)))
	})
}

func TestPerOperationFailure_DoesNotChangeState(t *testing.T) {
	db := newFakeDB(t)
	ctx := context.Background()
	require.True(t, db.Initialize(ctx))
	require.True(t, db.Set(ctx, StoreSettings, "k", "v"))

	fake.setFailOps(true)
	assert.Nil(t, db.Get(ctx, StoreSettings, "k"))
	assert.False(t, db.Set(ctx, StoreSettings, "k2", "v"))
	assert.Zero(t, db.Count(ctx, StoreSettings))
	assert.True(t, db.IsReady(), "a failed operation is localized to that call")

	fake.setFailOps(false)
	got, ok := GetAs[string](ctx, db, StoreSettings, "k")
	require.True(t, ok)
	assert.Equal(t, "v", got)
}

func TestGetAs_DecodeMismatch(t *testing.T) {
	db := newFakeDB(t)
	ctx := context.Background()
	require.True(t, db.Initialize(ctx))
	require.True(t, db.Set(ctx, StoreSettings, "s", "not a number"))

	_, ok := GetAs[int](ctx, db, StoreSettings, "s")
	assert.False(t, ok)
}

func TestAllAs_SkipsUndecodable(t *testing.T) {
	db := newFakeDB(t)
	ctx := context.Background()
	require.True(t, db.Initialize(ctx))
	require.True(t, db.Set(ctx, StoreSettings, "a", 1))
	require.True(t, db.Set(ctx, StoreSettings, "b", "text"))
	require.True(t, db.Set(ctx, StoreSettings, "c", 3))

	assert.Equal(t, []int{1, 3}, AllAs[int](ctx, db, StoreSettings))
}
