// Package settings persists arbitrary serializable preference values under
// string keys, in the settings store of the stash database. It inherits the
// persistence layer's failure model: a missing or unavailable value reads as
// the caller's default, never as an error.
package settings

import (
	"context"

	"github.com/prismkit/stash/internal/stash"
)

// Get reads the setting under key, returning def when the key is absent,
// storage is unavailable, or the stored value does not decode into T.
func Get[T any](ctx context.Context, db *stash.DB, key string, def T) T {
	v, ok := stash.GetAs[T](ctx, db, stash.StoreSettings, key)
	if !ok {
		return def
	}
	return v
}

// Set persists the setting under key and reports whether the write
// committed.
func Set[T any](ctx context.Context, db *stash.DB, key string, value T) bool {
	return db.Set(ctx, stash.StoreSettings, key, value)
}

// Delete removes the setting under key. Removing an absent setting still
// reports true.
func Delete(ctx context.Context, db *stash.DB, key string) bool {
	return db.Delete(ctx, stash.StoreSettings, key)
}

// Keys returns the names of all stored settings in ascending order.
func Keys(ctx context.Context, db *stash.DB) []string {
	return db.Keys(ctx, stash.StoreSettings)
}
