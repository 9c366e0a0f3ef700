package stash

import (
	"context"
	"encoding/json"
	"log/slog"
)

// Go methods cannot be generic, so the typed layer over the raw facade lives
// in package-level functions.

// GetAs reads and decodes the value under key. The second return is false
// when the key is absent, the DB is not ready, or the value does not decode
// into T.
func GetAs[T any](ctx context.Context, db *DB, store Store, key string) (T, bool) {
	var v T
	raw := db.Get(ctx, store, key)
	if raw == nil {
		return v, false
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		slog.Debug("stash: decode failed", "store", store, "key", key, "error", err)
		var zero T
		return zero, false
	}
	return v, true
}

// AllAs reads and decodes every value in the store, ordered by key. Values
// that fail to decode are skipped.
func AllAs[T any](ctx context.Context, db *DB, store Store) []T {
	raws := db.GetAll(ctx, store)
	out := make([]T, 0, len(raws))
	for _, raw := range raws {
		var v T
		if err := json.Unmarshal(raw, &v); err != nil {
			slog.Debug("stash: decode failed", "store", store, "error", err)
			continue
		}
		out = append(out, v)
	}
	return out
}
