package stash

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/prismkit/stash/internal/stash/backend"
)

// Get returns the value stored under key, or nil when the key is absent, the
// store name is unknown, the DB is not ready, or the read fails. For
// envelope stores the returned bytes are the unwrapped value.
func (db *DB) Get(ctx context.Context, store Store, key string) json.RawMessage {
	spec, ok := specFor(store)
	if !ok {
		slog.Debug("stash: unknown store", "op", "get", "store", store)
		return nil
	}
	return run(ctx, db, "get", store, json.RawMessage(nil),
		func(ctx context.Context, b backend.Backend) (json.RawMessage, error) {
			raw, found, err := b.Get(ctx, string(store), key)
			if err != nil || !found {
				return nil, err
			}
			return unwrap(spec, raw)
		})
}

// Set persists value under key and reports whether the write committed.
// The value must be JSON-serializable. Envelope stores wrap it as
// {key, value}; direct stores persist it as-is, with key expected to match
// the record's own identifier field.
func (db *DB) Set(ctx context.Context, store Store, key string, value any) bool {
	spec, ok := specFor(store)
	if !ok {
		slog.Debug("stash: unknown store", "op", "set", "store", store)
		return false
	}
	raw, err := wrap(spec, key, value)
	if err != nil {
		slog.Debug("stash: encode failed", "op", "set", "store", store, "error", err)
		return false
	}
	return run(ctx, db, "set", store, false,
		func(ctx context.Context, b backend.Backend) (bool, error) {
			if err := b.Put(ctx, string(store), key, raw); err != nil {
				return false, err
			}
			return true, nil
		})
}

// Delete removes key and reports whether the delete committed. Deleting an
// absent key still reports true.
func (db *DB) Delete(ctx context.Context, store Store, key string) bool {
	return run(ctx, db, "delete", store, false,
		func(ctx context.Context, b backend.Backend) (bool, error) {
			if err := b.Delete(ctx, string(store), key); err != nil {
				return false, err
			}
			return true, nil
		})
}

// Keys returns every primary key in the store in ascending order, or an
// empty slice when not ready or on failure.
func (db *DB) Keys(ctx context.Context, store Store) []string {
	return run(ctx, db, "keys", store, []string{},
		func(ctx context.Context, b backend.Backend) ([]string, error) {
			keys, err := b.Keys(ctx, string(store))
			if err != nil {
				return nil, err
			}
			return keys, nil
		})
}

// GetAll returns every value in the store ordered by key, unwrapped for
// envelope stores, or an empty slice when not ready or on failure.
func (db *DB) GetAll(ctx context.Context, store Store) []json.RawMessage {
	spec, ok := specFor(store)
	if !ok {
		slog.Debug("stash: unknown store", "op", "getall", "store", store)
		return []json.RawMessage{}
	}
	return run(ctx, db, "getall", store, []json.RawMessage{},
		func(ctx context.Context, b backend.Backend) ([]json.RawMessage, error) {
			raws, err := b.Values(ctx, string(store))
			if err != nil {
				return nil, err
			}
			values := make([]json.RawMessage, 0, len(raws))
			for _, raw := range raws {
				v, err := unwrap(spec, raw)
				if err != nil {
					return nil, err
				}
				values = append(values, v)
			}
			return values, nil
		})
}

// Clear removes every record in the store and reports whether it committed.
func (db *DB) Clear(ctx context.Context, store Store) bool {
	return run(ctx, db, "clear", store, false,
		func(ctx context.Context, b backend.Backend) (bool, error) {
			if err := b.Clear(ctx, string(store)); err != nil {
				return false, err
			}
			return true, nil
		})
}

// Count returns the number of records in the store, or 0 when not ready or
// on failure.
func (db *DB) Count(ctx context.Context, store Store) int {
	return run(ctx, db, "count", store, 0,
		func(ctx context.Context, b backend.Backend) (int, error) {
			return b.Count(ctx, string(store))
		})
}

// wrap serializes a value for persistence according to the store's key mode.
func wrap(spec StoreSpec, key string, value any) ([]byte, error) {
	inner, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("marshal value: %w", err)
	}
	if spec.Mode == KeyModeDirect {
		return inner, nil
	}
	raw, err := json.Marshal(envelope{Key: key, Value: inner})
	if err != nil {
		return nil, fmt.Errorf("marshal envelope: %w", err)
	}
	return raw, nil
}

// unwrap reverses wrap on read.
func unwrap(spec StoreSpec, raw []byte) (json.RawMessage, error) {
	if spec.Mode == KeyModeDirect {
		return json.RawMessage(raw), nil
	}
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("unmarshal envelope: %w", err)
	}
	return env.Value, nil
}
