package stash

import (
	"context"
	"log/slog"

	"github.com/prismkit/stash/internal/stash/backend"
)

// run executes one backend operation and resolves it to either its result or
// the caller-supplied safe default. This is the single point where the
// never-fail boundary is enforced:
//
//   - not Ready (never initialized, unsupported, or closed): default,
//     without touching the backend and without triggering initialization,
//   - operation error: default,
//   - panic while issuing the operation (e.g. the handle was concurrently
//     closed): default.
//
// Callers therefore cannot distinguish "never initialized" from "closed"
// from "transient failure" by the return value alone; the reason is logged
// at debug level instead. Per-operation failures do not change the
// connection state.
func run[T any](ctx context.Context, db *DB, op string, store Store, def T, fn func(ctx context.Context, b backend.Backend) (T, error)) (out T) {
	db.mu.Lock()
	if db.state != stateReady {
		state := db.state
		db.mu.Unlock()
		slog.Debug("stash: not ready", "op", op, "store", store, "state", state)
		return def
	}
	handle := db.handle
	db.mu.Unlock()

	defer func() {
		if r := recover(); r != nil {
			slog.Debug("stash: operation panicked", "op", op, "store", store, "panic", r)
			out = def
		}
	}()

	v, err := fn(ctx, handle)
	if err != nil {
		slog.Debug("stash: operation failed", "op", op, "store", store, "error", err)
		return def
	}
	return v
}
