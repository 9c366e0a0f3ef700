// Package backend hosts the physical engines behind the stash connection
// lifecycle. A Backend is a minimal bucket-scoped key-value surface; the
// facade's envelope and sentinel semantics live above it, so backends report
// plain errors and never need to know what is stored.
//
// Two drivers register themselves at package load: "sqlite3" (primary) and
// "bolt". Driver selection happens by name so an unregistered driver behaves
// exactly like an absent storage API.
package backend

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Backend is one open physical database partitioned into named stores.
// Implementations must be safe for concurrent use; each method runs one
// short-lived transaction scoped to a single store.
type Backend interface {
	// Get returns the raw bytes stored under key, with false when the key
	// is absent. Absence is not an error.
	Get(ctx context.Context, store, key string) ([]byte, bool, error)

	// Put writes value under key, replacing any previous value.
	Put(ctx context.Context, store, key string, value []byte) error

	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, store, key string) error

	// Keys returns every key in the store in ascending byte order.
	Keys(ctx context.Context, store string) ([]string, error)

	// Values returns every value in the store, ordered by key.
	Values(ctx context.Context, store string) ([][]byte, error)

	// Clear removes every record in the store.
	Clear(ctx context.Context, store string) error

	// Count returns the number of records in the store.
	Count(ctx context.Context, store string) (int, error)

	// Close releases the handle. Safe to call once; the Backend is unusable
	// afterwards.
	Close() error
}

// Driver bundles the entry points a physical engine must provide.
type Driver struct {
	// Open creates or opens the database at path, creating any of the named
	// stores that do not exist yet.
	Open func(ctx context.Context, path string, stores []string) (Backend, error)

	// Remove destroys the database files at path. Removing an absent
	// database succeeds.
	Remove func(path string) error
}

var (
	driversMu sync.RWMutex
	drivers   = make(map[string]Driver)
)

// Register makes a driver available under the given name. It panics on a
// duplicate name, matching database/sql registration semantics.
func Register(name string, d Driver) {
	driversMu.Lock()
	defer driversMu.Unlock()
	if _, dup := drivers[name]; dup {
		panic(fmt.Sprintf("backend: Register called twice for driver %q", name))
	}
	drivers[name] = d
}

// Supported reports whether a driver is registered under name.
func Supported(name string) bool {
	driversMu.RLock()
	defer driversMu.RUnlock()
	_, ok := drivers[name]
	return ok
}

// Drivers returns the registered driver names, sorted.
func Drivers() []string {
	driversMu.RLock()
	defer driversMu.RUnlock()
	names := make([]string, 0, len(drivers))
	for name := range drivers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Open opens the named driver's database at path.
func Open(ctx context.Context, name, path string, stores []string) (Backend, error) {
	driversMu.RLock()
	d, ok := drivers[name]
	driversMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("backend: unknown driver %q", name)
	}
	return d.Open(ctx, path, stores)
}

// Remove destroys the named driver's database files at path.
func Remove(name, path string) error {
	driversMu.RLock()
	d, ok := drivers[name]
	driversMu.RUnlock()
	if !ok {
		return fmt.Errorf("backend: unknown driver %q", name)
	}
	return d.Remove(path)
}

// validStoreName guards table and bucket names interpolated into backend
// statements. Store names come from the fixed registry, but backends check
// anyway since the name crosses a package boundary.
func validStoreName(name string) error {
	if name == "" {
		return fmt.Errorf("backend: empty store name")
	}
	for _, r := range name {
		if (r < 'a' || r > 'z') && r != '_' {
			return fmt.Errorf("backend: invalid store name %q", name)
		}
	}
	return nil
}
