package stash

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/prismkit/stash/internal/stash/backend"
)

// connState is the lifecycle state of the shared database handle.
type connState int

const (
	stateUninitialized connState = iota
	stateInitializing
	stateReady
	stateUnavailable
)

func (s connState) String() string {
	switch s {
	case stateUninitialized:
		return "uninitialized"
	case stateInitializing:
		return "initializing"
	case stateReady:
		return "ready"
	case stateUnavailable:
		return "unavailable"
	default:
		return fmt.Sprintf("connState(%d)", int(s))
	}
}

// DB owns the single shared handle to the physical database. The zero value
// is not usable; construct with New. All methods are safe for concurrent use.
//
// A DB starts uninitialized and opens lazily on the first Initialize call.
// No CRUD method triggers initialization implicitly.
type DB struct {
	cfg Config

	mu      sync.Mutex
	state   connState
	handle  backend.Backend
	pending chan struct{} // closed when the in-flight open resolves
	initOK  bool          // result of the last resolved open
}

// New creates an uninitialized DB for the given configuration. It performs
// no I/O; call Initialize before use.
func New(cfg Config) *DB {
	return &DB{cfg: cfg.withDefaults(), state: stateUninitialized}
}

// Config returns the configuration the DB was created with.
func (db *DB) Config() Config {
	return db.cfg
}

// IsSupported reports whether the configured driver has a registered
// backend. Pure capability probe, no side effects.
func (db *DB) IsSupported() bool {
	return backend.Supported(db.cfg.Driver)
}

// IsReady reports whether the handle is open and operations will reach the
// database.
func (db *DB) IsReady() bool {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.state == stateReady
}

// Initialize establishes the shared handle, creating any missing logical
// stores, and reports whether the database is ready.
//
// Concurrent callers share a single in-flight open: whichever call starts
// the open, every other Initialize call observed during it awaits the same
// resolution and returns the same result. At most one physical open request
// is ever in flight.
//
// Returns false without attempting an open when the driver is unsupported,
// and false on open failure; a later Initialize may retry. A caller whose
// ctx expires while awaiting a shared open gets false; the open itself
// continues and resolves for the other waiters. Never panics and never
// returns an error.
func (db *DB) Initialize(ctx context.Context) bool {
	db.mu.Lock()

	switch db.state {
	case stateReady:
		db.mu.Unlock()
		return true

	case stateInitializing:
		wait := db.pending
		db.mu.Unlock()
		select {
		case <-wait:
		case <-ctx.Done():
			return false
		}
		db.mu.Lock()
		ok := db.initOK
		db.mu.Unlock()
		return ok
	}

	if !backend.Supported(db.cfg.Driver) {
		db.state = stateUnavailable
		db.initOK = false
		db.mu.Unlock()
		slog.Debug("stash: driver unsupported", "driver", db.cfg.Driver)
		return false
	}

	pending := make(chan struct{})
	db.state = stateInitializing
	db.pending = pending
	db.mu.Unlock()

	handle, err := db.open(ctx)

	db.mu.Lock()
	if err != nil {
		db.state = stateUnavailable
		db.initOK = false
		slog.Warn("stash: open failed", "driver", db.cfg.Driver, "path", db.cfg.Path, "error", err)
	} else {
		db.handle = handle
		db.state = stateReady
		db.initOK = true
		slog.Info("stash: database ready", "driver", db.cfg.Driver, "path", db.cfg.Path)
	}
	db.pending = nil
	close(pending)
	ok := db.initOK
	db.mu.Unlock()
	return ok
}

// open issues the one physical open request. A panic out of the driver is
// converted to an error so the Initialize contract holds.
func (db *DB) open(ctx context.Context) (h backend.Backend, err error) {
	defer func() {
		if r := recover(); r != nil {
			h = nil
			err = fmt.Errorf("open panicked: %v", r)
		}
	}()
	if dir := filepath.Dir(db.cfg.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}
	return backend.Open(ctx, db.cfg.Driver, db.cfg.Path, StoreNames())
}

// Close releases the handle and returns the DB to uninitialized. Stored data
// is retained; a later Initialize reopens it. Safe to call when already
// closed. If an open is in flight, Close waits for it to resolve first.
func (db *DB) Close() {
	db.mu.Lock()
	for db.state == stateInitializing {
		wait := db.pending
		db.mu.Unlock()
		<-wait
		db.mu.Lock()
	}

	if db.handle != nil {
		if err := db.handle.Close(); err != nil {
			slog.Debug("stash: close failed", "error", err)
		}
		db.handle = nil
	}
	db.state = stateUninitialized
	db.mu.Unlock()
}

// DeleteDatabase destroys the physical database files. It does not require a
// prior Initialize. Returns false when the driver is unsupported, when this
// DB itself holds the database open (close first), or on removal failure;
// true only on confirmed completion, including when no database exists.
func (db *DB) DeleteDatabase() bool {
	db.mu.Lock()
	defer db.mu.Unlock()

	if !backend.Supported(db.cfg.Driver) {
		return false
	}
	if db.state == stateReady || db.state == stateInitializing {
		slog.Debug("stash: delete blocked by open handle", "path", db.cfg.Path)
		return false
	}

	if err := db.remove(); err != nil {
		slog.Warn("stash: delete failed", "path", db.cfg.Path, "error", err)
		return false
	}
	slog.Info("stash: database deleted", "path", db.cfg.Path)
	return true
}

func (db *DB) remove() (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("remove panicked: %v", r)
		}
	}()
	return backend.Remove(db.cfg.Driver, db.cfg.Path)
}
