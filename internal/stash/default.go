package stash

import "sync"

// The process-wide instance. The facade owns the only handle to the physical
// database; collaborators must go through Default (or a DB they constructed
// themselves for tests) rather than opening a second connection.
var (
	defaultOnce sync.Once
	defaultDB   *DB
)

// Default returns the process-wide DB, creating it with default
// configuration on first use. It does not initialize the connection; callers
// still await Initialize.
func Default() *DB {
	defaultOnce.Do(func() {
		defaultDB = New(Config{})
	})
	return defaultDB
}
