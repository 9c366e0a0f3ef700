package backend

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"

	_ "github.com/mattn/go-sqlite3"
)

// Schema version tracking:
// 1 - Initial schema: one (k, v) table per logical store.
const sqliteSchemaVersion = 1

func init() {
	Register("sqlite3", Driver{Open: openSQLite, Remove: removeSQLite})
}

// sqliteBackend stores each logical store as a two-column table:
// k TEXT PRIMARY KEY (BINARY collation, so Keys order is byte order) and
// v BLOB holding the serialized record.
type sqliteBackend struct {
	db *sql.DB
}

// openSQLite creates or opens a SQLite database at the given path, applying
// required pragmas and creating any missing store tables. Idempotent.
func openSQLite(ctx context.Context, path string, stores []string) (Backend, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	// SQLite supports one writer at a time; a single connection avoids
	// SQLITE_BUSY under concurrent facade calls.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply pragmas: %w", err)
	}

	if err := createStores(ctx, db, stores); err != nil {
		db.Close()
		return nil, fmt.Errorf("create stores: %w", err)
	}

	return &sqliteBackend{db: db}, nil
}

// removeSQLite deletes the database file along with its WAL sidecar files.
func removeSQLite(path string) error {
	for _, p := range []string{path, path + "-wal", path + "-shm"} {
		if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("remove %s: %w", p, err)
		}
	}
	return nil
}

// applyPragmas sets required SQLite configuration.
func applyPragmas(ctx context.Context, db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}

	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			return fmt.Errorf("execute %q: %w", pragma, err)
		}
	}

	return nil
}

// createStores creates one table per logical store if not present and stamps
// the schema version. Existing tables and data are left untouched.
func createStores(ctx context.Context, db *sql.DB, stores []string) error {
	for _, store := range stores {
		if err := validStoreName(store); err != nil {
			return err
		}
		stmt := fmt.Sprintf(
			`CREATE TABLE IF NOT EXISTS %q (k TEXT PRIMARY KEY, v BLOB NOT NULL)`, store)
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("create store %q: %w", store, err)
		}
	}

	stmt := fmt.Sprintf("PRAGMA user_version = %d", sqliteSchemaVersion)
	if _, err := db.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("set user_version: %w", err)
	}

	return nil
}

func (b *sqliteBackend) Get(ctx context.Context, store, key string) ([]byte, bool, error) {
	if err := validStoreName(store); err != nil {
		return nil, false, err
	}
	var v []byte
	stmt := fmt.Sprintf(`SELECT v FROM %q WHERE k = ?`, store)
	err := b.db.QueryRowContext(ctx, stmt, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get %s/%s: %w", store, key, err)
	}
	return v, true, nil
}

func (b *sqliteBackend) Put(ctx context.Context, store, key string, value []byte) error {
	if err := validStoreName(store); err != nil {
		return err
	}
	stmt := fmt.Sprintf(
		`INSERT INTO %q (k, v) VALUES (?, ?) ON CONFLICT(k) DO UPDATE SET v = excluded.v`, store)
	if _, err := b.db.ExecContext(ctx, stmt, key, value); err != nil {
		return fmt.Errorf("put %s/%s: %w", store, key, err)
	}
	return nil
}

func (b *sqliteBackend) Delete(ctx context.Context, store, key string) error {
	if err := validStoreName(store); err != nil {
		return err
	}
	stmt := fmt.Sprintf(`DELETE FROM %q WHERE k = ?`, store)
	if _, err := b.db.ExecContext(ctx, stmt, key); err != nil {
		return fmt.Errorf("delete %s/%s: %w", store, key, err)
	}
	return nil
}

func (b *sqliteBackend) Keys(ctx context.Context, store string) ([]string, error) {
	if err := validStoreName(store); err != nil {
		return nil, err
	}
	stmt := fmt.Sprintf(`SELECT k FROM %q ORDER BY k ASC`, store)
	rows, err := b.db.QueryContext(ctx, stmt)
	if err != nil {
		return nil, fmt.Errorf("keys %s: %w", store, err)
	}
	defer rows.Close()

	keys := []string{}
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, fmt.Errorf("scan key: %w", err)
		}
		keys = append(keys, k)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate keys: %w", err)
	}
	return keys, nil
}

func (b *sqliteBackend) Values(ctx context.Context, store string) ([][]byte, error) {
	if err := validStoreName(store); err != nil {
		return nil, err
	}
	stmt := fmt.Sprintf(`SELECT v FROM %q ORDER BY k ASC`, store)
	rows, err := b.db.QueryContext(ctx, stmt)
	if err != nil {
		return nil, fmt.Errorf("values %s: %w", store, err)
	}
	defer rows.Close()

	values := [][]byte{}
	for rows.Next() {
		var v []byte
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("scan value: %w", err)
		}
		values = append(values, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate values: %w", err)
	}
	return values, nil
}

func (b *sqliteBackend) Clear(ctx context.Context, store string) error {
	if err := validStoreName(store); err != nil {
		return err
	}
	stmt := fmt.Sprintf(`DELETE FROM %q`, store)
	if _, err := b.db.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("clear %s: %w", store, err)
	}
	return nil
}

func (b *sqliteBackend) Count(ctx context.Context, store string) (int, error) {
	if err := validStoreName(store); err != nil {
		return 0, err
	}
	var n int
	stmt := fmt.Sprintf(`SELECT COUNT(*) FROM %q`, store)
	if err := b.db.QueryRowContext(ctx, stmt).Scan(&n); err != nil {
		return 0, fmt.Errorf("count %s: %w", store, err)
	}
	return n, nil
}

func (b *sqliteBackend) Close() error {
	return b.db.Close()
}
