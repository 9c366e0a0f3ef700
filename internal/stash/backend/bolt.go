package backend

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	bolt "go.etcd.io/bbolt"
)

func init() {
	Register("bolt", Driver{Open: openBolt, Remove: removeBolt})
}

// boltBackend maps each logical store to a top-level bbolt bucket. Bucket
// cursors iterate in byte order, matching the sqlite backend's key ordering.
type boltBackend struct {
	db *bolt.DB
}

// openBolt creates or opens a bbolt database at path and creates any missing
// store buckets. The open timeout bounds waiting on another process's file
// lock; bbolt allows only one open handle per file across processes.
func openBolt(ctx context.Context, path string, stores []string) (Backend, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, store := range stores {
			if err := validStoreName(store); err != nil {
				return err
			}
			if _, err := tx.CreateBucketIfNotExists([]byte(store)); err != nil {
				return fmt.Errorf("create store %q: %w", store, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create stores: %w", err)
	}

	return &boltBackend{db: db}, nil
}

func removeBolt(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove %s: %w", path, err)
	}
	return nil
}

// bucket resolves a store name inside a transaction. A missing bucket means
// the store name is outside the registry the database was opened with.
func bucket(tx *bolt.Tx, store string) (*bolt.Bucket, error) {
	b := tx.Bucket([]byte(store))
	if b == nil {
		return nil, fmt.Errorf("unknown store %q", store)
	}
	return b, nil
}

func (b *boltBackend) Get(_ context.Context, store, key string) ([]byte, bool, error) {
	var out []byte
	var found bool
	err := b.db.View(func(tx *bolt.Tx) error {
		bkt, err := bucket(tx, store)
		if err != nil {
			return err
		}
		v := bkt.Get([]byte(key))
		if v == nil {
			return nil
		}
		// v is only valid inside the transaction.
		out = append([]byte(nil), v...)
		found = true
		return nil
	})
	if err != nil {
		return nil, false, fmt.Errorf("get %s/%s: %w", store, key, err)
	}
	return out, found, nil
}

func (b *boltBackend) Put(_ context.Context, store, key string, value []byte) error {
	err := b.db.Update(func(tx *bolt.Tx) error {
		bkt, err := bucket(tx, store)
		if err != nil {
			return err
		}
		return bkt.Put([]byte(key), value)
	})
	if err != nil {
		return fmt.Errorf("put %s/%s: %w", store, key, err)
	}
	return nil
}

func (b *boltBackend) Delete(_ context.Context, store, key string) error {
	err := b.db.Update(func(tx *bolt.Tx) error {
		bkt, err := bucket(tx, store)
		if err != nil {
			return err
		}
		return bkt.Delete([]byte(key))
	})
	if err != nil {
		return fmt.Errorf("delete %s/%s: %w", store, key, err)
	}
	return nil
}

func (b *boltBackend) Keys(_ context.Context, store string) ([]string, error) {
	keys := []string{}
	err := b.db.View(func(tx *bolt.Tx) error {
		bkt, err := bucket(tx, store)
		if err != nil {
			return err
		}
		return bkt.ForEach(func(k, _ []byte) error {
			keys = append(keys, string(k))
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("keys %s: %w", store, err)
	}
	return keys, nil
}

func (b *boltBackend) Values(_ context.Context, store string) ([][]byte, error) {
	values := [][]byte{}
	err := b.db.View(func(tx *bolt.Tx) error {
		bkt, err := bucket(tx, store)
		if err != nil {
			return err
		}
		return bkt.ForEach(func(_, v []byte) error {
			values = append(values, append([]byte(nil), v...))
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("values %s: %w", store, err)
	}
	return values, nil
}

func (b *boltBackend) Clear(_ context.Context, store string) error {
	err := b.db.Update(func(tx *bolt.Tx) error {
		if _, err := bucket(tx, store); err != nil {
			return err
		}
		if err := tx.DeleteBucket([]byte(store)); err != nil {
			return err
		}
		_, err := tx.CreateBucket([]byte(store))
		return err
	})
	if err != nil {
		return fmt.Errorf("clear %s: %w", store, err)
	}
	return nil
}

func (b *boltBackend) Count(_ context.Context, store string) (int, error) {
	var n int
	err := b.db.View(func(tx *bolt.Tx) error {
		bkt, err := bucket(tx, store)
		if err != nil {
			return err
		}
		return bkt.ForEach(func(_, _ []byte) error {
			n++
			return nil
		})
	})
	if err != nil {
		return 0, fmt.Errorf("count %s: %w", store, err)
	}
	return n, nil
}

func (b *boltBackend) Close() error {
	return b.db.Close()
}
