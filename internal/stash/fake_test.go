package stash

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/prismkit/stash/internal/stash/backend"
)

// fake is a process-wide in-memory driver registered as "memfake". Tests
// reset it before use; the package's tests do not run in parallel.
var fake = &fakeDriver{}

func init() {
	backend.Register("memfake", backend.Driver{Open: fake.open, Remove: fake.remove})
}

// fakeDriver counts opens and can inject failures, to observe the lifecycle
// invariants a real engine hides.
type fakeDriver struct {
	mu      sync.Mutex
	opens   int
	openErr error
	gate    chan struct{} // when non-nil, open blocks until closed
	data    map[string]map[string][]byte
	failOps bool
}

func (d *fakeDriver) reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.opens = 0
	d.openErr = nil
	d.gate = nil
	d.data = nil
	d.failOps = false
}

func (d *fakeDriver) openCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.opens
}

func (d *fakeDriver) setFailOps(fail bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.failOps = fail
}

func (d *fakeDriver) open(_ context.Context, _ string, stores []string) (backend.Backend, error) {
	d.mu.Lock()
	d.opens++
	gate := d.gate
	err := d.openErr
	d.mu.Unlock()

	if gate != nil {
		<-gate
	}
	if err != nil {
		return nil, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.data == nil {
		d.data = make(map[string]map[string][]byte)
	}
	for _, s := range stores {
		if d.data[s] == nil {
			d.data[s] = make(map[string][]byte)
		}
	}
	return &fakeBackend{d: d}, nil
}

func (d *fakeDriver) remove(_ string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.data = nil
	return nil
}

var errFakeOp = errors.New("injected operation failure")

type fakeBackend struct {
	d *fakeDriver
}

func (b *fakeBackend) store(name string) (map[string][]byte, error) {
	if b.d.failOps {
		return nil, errFakeOp
	}
	s, ok := b.d.data[name]
	if !ok {
		return nil, errors.New("unknown store " + name)
	}
	return s, nil
}

func (b *fakeBackend) Get(_ context.Context, store, key string) ([]byte, bool, error) {
	b.d.mu.Lock()
	defer b.d.mu.Unlock()
	s, err := b.store(store)
	if err != nil {
		return nil, false, err
	}
	v, ok := s[key]
	return v, ok, nil
}

func (b *fakeBackend) Put(_ context.Context, store, key string, value []byte) error {
	b.d.mu.Lock()
	defer b.d.mu.Unlock()
	s, err := b.store(store)
	if err != nil {
		return err
	}
	s[key] = append([]byte(nil), value...)
	return nil
}

func (b *fakeBackend) Delete(_ context.Context, store, key string) error {
	b.d.mu.Lock()
	defer b.d.mu.Unlock()
	s, err := b.store(store)
	if err != nil {
		return err
	}
	delete(s, key)
	return nil
}

func (b *fakeBackend) Keys(_ context.Context, store string) ([]string, error) {
	b.d.mu.Lock()
	defer b.d.mu.Unlock()
	s, err := b.store(store)
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

func (b *fakeBackend) Values(_ context.Context, store string) ([][]byte, error) {
	keys, err := b.Keys(context.Background(), store)
	if err != nil {
		return nil, err
	}
	b.d.mu.Lock()
	defer b.d.mu.Unlock()
	values := make([][]byte, 0, len(keys))
	for _, k := range keys {
		values = append(values, b.d.data[store][k])
	}
	return values, nil
}

func (b *fakeBackend) Clear(_ context.Context, store string) error {
	b.d.mu.Lock()
	defer b.d.mu.Unlock()
	if _, err := b.store(store); err != nil {
		return err
	}
	b.d.data[store] = make(map[string][]byte)
	return nil
}

func (b *fakeBackend) Count(_ context.Context, store string) (int, error) {
	b.d.mu.Lock()
	defer b.d.mu.Unlock()
	s, err := b.store(store)
	if err != nil {
		return 0, err
	}
	return len(s), nil
}

func (b *fakeBackend) Close() error {
	return nil
}
