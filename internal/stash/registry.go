package stash

import "encoding/json"

// Store identifies a logical store inside the one physical database.
type Store string

// The fixed set of logical stores. Adding a store here is the only supported
// schema change; stores are created once at open time and never migrated.
const (
	// StorePriceCache holds externally fetched market price records,
	// envelope-wrapped, keyed by item identifier.
	StorePriceCache Store = "price_cache"

	// StorePalettes holds user-created palette records stored as-is,
	// keyed by their own "id" field.
	StorePalettes Store = "palettes"

	// StoreSettings holds arbitrary serializable preference values,
	// envelope-wrapped, keyed by setting name.
	StoreSettings Store = "settings"
)

// KeyMode declares how values in a store relate to their primary key.
type KeyMode int

const (
	// KeyModeEnvelope wraps each value as {key, value} before persisting,
	// so arbitrary payloads can live under any string key.
	KeyModeEnvelope KeyMode = iota

	// KeyModeDirect persists records as-is; the record carries its own
	// identifier field, which doubles as the primary key.
	KeyModeDirect
)

// StoreSpec describes one logical store's shape.
type StoreSpec struct {
	Name     Store
	Mode     KeyMode
	KeyField string // identifier field name for KeyModeDirect stores
}

var registry = []StoreSpec{
	{Name: StorePriceCache, Mode: KeyModeEnvelope, KeyField: "key"},
	{Name: StorePalettes, Mode: KeyModeDirect, KeyField: "id"},
	{Name: StoreSettings, Mode: KeyModeEnvelope, KeyField: "key"},
}

// Stores returns the registry of all logical stores, in declaration order.
func Stores() []StoreSpec {
	out := make([]StoreSpec, len(registry))
	copy(out, registry)
	return out
}

// StoreNames returns the physical names of all logical stores, for backends
// to create at open time.
func StoreNames() []string {
	names := make([]string, len(registry))
	for i, s := range registry {
		names[i] = string(s.Name)
	}
	return names
}

// LookupStore resolves a store name to its spec. The second return is false
// for names outside the registry.
func LookupStore(name string) (StoreSpec, bool) {
	for _, s := range registry {
		if string(s.Name) == name {
			return s, true
		}
	}
	return StoreSpec{}, false
}

func specFor(store Store) (StoreSpec, bool) {
	return LookupStore(string(store))
}

// envelope is the persisted shape for KeyModeEnvelope stores.
type envelope struct {
	Key   string          `json:"key"`
	Value json.RawMessage `json:"value"`
}
