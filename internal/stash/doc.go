// Package stash provides the local persistence layer for prismkit: a single
// embedded database partitioned into a fixed set of logical stores (price
// cache, saved palettes, settings), exposed through a typed key-value facade.
//
// The package has three layers:
//
//   - Store Registry: the fixed enumeration of logical stores, each with a
//     declared key strategy (envelope-wrapped values vs. records keyed by
//     their own identifier field).
//   - Connection Lifecycle: one shared handle per DB value, established
//     lazily by Initialize. Concurrent Initialize calls share a single
//     in-flight open; at most one physical open is ever issued at a time.
//   - Typed Access Facade: Get/Set/Delete/Keys/GetAll/Clear/Count per store,
//     each running one short-lived backend operation.
//
// # Failure Model
//
// Nothing in this package's public surface returns an error or panics.
// Persistence here is a durability layer for an application that must stay
// usable when storage is degraded or absent, so every failure path collapses
// to a documented sentinel: nil for Get, false for Set/Delete/Clear, 0 for
// Count, empty slices for Keys/GetAll. Callers observe a storage outage as
// "the value is absent", never as an exception. Errors are absorbed at the
// narrowest point and logged at debug level for operators.
//
// A driver whose backend is not registered is a normal, expected condition
// (IsSupported reports it); all operations then short-circuit to sentinels.
package stash
