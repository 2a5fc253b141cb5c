// Package store provides the managed connection layer for a libSQL/SQLite
// relational store.
//
// The package owns pool lifecycle and tuning, bounded-latency health probes,
// Prometheus instrumentation of pool state and query outcomes, and a scoped
// transaction executor. Schema migrations and query building are out of scope
// and belong to the callers.
package store
