// Package store provides SQLite-backed storage for raffle state.
//
// Two tables are kept:
//   - documents: the current snapshot per key, overwritten on every save.
//     Each overwrite bumps the row's revision.
//   - events: an append-only journal of workflow outcomes.
//
// # Ordering
//
// Journal rows are ordered by seq, a logical counter resumed from the
// stored maximum on Open. Timestamps are recorded but never used for
// ordering.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//
// Store implements persist.KV and raffle.Observer.
package store
