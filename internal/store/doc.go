// Package store provides SQLite-backed durable storage for the replicated
// modification log.
//
// The log holds two tables:
//   - log_entries: one row per modification event or baseline, with its
//     revision vector, global count and schema version tag
//   - change_records: the per-object change sets owned by each entry,
//     removed together with their entry (ON DELETE CASCADE)
//
// # Ordering
//
// Baseline queries return entries in recency order: global_count DESC,
// timestamp_ns DESC, replica DESC, id DESC, strings compared BINARY. This
// matches consolidate.ByRecency.
//
// # Work context
//
// Every Store owns a single-goroutine work queue. Units of work (Tx) are
// opened from jobs scheduled on that queue, so at most one unit of work is
// active at a time. SQLite is additionally limited to one connection.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//
// Clocks and property values are persisted as RFC 8785 canonical JSON
// (internal/ir/canonical.go).
package store
