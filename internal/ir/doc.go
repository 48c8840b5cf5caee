// Package ir defines the log entry and change record types shared by the
// log store and the consolidation pipeline.
//
// ir imports nothing internal except vclock, so every other package can
// depend on it without cycles.
//
// Key constraints:
//   - No float property values; numbers are int64
//   - Persisted values and digests use RFC 8785 canonical JSON
//   - A change record belongs to exactly one log entry at a time; ownership
//     moves through Move, never by sharing the pointer
package ir
