// Package consolidate reduces the baselines of a replicated modification
// log to a single consolidated baseline.
//
// A run has two phases. Redundancy elimination drops every baseline whose
// revision vector is dominated by, or identical to, another baseline's.
// The merge phase folds the surviving, mutually concurrent baselines into
// the most recent one: its clock becomes the component-wise maximum, and
// the change records of the other survivors are moved in or fill the
// gaps of records it already holds.
//
// Both phases use the same recency ordering (see ByRecency), so replicas
// consolidating the same baselines independently converge on the same
// change set.
//
// Usage:
//
//	s, _ := store.Open("log.db")
//	session := consolidate.NewSession(consolidate.SQLiteLog(s), registry)
//	session.Consolidate(ctx, workqueue.Detached, func(err error) {
//	    // called exactly once
//	})
//
// Mutation happens only on the log store's work context; completions are
// delivered on the caller's Dispatcher.
package consolidate
