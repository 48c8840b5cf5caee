package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/baselines/internal/consolidate"
	"github.com/roach88/baselines/internal/ir"
	"github.com/roach88/baselines/internal/schema"
	"github.com/roach88/baselines/internal/store"
	"github.com/roach88/baselines/internal/testutil"
)

// UnclassifiedError is the ErrorKind recorded for run errors that are not
// a *consolidate.Error.
const UnclassifiedError = "UNCLASSIFIED"

// Harness runs scenarios against one store with deterministic identities.
type Harness struct {
	store    *store.Store
	identity *testutil.FixedIdentity
	registry *schema.Registry
	logger   *slog.Logger
}

// Run executes a scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database for isolation.
// Deterministic helpers ensure reproducible results.
//
// Execution flow:
//  1. Create fresh in-memory database
//  2. Append the scenario's entries
//  3. Take the abandonment verdicts
//  4. Consolidate
//  5. Read back the log and evaluate expectations
//
// A run error is part of the result, not a harness failure. Run returns an
// error only when the scenario cannot be set up.
func Run(scenario *Scenario) (*Result, error) {
	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	h := &Harness{
		store:    st,
		identity: testutil.NewFixedIdentity(scenario.MergedIDs...),
		registry: schema.Static(scenario.Schema.Current, scenario.Schema.Known...),
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)), // Suppress logs in tests
	}

	ctx := context.Background()
	if err := h.seed(ctx, scenario); err != nil {
		return nil, fmt.Errorf("failed to seed log: %w", err)
	}

	result := NewResult()
	session := consolidate.NewSession(
		consolidate.SQLiteLog(st),
		h.registry,
		consolidate.WithIdentity(h.identity),
		consolidate.WithLogger(h.logger),
		consolidate.WithObserver(func(s consolidate.State) {
			result.States = append(result.States, s)
		}),
	)

	for _, check := range scenario.Abandoned {
		abandoned, err := session.IsPersistentStoreAbandoned(ctx, ir.ReplicaID(check.Replica))
		if err != nil {
			return nil, fmt.Errorf("abandonment check for %s: %w", check.Replica, err)
		}
		result.Abandoned[check.Replica] = abandoned
	}

	result.Report, result.Err = session.Run(ctx)
	if result.Err != nil {
		result.ErrorKind = errorKind(result.Err)
	}

	result.Log, err = st.ReadEntries(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read log: %w", err)
	}

	for _, msg := range EvaluateExpectations(result, scenario) {
		result.AddError(msg)
	}
	return result, nil
}

func (h *Harness) seed(ctx context.Context, scenario *Scenario) error {
	entries := make([]*ir.LogEntry, 0, len(scenario.Entries))
	for i, e := range scenario.Entries {
		entry, err := e.LogEntry()
		if err != nil {
			return fmt.Errorf("entries[%d]: %w", i, err)
		}
		entries = append(entries, entry)
	}
	return h.store.Append(ctx, entries...)
}

func errorKind(err error) string {
	var ce *consolidate.Error
	if errors.As(err, &ce) {
		return string(ce.Kind)
	}
	return UnclassifiedError
}
