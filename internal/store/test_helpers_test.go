package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/roach88/baselines/internal/ir"
	"github.com/roach88/baselines/internal/vclock"
)

// createTestStore creates a new store in a temporary directory.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestBaseline creates a baseline with one record per global ID.
func createTestBaseline(id string, count int64, clock vclock.Clock, gids ...string) *ir.LogEntry {
	e := &ir.LogEntry{
		ID:            id,
		IsBaseline:    true,
		GlobalCount:   count,
		Timestamp:     time.Unix(1700000000+count, 0).UTC(),
		Replica:       "S1",
		Clock:         clock,
		SchemaVersion: "v1",
	}
	for _, gid := range gids {
		e.Records = append(e.Records, &ir.ChangeRecord{
			GlobalID: ir.GlobalID(gid),
			Owner:    id,
			Properties: map[string]ir.PropertyChange{
				"name": ir.Set(ir.String(gid)),
			},
		})
	}
	return e
}

// withTx runs fn in a unit of work opened directly, bypassing the work queue.
func withTx(t *testing.T, s *Store, fn func(ctx context.Context, tx *Tx)) {
	t.Helper()
	ctx := context.Background()
	tx, err := s.Begin(ctx)
	if err != nil {
		t.Fatalf("Begin() failed: %v", err)
	}
	defer tx.Rollback()
	fn(ctx, tx)
}
