package consolidate

import (
	"context"

	"github.com/roach88/baselines/internal/ir"
	"github.com/roach88/baselines/internal/store"
)

// LogStore is the modification log a Session consolidates.
//
// Schedule runs a job on the store's serialized work context; Begin opens
// a unit of work and must only be called from such a job.
type LogStore interface {
	Schedule(job func()) error
	Begin(ctx context.Context) (UnitOfWork, error)
}

// UnitOfWork is one transactional view of the log. Nothing is durable
// until Persist; Persist may be called more than once.
type UnitOfWork interface {
	FetchBaselines(ctx context.Context) ([]*ir.LogEntry, error)
	FetchBaselinesConstructedFor(ctx context.Context, replica ir.ReplicaID) ([]*ir.LogEntry, error)
	CountBaselines(ctx context.Context) (int, error)
	Delete(ctx context.Context, entries ...*ir.LogEntry) error
	Replace(ctx context.Context, oldID string, e *ir.LogEntry) error
	Persist(ctx context.Context) error
	Rollback() error
}

// VersionChecker recognizes the schema version tags of log entries.
// Implemented by *schema.Registry.
type VersionChecker interface {
	Current() string
	CheckVersionsKnown(entries []*ir.LogEntry) bool
}

// SQLiteLog adapts a *store.Store to LogStore.
func SQLiteLog(s *store.Store) LogStore {
	return sqliteLog{s}
}

type sqliteLog struct {
	*store.Store
}

func (l sqliteLog) Begin(ctx context.Context) (UnitOfWork, error) {
	tx, err := l.Store.Begin(ctx)
	if err != nil {
		return nil, err
	}
	return tx, nil
}
