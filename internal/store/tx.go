package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// Tx is one unit of work against the log.
//
// Changes become durable only through Persist. A Tx may be persisted more
// than once: after each commit it continues in a fresh transaction, so a
// multi-step run can make intermediate states durable.
//
// A Tx must only be used from the job that opened it.
type Tx struct {
	db      *sql.DB
	tx      *sql.Tx
	counter *Counter
}

// Begin opens a unit of work. Call it from a job running on the store's
// work context (see Schedule) so units of work never overlap.
func (s *Store) Begin(ctx context.Context) (*Tx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin unit of work: %w", err)
	}
	return &Tx{db: s.db, tx: tx, counter: s.counter}, nil
}

// Persist commits everything done so far and continues in a new transaction.
func (t *Tx) Persist(ctx context.Context) error {
	if t.tx == nil {
		return errors.New("persist: unit of work is closed")
	}
	err := t.tx.Commit()
	t.tx = nil
	if err != nil {
		return fmt.Errorf("persist: commit: %w", err)
	}

	next, err := t.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("persist: begin next: %w", err)
	}
	t.tx = next
	return nil
}

// Rollback discards everything since the last Persist and closes the unit
// of work. Safe to call more than once.
func (t *Tx) Rollback() error {
	if t.tx == nil {
		return nil
	}
	err := t.tx.Rollback()
	t.tx = nil
	if err != nil && !errors.Is(err, sql.ErrTxDone) {
		return fmt.Errorf("rollback: %w", err)
	}
	return nil
}

func (t *Tx) active() (*sql.Tx, error) {
	if t.tx == nil {
		return nil, errors.New("unit of work is closed")
	}
	return t.tx, nil
}
