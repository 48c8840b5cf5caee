package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/roach88/baselines/internal/ir"
)

// Append inserts a log entry and its change records.
//
// When e.GlobalCount is 0 the next global count is allocated and written
// back to e. A zero Timestamp is set to the current time. Records without
// an owner are assigned to e.
func (t *Tx) Append(ctx context.Context, e *ir.LogEntry) error {
	tx, err := t.active()
	if err != nil {
		return fmt.Errorf("append: %w", err)
	}

	if e.GlobalCount == 0 {
		e.GlobalCount = t.counter.Next()
	} else {
		t.counter.Observe(e.GlobalCount)
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}
	for _, r := range e.Records {
		if r.Owner == "" {
			r.Owner = e.ID
		}
	}
	if err := e.Validate(); err != nil {
		return fmt.Errorf("append: %w", err)
	}

	if err := insertEntry(ctx, tx, e); err != nil {
		return fmt.Errorf("append %s: %w", e.ID, err)
	}
	return nil
}

// Delete removes entries and, by cascade, their change records.
// Deleting an entry that does not exist is not an error.
func (t *Tx) Delete(ctx context.Context, entries ...*ir.LogEntry) error {
	tx, err := t.active()
	if err != nil {
		return fmt.Errorf("delete: %w", err)
	}

	for _, e := range entries {
		if _, err := tx.ExecContext(ctx, `DELETE FROM log_entries WHERE id = ?`, e.ID); err != nil {
			return fmt.Errorf("delete %s: %w", e.ID, err)
		}
	}
	return nil
}

// Replace rewrites the entry stored under oldID with e: header fields,
// identity and the complete change record set. oldID may equal e.ID.
func (t *Tx) Replace(ctx context.Context, oldID string, e *ir.LogEntry) error {
	tx, err := t.active()
	if err != nil {
		return fmt.Errorf("replace: %w", err)
	}
	if err := e.Validate(); err != nil {
		return fmt.Errorf("replace: %w", err)
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM log_entries WHERE id = ?`, oldID)
	if err != nil {
		return fmt.Errorf("replace %s: delete old: %w", oldID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("replace %s: rows affected: %w", oldID, err)
	}
	if n == 0 {
		return fmt.Errorf("replace %s: no such entry", oldID)
	}

	if err := insertEntry(ctx, tx, e); err != nil {
		return fmt.Errorf("replace %s: %w", oldID, err)
	}
	t.counter.Observe(e.GlobalCount)
	return nil
}

func insertEntry(ctx context.Context, tx *sql.Tx, e *ir.LogEntry) error {
	clockJSON, err := marshalClock(e.Clock)
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO log_entries
		(id, is_baseline, global_count, timestamp_ns, replica, clock, schema_version, constructed_for)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		e.ID,
		e.IsBaseline,
		e.GlobalCount,
		e.Timestamp.UnixNano(),
		string(e.Replica),
		clockJSON,
		e.SchemaVersion,
		string(e.ConstructedFor),
	)
	if err != nil {
		return fmt.Errorf("insert entry: %w", err)
	}

	for _, r := range e.Records {
		propsJSON, err := marshalProperties(r.Properties)
		if err != nil {
			return fmt.Errorf("record %s: %w", r.GlobalID, err)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO change_records (entry_id, global_id, properties)
			VALUES (?, ?, ?)
		`, e.ID, string(r.GlobalID), propsJSON)
		if err != nil {
			return fmt.Errorf("insert record %s: %w", r.GlobalID, err)
		}
	}
	return nil
}
