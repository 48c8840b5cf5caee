package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/roach88/baselines/internal/ir"
)

const entryColumns = `id, is_baseline, global_count, timestamp_ns, replica, clock, schema_version, constructed_for`

// recencyOrder sorts most recent first. BINARY collation matches Go string
// comparison so the final tie-break agrees with in-memory sorting.
const recencyOrder = `ORDER BY global_count DESC, timestamp_ns DESC, replica COLLATE BINARY DESC, id COLLATE BINARY DESC`

// FetchBaselines returns every baseline with its change records, most
// recent first.
//
// Returns an empty slice (not nil) if the log has no baselines.
func (t *Tx) FetchBaselines(ctx context.Context) ([]*ir.LogEntry, error) {
	return t.queryEntries(ctx, "fetch baselines", `
		SELECT `+entryColumns+`
		FROM log_entries
		WHERE is_baseline = 1
		`+recencyOrder)
}

// FetchBaselinesConstructedFor returns the baselines built to describe the
// given replica's own store, most recent first.
func (t *Tx) FetchBaselinesConstructedFor(ctx context.Context, replica ir.ReplicaID) ([]*ir.LogEntry, error) {
	return t.queryEntries(ctx, "fetch baselines constructed for "+string(replica), `
		SELECT `+entryColumns+`
		FROM log_entries
		WHERE is_baseline = 1 AND constructed_for = ?
		`+recencyOrder, string(replica))
}

// CountBaselines returns the number of baselines in the log.
func (t *Tx) CountBaselines(ctx context.Context) (int, error) {
	tx, err := t.active()
	if err != nil {
		return 0, fmt.Errorf("count baselines: %w", err)
	}
	var n int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM log_entries WHERE is_baseline = 1`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count baselines: %w", err)
	}
	return n, nil
}

// ReadEntries returns every entry in the log in ascending global count
// order, baselines and ordinary entries alike.
func (t *Tx) ReadEntries(ctx context.Context) ([]*ir.LogEntry, error) {
	return t.queryEntries(ctx, "read entries", `
		SELECT `+entryColumns+`
		FROM log_entries
		ORDER BY global_count ASC, timestamp_ns ASC, replica COLLATE BINARY ASC, id COLLATE BINARY ASC
	`)
}

// ReadEntry returns one entry by ID. Returns sql.ErrNoRows if not found.
func (t *Tx) ReadEntry(ctx context.Context, id string) (*ir.LogEntry, error) {
	tx, err := t.active()
	if err != nil {
		return nil, fmt.Errorf("read entry: %w", err)
	}
	row := tx.QueryRowContext(ctx, `SELECT `+entryColumns+` FROM log_entries WHERE id = ?`, id)
	e, err := scanEntry(row)
	if err != nil {
		return nil, err
	}
	if err := loadRecords(ctx, tx, e); err != nil {
		return nil, err
	}
	return e, nil
}

// Append is a convenience that appends entries in their own unit of work.
func (s *Store) Append(ctx context.Context, entries ...*ir.LogEntry) error {
	return s.Perform(ctx, func(ctx context.Context, tx *Tx) error {
		for _, e := range entries {
			if err := tx.Append(ctx, e); err != nil {
				return err
			}
		}
		return nil
	})
}

// ReadEntries reads the whole log in its own unit of work.
func (s *Store) ReadEntries(ctx context.Context) ([]*ir.LogEntry, error) {
	var entries []*ir.LogEntry
	err := s.Perform(ctx, func(ctx context.Context, tx *Tx) error {
		var err error
		entries, err = tx.ReadEntries(ctx)
		return err
	})
	return entries, err
}

func (t *Tx) queryEntries(ctx context.Context, op, query string, args ...any) ([]*ir.LogEntry, error) {
	tx, err := t.active()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	rows, err := tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	entries := []*ir.LogEntry{}
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("%s: iterate: %w", op, err)
	}
	rows.Close()

	// Records are loaded after the entry cursor is closed; the store has a
	// single connection.
	for _, e := range entries {
		if err := loadRecords(ctx, tx, e); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}
	return entries, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(row scanner) (*ir.LogEntry, error) {
	var (
		e              ir.LogEntry
		tsNanos        int64
		replica        string
		clockJSON      string
		constructedFor string
	)
	err := row.Scan(
		&e.ID,
		&e.IsBaseline,
		&e.GlobalCount,
		&tsNanos,
		&replica,
		&clockJSON,
		&e.SchemaVersion,
		&constructedFor,
	)
	if err != nil {
		return nil, err
	}

	clock, err := unmarshalClock(clockJSON)
	if err != nil {
		return nil, fmt.Errorf("entry %s: %w", e.ID, err)
	}

	e.Timestamp = time.Unix(0, tsNanos).UTC()
	e.Replica = ir.ReplicaID(replica)
	e.Clock = clock
	e.ConstructedFor = ir.ReplicaID(constructedFor)
	return &e, nil
}

func loadRecords(ctx context.Context, tx *sql.Tx, e *ir.LogEntry) error {
	rows, err := tx.QueryContext(ctx, `
		SELECT global_id, properties
		FROM change_records
		WHERE entry_id = ?
		ORDER BY global_id COLLATE BINARY ASC
	`, e.ID)
	if err != nil {
		return fmt.Errorf("query records of %s: %w", e.ID, err)
	}
	defer rows.Close()

	for rows.Next() {
		var gid, propsJSON string
		if err := rows.Scan(&gid, &propsJSON); err != nil {
			return fmt.Errorf("scan record of %s: %w", e.ID, err)
		}
		props, err := unmarshalProperties(propsJSON)
		if err != nil {
			return fmt.Errorf("record %s of %s: %w", gid, e.ID, err)
		}
		e.Records = append(e.Records, &ir.ChangeRecord{
			GlobalID:   ir.GlobalID(gid),
			Owner:      e.ID,
			Properties: props,
		})
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate records of %s: %w", e.ID, err)
	}
	return nil
}
