package store

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/roach88/baselines/internal/workqueue"
)

//go:embed schema.sql
var schemaSQL string

// Schema version tracking:
// 0 - Initial schema (pre-migration)
// 1 - Added index on log_entries.constructed_for for abandonment queries
const currentSchemaVersion = 1

// ErrClosed is returned when work is scheduled on a closed store.
var ErrClosed = errors.New("store: closed")

// Store provides durable storage for the modification log.
// Uses SQLite with WAL mode and a single connection.
type Store struct {
	db      *sql.DB
	counter *Counter
	work    *workqueue.Queue
	stop    func()
}

// Open creates or opens a SQLite database at the given path.
// Applies required pragmas and migrations automatically, and starts the
// store's work queue.
//
// The database is configured with:
//   - WAL mode for concurrent reads during writes
//   - NORMAL synchronous mode (balance durability/performance)
//   - 5-second busy timeout for lock contention
//   - Foreign key enforcement
//
// This function is idempotent - safe to call multiple times.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// SQLite only supports one writer at a time. With one connection the
	// pragmas below also apply to every statement.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}

	if err := applySchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	var maxCount int64
	if err := db.QueryRow("SELECT COALESCE(MAX(global_count), 0) FROM log_entries").Scan(&maxCount); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to read global count: %w", err)
	}

	s := &Store{
		db:      db,
		counter: NewCounterAt(maxCount),
		work:    workqueue.New("store:" + path),
	}
	s.stop = s.work.Start(context.Background())
	return s, nil
}

// Close stops the work queue, waits for scheduled work to finish, and
// closes the database connection.
func (s *Store) Close() error {
	if s.stop != nil {
		s.stop()
		s.stop = nil
	}
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Schedule runs job on the store's work context. Jobs run one at a time in
// submission order. Returns ErrClosed if the store has been closed.
func (s *Store) Schedule(job func()) error {
	if !s.work.Submit(job) {
		return ErrClosed
	}
	return nil
}

// Perform runs fn inside a unit of work on the store's work context and
// waits for it. The unit of work is persisted when fn returns nil and
// rolled back otherwise.
//
// Must not be called from a job already running on the work context.
func (s *Store) Perform(ctx context.Context, fn func(ctx context.Context, tx *Tx) error) error {
	errCh := make(chan error, 1)
	err := s.Schedule(func() {
		errCh <- s.perform(ctx, fn)
	})
	if err != nil {
		return err
	}

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Store) perform(ctx context.Context, fn func(ctx context.Context, tx *Tx) error) error {
	tx, err := s.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := fn(ctx, tx); err != nil {
		return err
	}
	return tx.Persist(ctx)
}

// applyPragmas sets required SQLite configuration.
func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}

	return nil
}

// applySchema creates tables if they don't exist and runs migrations.
func applySchema(db *sql.DB) error {
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}

	if err := runMigrations(db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

// runMigrations applies incremental schema migrations based on user_version.
func runMigrations(db *sql.DB) error {
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("get user_version: %w", err)
	}

	if version < 1 {
		if err := migrateToV1(db); err != nil {
			return err
		}
	}

	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
		return fmt.Errorf("set user_version: %w", err)
	}

	return nil
}

// migrateToV1 indexes baselines by the replica they were constructed for.
func migrateToV1(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_log_entries_constructed_for
		ON log_entries(constructed_for)
		WHERE is_baseline = 1
	`)
	if err != nil {
		return fmt.Errorf("migrate to v1: %w", err)
	}
	return nil
}

// verifyPragma checks that a pragma is set to the expected value.
// Used for testing.
func (s *Store) verifyPragma(name, expected string) error {
	var value string
	query := fmt.Sprintf("PRAGMA %s", name)
	if err := s.db.QueryRow(query).Scan(&value); err != nil {
		return fmt.Errorf("failed to query %s: %w", name, err)
	}
	if value != expected {
		return fmt.Errorf("%s = %q, expected %q", name, value, expected)
	}
	return nil
}
