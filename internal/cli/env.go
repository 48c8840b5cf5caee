package cli

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"github.com/roach88/baselines/internal/config"
	"github.com/roach88/baselines/internal/consolidate"
	"github.com/roach88/baselines/internal/metrics"
	"github.com/roach88/baselines/internal/schema"
	"github.com/roach88/baselines/internal/store"
)

// env is everything a command needs to work on one log.
type env struct {
	cfg     *config.Config
	store   *store.Store
	session *consolidate.Session
	metrics *metrics.Metrics
}

// openEnv opens the existing log named by db, or by the config when db is
// empty. A missing database file is a command error.
func openEnv(opts *RootOptions, db string, sessionOpts ...consolidate.SessionOption) (*env, error) {
	return newEnv(opts, db, false, sessionOpts...)
}

// createEnv is openEnv for commands that write a new log.
func createEnv(opts *RootOptions, db string) (*env, error) {
	return newEnv(opts, db, true)
}

func newEnv(opts *RootOptions, db string, create bool, sessionOpts ...consolidate.SessionOption) (*env, error) {
	cfg, err := opts.config()
	if err != nil {
		return nil, err
	}
	if db == "" {
		db = cfg.Database
	}
	if !create {
		if err := checkDatabaseExists(db); err != nil {
			return nil, err
		}
	}

	registry, err := loadRegistry(cfg)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to load schema registry", err)
	}

	slog.Debug("opening database", "path", db)
	st, err := store.Open(db)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}

	m := metrics.New()
	sessionOpts = append([]consolidate.SessionOption{
		consolidate.WithMetrics(m),
		consolidate.WithLogger(slog.Default()),
	}, sessionOpts...)

	return &env{
		cfg:     cfg,
		store:   st,
		session: consolidate.NewSession(consolidate.SQLiteLog(st), registry, sessionOpts...),
		metrics: m,
	}, nil
}

// checkDatabaseExists keeps sqlite from creating an empty log when the path
// is mistyped. In-memory and URI names are passed through.
func checkDatabaseExists(db string) error {
	if db == ":memory:" || strings.HasPrefix(db, "file:") {
		return nil
	}
	_, err := os.Stat(db)
	if errors.Is(err, fs.ErrNotExist) {
		return NewExitError(ExitCommandError, "database not found: "+db)
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	return nil
}

func loadRegistry(cfg *config.Config) (*schema.Registry, error) {
	if cfg.SchemaFile == "" {
		return schema.Static(config.DefaultSchemaVersion), nil
	}
	return schema.Load(cfg.SchemaFile)
}

// Close writes the metrics textfile, if configured, and closes the log.
func (e *env) Close() {
	if e.cfg.MetricsFile != "" {
		if err := e.metrics.WriteTextfile(e.cfg.MetricsFile); err != nil {
			slog.Error("error writing metrics", "error", err)
		}
	}
	if err := e.store.Close(); err != nil {
		slog.Error("error closing database", "error", err)
	}
}
