package consolidate

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/roach88/baselines/internal/ir"
	"github.com/roach88/baselines/internal/metrics"
	"github.com/roach88/baselines/internal/workqueue"
)

// Report summarizes a consolidation run.
type Report struct {
	Fetched    int    `json:"fetched"`
	Eliminated int    `json:"eliminated"`
	Merged     int    `json:"merged"`
	Survivor   string `json:"survivor,omitempty"`
	Moved      int    `json:"moved"`
	Filled     int    `json:"filled"`
}

// Session carries everything a consolidation needs: the log, the current
// schema, the identity generator for merge targets, and the logger and
// metrics of the caller.
//
// A Session holds no per-run state. Runs are serialized by the log
// store's work context; two runs against the same log through different
// work contexts are not supported.
type Session struct {
	log      LogStore
	schema   VersionChecker
	identity IdentityGenerator
	logger   *slog.Logger
	metrics  *metrics.Metrics
	observer Observer
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithIdentity sets the generator used to re-identify merge targets.
// Default: UUIDv7Identity.
func WithIdentity(g IdentityGenerator) SessionOption {
	return func(s *Session) { s.identity = g }
}

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) SessionOption {
	return func(s *Session) { s.logger = l }
}

// WithMetrics records run metrics. Default: none.
func WithMetrics(m *metrics.Metrics) SessionOption {
	return func(s *Session) { s.metrics = m }
}

// WithObserver registers a hook called with every state a run enters.
func WithObserver(o Observer) SessionOption {
	return func(s *Session) { s.observer = o }
}

// NewSession creates a session over log, checking baselines against schema.
func NewSession(log LogStore, schema VersionChecker, opts ...SessionOption) *Session {
	s := &Session{
		log:      log,
		schema:   schema,
		identity: UUIDv7Identity{},
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NeedsConsolidation reports whether the log holds more than one baseline.
func (s *Session) NeedsConsolidation(ctx context.Context) (bool, error) {
	var n int
	err := s.read(ctx, func(ctx context.Context, uow UnitOfWork) error {
		var err error
		n, err = uow.CountBaselines(ctx)
		return err
	})
	if err != nil {
		return false, err
	}
	return n > 1, nil
}

// IsPersistentStoreAbandoned reports whether replica appears to have been
// reset without committing new work since an earlier reconstruction.
// See Abandoned.
func (s *Session) IsPersistentStoreAbandoned(ctx context.Context, replica ir.ReplicaID) (bool, error) {
	var baselines []*ir.LogEntry
	err := s.read(ctx, func(ctx context.Context, uow UnitOfWork) error {
		var err error
		baselines, err = uow.FetchBaselinesConstructedFor(ctx, replica)
		return err
	})
	if err != nil {
		return false, err
	}
	return Abandoned(replica, baselines), nil
}

// Consolidate runs the pipeline on the log's work context and calls
// completion exactly once, on dispatcher, with nil or the terminal error.
// A nil dispatcher delivers on a new goroutine.
//
// Consolidate does not block. Once started a run is not cancelled by ctx.
func (s *Session) Consolidate(ctx context.Context, dispatcher workqueue.Dispatcher, completion func(error)) {
	s.consolidate(ctx, dispatcher, func(_ Report, err error) {
		if completion != nil {
			completion(err)
		}
	})
}

// Run performs a consolidation and waits for it. The returned Report is
// valid up to the step that failed.
func (s *Session) Run(ctx context.Context) (Report, error) {
	type result struct {
		report Report
		err    error
	}
	ch := make(chan result, 1)
	s.consolidate(ctx, workqueue.Inline, func(r Report, err error) {
		ch <- result{r, err}
	})

	select {
	case res := <-ch:
		return res.report, res.err
	case <-ctx.Done():
		return Report{}, ctx.Err()
	}
}

func (s *Session) consolidate(ctx context.Context, dispatcher workqueue.Dispatcher, done func(Report, error)) {
	if dispatcher == nil {
		dispatcher = workqueue.Detached
	}
	var once sync.Once
	complete := func(r Report, err error) {
		once.Do(func() {
			dispatcher.Dispatch(func() { done(r, err) })
		})
	}

	ctx = context.WithoutCancel(ctx)
	err := s.log.Schedule(func() {
		complete(s.run(ctx))
	})
	if err != nil {
		s.logger.Error("consolidation not scheduled", "error", err)
		s.enter(StateFailed)
		s.metrics.ObserveRun(metrics.OutcomeFailed, 0)
		complete(Report{}, &Error{
			Kind:    KindQuery,
			Step:    StateIdle,
			Message: "schedule consolidation",
			Err:     err,
		})
	}
}

// run executes one consolidation. Must be called on the work context.
func (s *Session) run(ctx context.Context) (report Report, err error) {
	start := time.Now()
	s.logger.Info("consolidation started")
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("consolidation panicked: %v", p)
		}
		outcome := metrics.OutcomeCompleted
		if err != nil {
			outcome = metrics.OutcomeFailed
			s.enter(StateFailed)
			s.logger.Error("consolidation failed", "error", err)
		} else {
			s.enter(StateCompleted)
			s.logger.Info("consolidation completed",
				"fetched", report.Fetched,
				"eliminated", report.Eliminated,
				"merged", report.Merged,
				"survivor", report.Survivor,
			)
		}
		s.metrics.ObserveRun(outcome, time.Since(start))
	}()

	s.enter(StateFetching)
	uow, err := s.log.Begin(ctx)
	if err != nil {
		return report, &Error{Kind: KindQuery, Step: StateFetching, Message: "begin unit of work", Err: err}
	}
	defer uow.Rollback()

	baselines, err := uow.FetchBaselines(ctx)
	if err != nil {
		return report, &Error{Kind: KindQuery, Step: StateFetching, Message: "fetch baselines", Err: err}
	}
	report.Fetched = len(baselines)

	s.enter(StateCheckingCompatibility)
	if !s.schema.CheckVersionsKnown(baselines) {
		return report, &Error{
			Kind:    KindUnknownSchemaVersion,
			Step:    StateCheckingCompatibility,
			Message: unknownVersionsMessage(s.schema, baselines),
		}
	}

	s.enter(StateDetectingRedundancy)
	red := DetectRedundant(baselines)

	s.enter(StateDeletingRedundant)
	if len(red.Eliminated) > 0 {
		if err := uow.Delete(ctx, red.Eliminated...); err != nil {
			return report, &Error{Kind: KindPersist, Step: StateDeletingRedundant, Message: "delete redundant baselines", Err: err}
		}
	}

	s.enter(StatePersisting1)
	if err := uow.Persist(ctx); err != nil {
		return report, &Error{Kind: KindPersist, Step: StatePersisting1, Message: "persist redundancy elimination", Err: err}
	}
	report.Eliminated = len(red.Eliminated)
	s.metrics.AddEliminated(report.Eliminated)

	s.enter(StateSelectingSurvivors)
	if len(red.Survivors) == 0 {
		return report, nil
	}

	s.enter(StateMerging)
	merged, err := Merge(red.Survivors, s.identity, s.schema.Current())
	if err != nil {
		return report, &Error{Kind: KindInvalidInput, Step: StateMerging, Message: "merge survivors", Err: err}
	}
	report.Survivor = merged.Target.ID

	s.enter(StateDeletingMergedAway)
	if !merged.Changed() {
		return report, nil
	}
	if err := uow.Replace(ctx, merged.ReplacedID, merged.Target); err != nil {
		return report, &Error{Kind: KindPersist, Step: StateDeletingMergedAway, Message: "save merge target", Err: err}
	}
	if err := uow.Delete(ctx, merged.MergedAway...); err != nil {
		return report, &Error{Kind: KindPersist, Step: StateDeletingMergedAway, Message: "delete merged baselines", Err: err}
	}

	s.enter(StatePersisting2)
	if err := uow.Persist(ctx); err != nil {
		return report, &Error{Kind: KindPersist, Step: StatePersisting2, Message: "persist merge", Err: err}
	}
	report.Merged = len(merged.MergedAway)
	report.Moved = merged.Moved
	report.Filled = merged.Filled
	s.metrics.AddMerge(report.Merged, report.Moved, report.Filled)
	return report, nil
}

// read runs fn in a unit of work on the work context and waits for it.
// The unit of work is always rolled back.
func (s *Session) read(ctx context.Context, fn func(ctx context.Context, uow UnitOfWork) error) error {
	errCh := make(chan error, 1)
	err := s.log.Schedule(func() {
		uow, err := s.log.Begin(ctx)
		if err != nil {
			errCh <- &Error{Kind: KindQuery, Step: StateIdle, Message: "begin unit of work", Err: err}
			return
		}
		defer uow.Rollback()
		if err := fn(ctx, uow); err != nil {
			errCh <- &Error{Kind: KindQuery, Step: StateIdle, Message: "query log", Err: err}
			return
		}
		errCh <- nil
	})
	if err != nil {
		return &Error{Kind: KindQuery, Step: StateIdle, Message: "schedule query", Err: err}
	}

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Session) enter(state State) {
	s.logger.Debug("consolidation state", "state", state.String())
	if s.observer != nil {
		s.observer(state)
	}
}

func unknownVersionsMessage(schema VersionChecker, baselines []*ir.LogEntry) string {
	lister, ok := schema.(interface {
		Unknown(entries []*ir.LogEntry) []string
	})
	if !ok {
		return fmt.Sprintf("baselines carry schema versions unknown to %s", schema.Current())
	}
	return fmt.Sprintf("baselines carry schema versions unknown to %s: %v", schema.Current(), lister.Unknown(baselines))
}
