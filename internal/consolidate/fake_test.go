package consolidate

import (
	"context"
	"errors"
	"slices"

	"github.com/roach88/baselines/internal/ir"
)

// fakeLog is an in-memory LogStore with injectable failures. Jobs run
// synchronously on the scheduling goroutine.
type fakeLog struct {
	baselines []*ir.LogEntry

	scheduleErr error
	beginErr    error
	fetchErr    error
	fetchPanic  bool
	deleteErr   error
	replaceErr  error
	persistErrs map[int]error // by 1-based Persist call

	persists int
	deleted  []string
	replaced []string
}

func (l *fakeLog) Schedule(job func()) error {
	if l.scheduleErr != nil {
		return l.scheduleErr
	}
	job()
	return nil
}

func (l *fakeLog) Begin(ctx context.Context) (UnitOfWork, error) {
	if l.beginErr != nil {
		return nil, l.beginErr
	}
	return &fakeUnit{log: l}, nil
}

type fakeUnit struct {
	log    *fakeLog
	closed bool
}

func (u *fakeUnit) FetchBaselines(ctx context.Context) ([]*ir.LogEntry, error) {
	if u.log.fetchPanic {
		panic("corrupt row")
	}
	if u.log.fetchErr != nil {
		return nil, u.log.fetchErr
	}
	return SortByRecency(u.log.baselines), nil
}

func (u *fakeUnit) FetchBaselinesConstructedFor(ctx context.Context, replica ir.ReplicaID) ([]*ir.LogEntry, error) {
	if u.log.fetchErr != nil {
		return nil, u.log.fetchErr
	}
	var out []*ir.LogEntry
	for _, b := range SortByRecency(u.log.baselines) {
		if b.ConstructedFor == replica {
			out = append(out, b)
		}
	}
	return out, nil
}

func (u *fakeUnit) CountBaselines(ctx context.Context) (int, error) {
	if u.log.fetchErr != nil {
		return 0, u.log.fetchErr
	}
	return len(u.log.baselines), nil
}

func (u *fakeUnit) Delete(ctx context.Context, entries ...*ir.LogEntry) error {
	if u.log.deleteErr != nil {
		return u.log.deleteErr
	}
	for _, e := range entries {
		u.log.deleted = append(u.log.deleted, e.ID)
		u.log.baselines = slices.DeleteFunc(u.log.baselines, func(b *ir.LogEntry) bool { return b == e })
	}
	return nil
}

func (u *fakeUnit) Replace(ctx context.Context, oldID string, e *ir.LogEntry) error {
	if u.log.replaceErr != nil {
		return u.log.replaceErr
	}
	u.log.replaced = append(u.log.replaced, oldID)
	return nil
}

func (u *fakeUnit) Persist(ctx context.Context) error {
	if u.closed {
		return errors.New("closed")
	}
	u.log.persists++
	if err := u.log.persistErrs[u.log.persists]; err != nil {
		return err
	}
	return nil
}

func (u *fakeUnit) Rollback() error {
	u.closed = true
	return nil
}
