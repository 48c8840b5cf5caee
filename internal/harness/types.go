package harness

import (
	"github.com/roach88/baselines/internal/consolidate"
	"github.com/roach88/baselines/internal/ir"
)

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass indicates overall test success.
	// True if every expectation matched.
	Pass bool

	// Report is the run report. Valid up to the step that failed.
	Report consolidate.Report

	// ErrorKind is the kind of the run's error, or empty on success.
	// An error without a kind is recorded as "UNCLASSIFIED".
	ErrorKind string

	// Err is the run's error.
	Err error

	// States are the states the run entered, in order.
	States []consolidate.State

	// Log is every entry left in the log after the run, in global count
	// order.
	Log []*ir.LogEntry

	// Abandoned holds the abandonment verdicts taken before the run,
	// by replica.
	Abandoned map[string]bool

	// Errors contains validation error messages.
	// Empty if Pass is true.
	Errors []string
}

// NewResult creates a new passing result.
// Used as the starting point for test execution.
func NewResult() *Result {
	return &Result{
		Pass:      true,
		States:    []consolidate.State{},
		Abandoned: make(map[string]bool),
		Errors:    []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// Baselines returns the IDs of the baselines left in the log, most recent
// first.
func (r *Result) Baselines() []string {
	var baselines []*ir.LogEntry
	for _, e := range r.Log {
		if e.IsBaseline {
			baselines = append(baselines, e)
		}
	}
	ids := []string{}
	for _, b := range consolidate.SortByRecency(baselines) {
		ids = append(ids, b.ID)
	}
	return ids
}

// StateNames returns the entered states by name.
func (r *Result) StateNames() []string {
	names := make([]string, len(r.States))
	for i, s := range r.States {
		names[i] = s.String()
	}
	return names
}
