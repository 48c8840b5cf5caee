package harness

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/baselines/internal/fixture"
	"github.com/roach88/baselines/internal/ir"
)

// ExpectationError is returned when an expectation does not hold.
// It includes the final log to help debug the failure.
type ExpectationError struct {
	Check    string         // Which expectation failed
	Expected string         // Human-readable expected outcome
	Actual   string         // Human-readable actual outcome
	Log      []*ir.LogEntry // Final log for debugging context
}

// Error implements the error interface.
func (e *ExpectationError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Expectation failed: %s\n", e.Check)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	fmt.Fprintf(&buf, "\nFinal log:\n")
	for i, entry := range e.Log {
		kind := "entry"
		if entry.IsBaseline {
			kind = "baseline"
		}
		fmt.Fprintf(&buf, "  [%d] %s %s count=%d clock=%s records=%d\n",
			i+1, kind, entry.ID, entry.GlobalCount, entry.Clock, len(entry.Records))
	}

	return buf.String()
}

// EvaluateExpectations checks the result against the scenario and returns
// one message per failed expectation.
func EvaluateExpectations(result *Result, scenario *Scenario) []string {
	checks := []func(*Result, Expectation) error{
		checkError,
		checkReport,
		checkBaselines,
		checkStates,
		checkRecordOwnership,
	}

	var errs []string
	for _, check := range checks {
		if err := check(result, scenario.Expect); err != nil {
			errs = append(errs, err.Error())
		}
	}
	for _, c := range scenario.Abandoned {
		if err := checkAbandoned(result, c); err != nil {
			errs = append(errs, err.Error())
		}
	}
	return errs
}

func checkError(r *Result, exp Expectation) error {
	if r.ErrorKind == exp.Error {
		return nil
	}
	expected, actual := "success", "success"
	if exp.Error != "" {
		expected = "error " + exp.Error
	}
	if r.Err != nil {
		actual = fmt.Sprintf("error %s (%v)", r.ErrorKind, r.Err)
	}
	return &ExpectationError{Check: "error", Expected: expected, Actual: actual, Log: r.Log}
}

func checkReport(r *Result, exp Expectation) error {
	if exp.Report == nil {
		return nil
	}
	want := exp.Report.report()
	if r.Report == want {
		return nil
	}
	return &ExpectationError{
		Check:    "report",
		Expected: fmt.Sprintf("%+v", want),
		Actual:   fmt.Sprintf("%+v", r.Report),
		Log:      r.Log,
	}
}

func checkBaselines(r *Result, exp Expectation) error {
	if exp.Baselines == nil {
		return nil
	}
	got := r.Baselines()
	if slices.Equal(got, exp.Baselines) {
		return nil
	}
	return &ExpectationError{
		Check:    "baselines",
		Expected: fmt.Sprintf("%v", exp.Baselines),
		Actual:   fmt.Sprintf("%v", got),
		Log:      r.Log,
	}
}

func checkStates(r *Result, exp Expectation) error {
	if len(exp.States) == 0 {
		return nil
	}
	got := r.StateNames()
	if slices.Equal(got, exp.States) {
		return nil
	}
	return &ExpectationError{
		Check:    "states",
		Expected: strings.Join(exp.States, " -> "),
		Actual:   strings.Join(got, " -> "),
		Log:      r.Log,
	}
}

// checkRecordOwnership verifies that no object has a change record in more
// than one baseline once a run completes.
func checkRecordOwnership(r *Result, _ Expectation) error {
	if r.Err != nil {
		return nil
	}
	owners := make(map[ir.GlobalID]string)
	for _, e := range r.Log {
		if !e.IsBaseline {
			continue
		}
		for _, rec := range e.Records {
			if prev, ok := owners[rec.GlobalID]; ok {
				return &ExpectationError{
					Check:    "record ownership",
					Expected: fmt.Sprintf("one baseline record for %s", rec.GlobalID),
					Actual:   fmt.Sprintf("records in %s and %s", prev, e.ID),
					Log:      r.Log,
				}
			}
			owners[rec.GlobalID] = e.ID
		}
	}
	return nil
}

func checkAbandoned(r *Result, c AbandonedCheck) error {
	got := r.Abandoned[c.Replica]
	if got == c.Abandoned {
		return nil
	}
	return &ExpectationError{
		Check:    "abandoned " + c.Replica,
		Expected: fmt.Sprintf("%t", c.Abandoned),
		Actual:   fmt.Sprintf("%t", got),
		Log:      r.Log,
	}
}

// Snapshot renders the result as a canonical document: the outcome and
// the whole final log.
func Snapshot(name string, r *Result) ir.Object {
	states := make(ir.Array, len(r.States))
	for i, s := range r.States {
		states[i] = ir.String(s.String())
	}
	doc := ir.Object{
		"scenario": ir.String(name),
		"states":   states,
		"log":      fixture.Documents(r.Log),
	}
	if r.Err != nil {
		doc["error"] = ir.String(r.ErrorKind)
	} else {
		doc["report"] = ir.Object{
			"fetched":    ir.Int(r.Report.Fetched),
			"eliminated": ir.Int(r.Report.Eliminated),
			"merged":     ir.Int(r.Report.Merged),
			"survivor":   ir.String(r.Report.Survivor),
			"moved":      ir.Int(r.Report.Moved),
			"filled":     ir.Int(r.Report.Filled),
		}
	}
	return doc
}
