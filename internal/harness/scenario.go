package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/baselines/internal/config"
	"github.com/roach88/baselines/internal/consolidate"
	"github.com/roach88/baselines/internal/fixture"
)

// Scenario defines one consolidation run and its expected outcome.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Schema declares the versions the run accepts.
	// Defaults to current config.DefaultSchemaVersion and nothing else.
	Schema SchemaSpec `yaml:"schema,omitempty"`

	// MergedIDs are handed out in order as merge target IDs. Once used up,
	// IDs continue as "merged-<n>".
	MergedIDs []string `yaml:"merged_ids,omitempty"`

	// Entries is the log before the run, appended in order.
	Entries []fixture.Entry `yaml:"entries"`

	// Expect describes the outcome of the run.
	Expect Expectation `yaml:"expect"`

	// Abandoned lists abandonment checks evaluated against the log before
	// the run.
	Abandoned []AbandonedCheck `yaml:"abandoned,omitempty"`
}

// SchemaSpec declares schema versions.
type SchemaSpec struct {
	Current string   `yaml:"current"`
	Known   []string `yaml:"known,omitempty"`
}

// Expectation is the expected outcome of a run. Only the specified parts
// are checked.
type Expectation struct {
	// Error is the expected error kind. Empty means the run must succeed.
	Error string `yaml:"error,omitempty"`

	// Report is the expected run report.
	Report *ExpectedReport `yaml:"report,omitempty"`

	// Baselines are the IDs of the baselines left after the run, most
	// recent first. nil skips the check; use [] for an empty log.
	Baselines []string `yaml:"baselines"`

	// States is the exact sequence of states the run enters.
	States []string `yaml:"states,omitempty"`
}

// ExpectedReport mirrors consolidate.Report.
type ExpectedReport struct {
	Fetched    int    `yaml:"fetched"`
	Eliminated int    `yaml:"eliminated"`
	Merged     int    `yaml:"merged"`
	Survivor   string `yaml:"survivor,omitempty"`
	Moved      int    `yaml:"moved"`
	Filled     int    `yaml:"filled"`
}

func (r ExpectedReport) report() consolidate.Report {
	return consolidate.Report{
		Fetched:    r.Fetched,
		Eliminated: r.Eliminated,
		Merged:     r.Merged,
		Survivor:   r.Survivor,
		Moved:      r.Moved,
		Filled:     r.Filled,
	}
}

// AbandonedCheck is the expected abandonment verdict for one replica.
type AbandonedCheck struct {
	Replica   string `yaml:"replica"`
	Abandoned bool   `yaml:"abandoned"`
}

var errorKinds = []consolidate.ErrorKind{
	consolidate.KindQuery,
	consolidate.KindUnknownSchemaVersion,
	consolidate.KindPersist,
	consolidate.KindInvalidInput,
}

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses and validates a scenario document.
func ParseScenario(data []byte) (*Scenario, error) {
	// Strict field validation catches typos like "expects:" vs "expect:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if scenario.Schema.Current == "" {
		scenario.Schema.Current = config.DefaultSchemaVersion
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	seen := make(map[string]bool, len(s.Entries))
	for i, e := range s.Entries {
		if e.ID == "" {
			return fmt.Errorf("entries[%d]: id is required", i)
		}
		if seen[e.ID] {
			return fmt.Errorf("entries[%d]: duplicate id %q", i, e.ID)
		}
		seen[e.ID] = true
		// Append would stamp the current time.
		if e.Timestamp.IsZero() {
			return fmt.Errorf("entries[%d]: timestamp is required", i)
		}
	}

	if s.Expect.Error != "" && !knownErrorKind(s.Expect.Error) {
		return fmt.Errorf("expect.error: unknown error kind %q", s.Expect.Error)
	}
	if s.Expect.Error != "" && s.Expect.Report != nil {
		return fmt.Errorf("expect: error and report are mutually exclusive")
	}

	for _, st := range s.Expect.States {
		if _, ok := consolidate.ParseState(st); !ok {
			return fmt.Errorf("expect.states: unknown state %q", st)
		}
	}

	for i, c := range s.Abandoned {
		if c.Replica == "" {
			return fmt.Errorf("abandoned[%d]: replica is required", i)
		}
	}

	return nil
}

func knownErrorKind(kind string) bool {
	for _, k := range errorKinds {
		if string(k) == kind {
			return true
		}
	}
	return false
}
