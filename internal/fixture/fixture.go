// Package fixture reads modification log entries described in YAML and
// renders log entries as canonical documents.
//
// A fixture file lists entries:
//
//	entries:
//	  - id: B1
//	    baseline: true
//	    global_count: 10
//	    timestamp: 2024-03-01T09:00:00Z
//	    replica: S1
//	    clock: {S1: 5, S2: 3}
//	    schema_version: v1
//	    constructed_for: S1
//	    records:
//	      - global_id: task-1
//	        properties:
//	          title: {kind: set, value: "Write report"}
//	          tags: {kind: insert, value: [urgent]}
//	          due: {kind: delete}
//
// The seed command and the scenario harness share this format.
package fixture

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/roach88/baselines/internal/ir"
	"github.com/roach88/baselines/internal/vclock"
)

// File is a parsed fixture file.
type File struct {
	Entries []Entry `yaml:"entries"`
}

// Entry describes one log entry.
type Entry struct {
	ID             string            `yaml:"id"`
	Baseline       bool              `yaml:"baseline,omitempty"`
	GlobalCount    int64             `yaml:"global_count,omitempty"`
	Timestamp      time.Time         `yaml:"timestamp,omitempty"`
	Replica        string            `yaml:"replica"`
	Clock          map[string]uint64 `yaml:"clock,omitempty"`
	SchemaVersion  string            `yaml:"schema_version,omitempty"`
	ConstructedFor string            `yaml:"constructed_for,omitempty"`
	Records        []Record          `yaml:"records,omitempty"`
}

// Record describes one change record.
type Record struct {
	GlobalID   string              `yaml:"global_id"`
	Properties map[string]Property `yaml:"properties"`
}

// Property describes one property change. Value is any YAML scalar,
// sequence or mapping without floats.
type Property struct {
	Kind  string `yaml:"kind"`
	Value any    `yaml:"value,omitempty"`
}

// Load reads and parses a fixture file.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read fixture file: %w", err)
	}
	f, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}

// Parse parses fixture YAML, rejecting unknown fields.
func Parse(data []byte) (*File, error) {
	var f File
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&f); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	return &f, nil
}

// LogEntries converts every entry, in file order.
func (f *File) LogEntries() ([]*ir.LogEntry, error) {
	out := make([]*ir.LogEntry, 0, len(f.Entries))
	for i, e := range f.Entries {
		le, err := e.LogEntry()
		if err != nil {
			return nil, fmt.Errorf("entries[%d]: %w", i, err)
		}
		out = append(out, le)
	}
	return out, nil
}

// LogEntry converts the description to a log entry owning its records.
func (e Entry) LogEntry() (*ir.LogEntry, error) {
	if e.ID == "" {
		return nil, fmt.Errorf("id is required")
	}
	if e.Replica == "" {
		return nil, fmt.Errorf("entry %s: replica is required", e.ID)
	}

	le := &ir.LogEntry{
		ID:             e.ID,
		IsBaseline:     e.Baseline,
		GlobalCount:    e.GlobalCount,
		Timestamp:      e.Timestamp.UTC(),
		Replica:        ir.ReplicaID(e.Replica),
		Clock:          vclock.Clock(e.Clock).Clone(),
		SchemaVersion:  e.SchemaVersion,
		ConstructedFor: ir.ReplicaID(e.ConstructedFor),
	}

	for _, r := range e.Records {
		rec := &ir.ChangeRecord{
			GlobalID:   ir.GlobalID(r.GlobalID),
			Properties: make(map[string]ir.PropertyChange, len(r.Properties)),
		}
		for name, p := range r.Properties {
			change, err := p.change()
			if err != nil {
				return nil, fmt.Errorf("entry %s: record %s: property %s: %w", e.ID, r.GlobalID, name, err)
			}
			rec.Properties[name] = change
		}
		if err := le.Adopt(rec); err != nil {
			return nil, fmt.Errorf("entry %s: %w", e.ID, err)
		}
	}
	return le, nil
}

func (p Property) change() (ir.PropertyChange, error) {
	kind, err := ir.ParseChangeKind(p.Kind)
	if err != nil {
		return ir.PropertyChange{}, err
	}
	change := ir.PropertyChange{Kind: kind}
	if p.Value != nil {
		v, err := ir.FromAny(p.Value)
		if err != nil {
			return ir.PropertyChange{}, err
		}
		change.Value = v
	}
	return change, nil
}

// Document renders a log entry with every stored field as a canonical
// JSON object. Records are sorted by global ID.
func Document(e *ir.LogEntry) ir.Object {
	doc := ir.Object{
		"id":             ir.String(e.ID),
		"baseline":       ir.Bool(e.IsBaseline),
		"global_count":   ir.Int(e.GlobalCount),
		"timestamp":      ir.String(e.Timestamp.UTC().Format(time.RFC3339Nano)),
		"replica":        ir.String(e.Replica),
		"clock":          ir.ClockObject(e.Clock),
		"schema_version": ir.String(e.SchemaVersion),
		"records":        ir.RecordsArray(e.Records),
	}
	if e.ConstructedFor != "" {
		doc["constructed_for"] = ir.String(e.ConstructedFor)
	}
	return doc
}

// Documents renders entries in order.
func Documents(entries []*ir.LogEntry) ir.Array {
	arr := make(ir.Array, len(entries))
	for i, e := range entries {
		arr[i] = Document(e)
	}
	return arr
}
