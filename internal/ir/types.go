package ir

import (
	"fmt"
	"math"
	"slices"
	"time"

	"github.com/roach88/baselines/internal/vclock"
)

// ReplicaID identifies one participating store or device.
type ReplicaID string

// GlobalID is the cross-replica identifier of one logical object.
// It is allocated elsewhere; this module only compares it.
type GlobalID string

// ChangeKind describes what a property change does to the property.
type ChangeKind int

const (
	// ChangeUnset means the record carries no value for the property.
	ChangeUnset ChangeKind = iota
	// ChangeSet replaces the property value.
	ChangeSet
	// ChangeInsert adds to a to-many property.
	ChangeInsert
	// ChangeDelete removes the property value.
	ChangeDelete
)

var changeKindNames = map[ChangeKind]string{
	ChangeUnset:  "unset",
	ChangeSet:    "set",
	ChangeInsert: "insert",
	ChangeDelete: "delete",
}

// String returns the persisted name of the kind.
func (k ChangeKind) String() string {
	if s, ok := changeKindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// ParseChangeKind is the inverse of ChangeKind.String.
func ParseChangeKind(s string) (ChangeKind, error) {
	for k, name := range changeKindNames {
		if name == s {
			return k, nil
		}
	}
	return ChangeUnset, fmt.Errorf("unknown change kind %q", s)
}

// PropertyChange is the latest known change of one property.
// Value is nil for ChangeUnset and ChangeDelete.
type PropertyChange struct {
	Kind  ChangeKind
	Value Value
}

// IsSet reports whether the change carries information.
func (p PropertyChange) IsSet() bool {
	return p.Kind != ChangeUnset
}

// Set is shorthand for a ChangeSet property change.
func Set(v Value) PropertyChange {
	return PropertyChange{Kind: ChangeSet, Value: v}
}

// ChangeRecord is the latest known state of one object's changed properties.
type ChangeRecord struct {
	GlobalID   GlobalID
	Owner      string // ID of the owning log entry
	Properties map[string]PropertyChange
}

// PropertyNames returns the record's property names, sorted.
func (r *ChangeRecord) PropertyNames() []string {
	names := make([]string, 0, len(r.Properties))
	for n := range r.Properties {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}

// FillFrom copies into r every property that is missing or unset on r but
// set on other. Properties r already holds are never overwritten.
// Returns the number of properties filled.
func (r *ChangeRecord) FillFrom(other *ChangeRecord) int {
	if r.Properties == nil {
		r.Properties = make(map[string]PropertyChange, len(other.Properties))
	}
	filled := 0
	for _, name := range other.PropertyNames() {
		incoming := other.Properties[name]
		if !incoming.IsSet() {
			continue
		}
		if r.Properties[name].IsSet() {
			continue
		}
		r.Properties[name] = incoming
		filled++
	}
	return filled
}

// LogEntry is one record of the append-only modification log.
type LogEntry struct {
	ID          string
	IsBaseline  bool
	GlobalCount int64 // process-wide total order index, not a clock
	Timestamp   time.Time
	Replica     ReplicaID
	Clock       vclock.Clock

	// SchemaVersion is the model version tag the entry was written with.
	SchemaVersion string

	// ConstructedFor names the replica whose store this baseline was built
	// to describe. Empty for ordinary entries.
	ConstructedFor ReplicaID

	// Records holds the owned change records, unique by GlobalID.
	Records []*ChangeRecord
}

// Record returns the change record for id, or nil.
func (e *LogEntry) Record(id GlobalID) *ChangeRecord {
	for _, r := range e.Records {
		if r.GlobalID == id {
			return r
		}
	}
	return nil
}

// Adopt makes e the owner of rec. It fails if e already owns a record for
// the same object or rec is still owned by another entry.
func (e *LogEntry) Adopt(rec *ChangeRecord) error {
	if rec.Owner != "" && rec.Owner != e.ID {
		return fmt.Errorf("adopt %s: record still owned by %s", rec.GlobalID, rec.Owner)
	}
	if e.Record(rec.GlobalID) != nil {
		return fmt.Errorf("adopt %s: entry %s already has a record for this object", rec.GlobalID, e.ID)
	}
	rec.Owner = e.ID
	e.Records = append(e.Records, rec)
	return nil
}

// Release removes the record for id from e and returns it unowned.
// Returns nil when e has no such record.
func (e *LogEntry) Release(id GlobalID) *ChangeRecord {
	i := slices.IndexFunc(e.Records, func(r *ChangeRecord) bool { return r.GlobalID == id })
	if i < 0 {
		return nil
	}
	rec := e.Records[i]
	e.Records = slices.Delete(e.Records, i, i+1)
	rec.Owner = ""
	return rec
}

// Move transfers ownership of the record for id from one entry to another
// and returns the new owner. On error neither entry is modified.
func Move(id GlobalID, from, to *LogEntry) (*LogEntry, error) {
	if from.Record(id) == nil {
		return nil, fmt.Errorf("move %s: entry %s has no such record", id, from.ID)
	}
	if to.Record(id) != nil {
		return nil, fmt.Errorf("move %s: entry %s already has a record for this object", id, to.ID)
	}
	rec := from.Release(id)
	if err := to.Adopt(rec); err != nil {
		return nil, fmt.Errorf("move %s: %w", id, err)
	}
	return to, nil
}

// SetID re-identifies the entry and rewrites the owner of its records.
func (e *LogEntry) SetID(id string) {
	e.ID = id
	for _, r := range e.Records {
		r.Owner = id
	}
}

// Validate checks the per-entry record invariants. Clock revisions must
// fit in an int64 so that canonical serialization round-trips them.
func (e *LogEntry) Validate() error {
	for id, rev := range e.Clock {
		if rev > math.MaxInt64 {
			return fmt.Errorf("entry %s: clock component %s revision %d exceeds %d", e.ID, id, rev, uint64(math.MaxInt64))
		}
	}
	seen := make(map[GlobalID]bool, len(e.Records))
	for _, r := range e.Records {
		if seen[r.GlobalID] {
			return fmt.Errorf("entry %s: duplicate change record for %s", e.ID, r.GlobalID)
		}
		seen[r.GlobalID] = true
		if r.Owner != e.ID {
			return fmt.Errorf("entry %s: record %s owned by %q", e.ID, r.GlobalID, r.Owner)
		}
	}
	return nil
}
