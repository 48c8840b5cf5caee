package ir

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/baselines/internal/vclock"
)

func newEntry(id string, records ...*ChangeRecord) *LogEntry {
	e := &LogEntry{ID: id, IsBaseline: true}
	for _, r := range records {
		r.Owner = id
		e.Records = append(e.Records, r)
	}
	return e
}

func TestMove_TransfersOwnership(t *testing.T) {
	from := newEntry("b1", &ChangeRecord{GlobalID: "obj-1"})
	to := newEntry("b2")

	owner, err := Move("obj-1", from, to)
	require.NoError(t, err)

	assert.Same(t, to, owner)
	assert.Nil(t, from.Record("obj-1"))
	rec := to.Record("obj-1")
	require.NotNil(t, rec)
	assert.Equal(t, "b2", rec.Owner)
	assert.NoError(t, from.Validate())
	assert.NoError(t, to.Validate())
}

func TestMove_RejectsDuplicate(t *testing.T) {
	from := newEntry("b1", &ChangeRecord{GlobalID: "obj-1"})
	to := newEntry("b2", &ChangeRecord{GlobalID: "obj-1"})

	_, err := Move("obj-1", from, to)
	require.Error(t, err)

	assert.NotNil(t, from.Record("obj-1"), "source must be untouched on error")
	assert.Len(t, to.Records, 1)
}

func TestMove_MissingRecord(t *testing.T) {
	_, err := Move("nope", newEntry("b1"), newEntry("b2"))
	assert.Error(t, err)
}

func TestAdopt_RejectsOwnedRecord(t *testing.T) {
	rec := &ChangeRecord{GlobalID: "obj-1", Owner: "b1"}
	err := newEntry("b2").Adopt(rec)
	assert.ErrorContains(t, err, "still owned by b1")
}

func TestSetID_RewritesOwners(t *testing.T) {
	e := newEntry("old", &ChangeRecord{GlobalID: "a"}, &ChangeRecord{GlobalID: "b"})
	e.SetID("new")
	for _, r := range e.Records {
		assert.Equal(t, "new", r.Owner)
	}
	assert.NoError(t, e.Validate())
}

func TestValidate_DuplicateGlobalID(t *testing.T) {
	e := newEntry("b1", &ChangeRecord{GlobalID: "a"}, &ChangeRecord{GlobalID: "a"})
	assert.ErrorContains(t, e.Validate(), "duplicate")
}

func TestValidate_ClockRevisionBound(t *testing.T) {
	e := newEntry("b1")
	e.Clock = vclock.Clock{"S1": math.MaxInt64}
	assert.NoError(t, e.Validate())

	e.Clock["S2"] = math.MaxInt64 + 1
	assert.ErrorContains(t, e.Validate(), "clock component S2")
}

func TestFillFrom_TargetWins(t *testing.T) {
	target := &ChangeRecord{GlobalID: "obj", Properties: map[string]PropertyChange{
		"p1": Set(String("target")),
		"p3": {Kind: ChangeUnset},
	}}
	incoming := &ChangeRecord{GlobalID: "obj", Properties: map[string]PropertyChange{
		"p1": Set(String("subordinate")),
		"p2": Set(Int(2)),
		"p3": {Kind: ChangeDelete},
		"p4": {Kind: ChangeUnset},
	}}

	filled := target.FillFrom(incoming)

	assert.Equal(t, 2, filled)
	assert.Equal(t, Set(String("target")), target.Properties["p1"])
	assert.Equal(t, Set(Int(2)), target.Properties["p2"])
	assert.Equal(t, ChangeDelete, target.Properties["p3"].Kind, "unset target property is filled")
	_, hasP4 := target.Properties["p4"]
	assert.False(t, hasP4, "unset incoming property carries nothing")
}

func TestFillFrom_NilProperties(t *testing.T) {
	target := &ChangeRecord{GlobalID: "obj"}
	target.FillFrom(&ChangeRecord{GlobalID: "obj", Properties: map[string]PropertyChange{"a": Set(Bool(true))}})
	assert.Equal(t, Set(Bool(true)), target.Properties["a"])
}

func TestChangeKind_RoundTrip(t *testing.T) {
	for _, k := range []ChangeKind{ChangeUnset, ChangeSet, ChangeInsert, ChangeDelete} {
		got, err := ParseChangeKind(k.String())
		require.NoError(t, err)
		assert.Equal(t, k, got)
	}
	_, err := ParseChangeKind("upsert")
	assert.Error(t, err)
}
