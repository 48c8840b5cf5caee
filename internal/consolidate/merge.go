package consolidate

import (
	"fmt"
	"slices"

	"github.com/roach88/baselines/internal/ir"
	"github.com/roach88/baselines/internal/vclock"
)

// MergeResult describes a finished merge.
type MergeResult struct {
	// Target is the consolidated baseline. With a single survivor it is
	// that survivor, unchanged.
	Target *ir.LogEntry

	// ReplacedID is the ID Target was stored under before the merge.
	ReplacedID string

	// MergedAway are the other survivors, now holding no change records.
	MergedAway []*ir.LogEntry

	// Moved counts records whose ownership moved into Target.
	Moved int

	// Filled counts properties copied into records Target already held.
	Filled int
}

// Changed reports whether the merge touched anything.
func (r MergeResult) Changed() bool {
	return len(r.MergedAway) > 0
}

// Merge folds survivors, ordered most recent first, into survivors[0].
//
// The target gets a fresh ID and timestamp from identity, the given schema
// version, the least global count among the survivors and the
// component-wise maximum of their clocks. Then, survivor by survivor in
// the given order, each change record either moves into the target (the
// target has no record for that object) or fills the properties the
// target's record leaves unset. Target values always win.
//
// Returns ErrNoSurvivors for an empty input.
func Merge(survivors []*ir.LogEntry, identity IdentityGenerator, schemaVersion string) (MergeResult, error) {
	if len(survivors) == 0 {
		return MergeResult{}, ErrNoSurvivors
	}
	target := survivors[0]
	res := MergeResult{Target: target, ReplacedID: target.ID}
	if len(survivors) == 1 {
		return res, nil
	}

	clocks := make([]vclock.Clock, 0, len(survivors))
	minCount := target.GlobalCount
	for _, s := range survivors {
		clocks = append(clocks, s.Clock)
		minCount = min(minCount, s.GlobalCount)
	}

	target.SetID(identity.NewID())
	target.Timestamp = identity.Now()
	target.SchemaVersion = schemaVersion
	target.GlobalCount = minCount
	target.Clock = vclock.Max(clocks...)

	byObject := make(map[ir.GlobalID]*ir.ChangeRecord, len(target.Records))
	for _, r := range target.Records {
		byObject[r.GlobalID] = r
	}

	for _, other := range survivors[1:] {
		ids := make([]ir.GlobalID, 0, len(other.Records))
		for _, r := range other.Records {
			ids = append(ids, r.GlobalID)
		}
		slices.Sort(ids)

		for _, id := range ids {
			if existing, ok := byObject[id]; ok {
				incoming := other.Release(id)
				res.Filled += existing.FillFrom(incoming)
				continue
			}
			owner, err := ir.Move(id, other, target)
			if err != nil {
				return MergeResult{}, fmt.Errorf("merge %s into %s: %w", other.ID, target.ID, err)
			}
			byObject[id] = owner.Record(id)
			res.Moved++
		}
		res.MergedAway = append(res.MergedAway, other)
	}
	return res, nil
}
