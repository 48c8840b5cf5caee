package consolidate

import (
	"time"

	"github.com/roach88/baselines/internal/ir"
	"github.com/roach88/baselines/internal/vclock"
)

var t0 = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

// baseline builds a baseline entry owning the given records.
func baseline(id string, count int64, clock vclock.Clock, records ...*ir.ChangeRecord) *ir.LogEntry {
	e := &ir.LogEntry{
		ID:            id,
		IsBaseline:    true,
		GlobalCount:   count,
		Timestamp:     t0.Add(time.Duration(count) * time.Second),
		Replica:       "S1",
		Clock:         clock,
		SchemaVersion: "v1",
	}
	for _, r := range records {
		r.Owner = id
		e.Records = append(e.Records, r)
	}
	return e
}

// record builds an unowned change record with string-valued properties
// given as name, value pairs.
func record(gid string, kv ...string) *ir.ChangeRecord {
	r := &ir.ChangeRecord{
		GlobalID:   ir.GlobalID(gid),
		Properties: map[string]ir.PropertyChange{},
	}
	for i := 0; i+1 < len(kv); i += 2 {
		r.Properties[kv[i]] = ir.Set(ir.String(kv[i+1]))
	}
	return r
}

func ids(entries []*ir.LogEntry) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.ID)
	}
	return out
}
