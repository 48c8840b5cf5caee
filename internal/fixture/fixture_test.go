package fixture

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/baselines/internal/ir"
)

func TestLoad(t *testing.T) {
	f, err := Load(filepath.Join("testdata", "log.yaml"))
	require.NoError(t, err)

	entries, err := f.LogEntries()
	require.NoError(t, err)
	require.Len(t, entries, 2)

	b := entries[0]
	assert.Equal(t, "B1", b.ID)
	assert.True(t, b.IsBaseline)
	assert.Equal(t, int64(10), b.GlobalCount)
	assert.Equal(t, time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC), b.Timestamp)
	assert.Equal(t, ir.ReplicaID("S1"), b.Replica)
	assert.Equal(t, "{S1:5,S2:3}", b.Clock.String())
	assert.Equal(t, "v1", b.SchemaVersion)
	assert.Equal(t, ir.ReplicaID("S1"), b.ConstructedFor)
	require.NoError(t, b.Validate())

	task := b.Record("task-1")
	require.NotNil(t, task)
	assert.Equal(t, "B1", task.Owner)
	assert.Equal(t, ir.Set(ir.String("Write report")), task.Properties["title"])
	assert.Equal(t, ir.ChangeInsert, task.Properties["tags"].Kind)
	assert.True(t, ir.Equal(ir.Array{ir.String("urgent"), ir.Int(2)}, task.Properties["tags"].Value))
	assert.Equal(t, ir.PropertyChange{Kind: ir.ChangeDelete}, task.Properties["due"])

	meta := b.Record("task-2").Properties["meta"].Value
	assert.True(t, ir.Equal(ir.Object{"owner": ir.String("ana"), "done": ir.Bool(false)}, meta))

	plain := entries[1]
	assert.False(t, plain.IsBaseline)
	assert.True(t, plain.Timestamp.IsZero())
	assert.Empty(t, plain.Records)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name:    "unknown field",
			yaml:    "entries:\n  - id: a\n    replica: S1\n    clok: {S1: 1}\n",
			wantErr: "field clok not found",
		},
		{
			name:    "missing id",
			yaml:    "entries:\n  - replica: S1\n",
			wantErr: "id is required",
		},
		{
			name:    "missing replica",
			yaml:    "entries:\n  - id: a\n",
			wantErr: "replica is required",
		},
		{
			name:    "unknown kind",
			yaml:    "entries:\n  - id: a\n    replica: S1\n    records:\n      - global_id: g\n        properties:\n          p: {kind: upsert}\n",
			wantErr: `unknown change kind "upsert"`,
		},
		{
			name:    "float value",
			yaml:    "entries:\n  - id: a\n    replica: S1\n    records:\n      - global_id: g\n        properties:\n          p: {kind: set, value: 1.5}\n",
			wantErr: "floats are not allowed",
		},
		{
			name:    "duplicate record",
			yaml:    "entries:\n  - id: a\n    replica: S1\n    records:\n      - global_id: g\n        properties: {}\n      - global_id: g\n        properties: {}\n",
			wantErr: "already has a record",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := Parse([]byte(tt.yaml))
			if err == nil {
				_, err = f.LogEntries()
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestDocument(t *testing.T) {
	e := &ir.LogEntry{
		ID:             "B1",
		IsBaseline:     true,
		GlobalCount:    3,
		Timestamp:      time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC),
		Replica:        "S1",
		Clock:          map[string]uint64{"S2": 1, "S1": 2},
		SchemaVersion:  "v1",
		ConstructedFor: "S1",
	}
	require.NoError(t, e.Adopt(&ir.ChangeRecord{
		GlobalID:   "g1",
		Properties: map[string]ir.PropertyChange{"name": ir.Set(ir.String("a"))},
	}))

	data, err := ir.MarshalCanonical(Document(e))
	require.NoError(t, err)
	assert.Equal(t,
		`{"baseline":true,"clock":{"S1":2,"S2":1},"constructed_for":"S1","global_count":3,"id":"B1",`+
			`"records":[{"global_id":"g1","properties":{"name":{"kind":"set","value":"a"}}}],`+
			`"replica":"S1","schema_version":"v1","timestamp":"2024-03-01T09:00:00Z"}`,
		string(data))

	e.ConstructedFor = ""
	assert.NotContains(t, Document(e), "constructed_for")
}
