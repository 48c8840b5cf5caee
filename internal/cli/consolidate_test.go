package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/baselines/internal/consolidate"
	"github.com/roach88/baselines/internal/ir"
	"github.com/roach88/baselines/internal/testutil"
)

// runConsolidateWith runs the consolidate command with a fixed identity.
func runConsolidateWith(t *testing.T, format, dbPath string, ids ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	cmd := &cobra.Command{}
	cmd.SetOut(buf)
	cmd.SetContext(context.Background())

	opts := &ConsolidateOptions{
		RootOptions: testRootOptions(format),
		Database:    dbPath,
		Identity:    testutil.NewFixedIdentity(ids...),
	}
	err := runConsolidate(opts, cmd)
	return buf.String(), err
}

func TestConsolidateEmptyDatabase(t *testing.T) {
	dbPath := seedDatabase(t, "")

	out, err := executeCommand(NewConsolidateCommand(testRootOptions("text")), "--db", dbPath)
	require.NoError(t, err)
	assert.Contains(t, out, "No baselines found")
}

func TestConsolidateConcurrentBaselines(t *testing.T) {
	dbPath := seedDatabase(t, "concurrent.yaml")

	out, err := runConsolidateWith(t, "text", dbPath, "merged-B")
	require.NoError(t, err)
	assert.Equal(t,
		"Fetched 3 baselines: eliminated 1 redundant, merged 1.\n"+
			"Consolidated baseline: merged-B\n"+
			"Moved 1 change records, filled 1 properties.\n",
		out)

	entries := readLog(t, dbPath)
	require.Equal(t, []string{"merged-B", "e1"}, entryIDs(entries))

	merged := entries[0]
	assert.True(t, merged.IsBaseline)
	assert.Equal(t, int64(10), merged.GlobalCount)
	assert.True(t, testutil.Epoch.Add(time.Second).Equal(merged.Timestamp), "timestamp %v", merged.Timestamp)
	assert.EqualValues(t, map[string]uint64{"S1": 5, "S2": 6}, merged.Clock)
	require.Len(t, merged.Records, 3)

	task1 := merged.Record("task-1")
	require.NotNil(t, task1)
	assert.Equal(t, ir.Set(ir.Bool(true)), task1.Properties["done"])
	assert.Equal(t, ir.Set(ir.String("Write report")), task1.Properties["title"])
	assert.NotNil(t, merged.Record("task-2"))
	assert.NotNil(t, merged.Record("task-3"))
}

func TestConsolidateJSONReport(t *testing.T) {
	dbPath := seedDatabase(t, "concurrent.yaml")

	out, err := runConsolidateWith(t, "json", dbPath, "merged-B")
	require.NoError(t, err)

	var resp struct {
		Status string             `json:"status"`
		Data   consolidate.Report `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, consolidate.Report{
		Fetched:    3,
		Eliminated: 1,
		Merged:     1,
		Survivor:   "merged-B",
		Moved:      1,
		Filled:     1,
	}, resp.Data)
}

func TestConsolidateTwiceIsNoop(t *testing.T) {
	dbPath := seedDatabase(t, "concurrent.yaml")

	_, err := runConsolidateWith(t, "text", dbPath, "merged-B")
	require.NoError(t, err)

	out, err := runConsolidateWith(t, "text", dbPath, "unused")
	require.NoError(t, err)
	assert.Equal(t, "Nothing to consolidate: merged-B is the only baseline.\n", out)
	assert.Equal(t, []string{"merged-B", "e1"}, entryIDs(readLog(t, dbPath)))
}

func TestConsolidateUnknownSchemaVersion(t *testing.T) {
	dbPath := seedDatabase(t, "unknown_version.yaml")

	out, err := runConsolidateWith(t, "json", dbPath)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.True(t, consolidate.IsUnknownSchemaVersionError(err))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, string(consolidate.KindUnknownSchemaVersion), resp.Error.Code)
	assert.Contains(t, resp.Error.Message, "v9")

	// Nothing was deleted.
	assert.Equal(t, []string{"B1", "B2"}, entryIDs(readLog(t, dbPath)))
}

func TestConsolidateRejectsArgs(t *testing.T) {
	_, err := executeCommand(NewConsolidateCommand(testRootOptions("text")), "extra")
	require.Error(t, err)
}

func TestConsolidateHelpText(t *testing.T) {
	cmd := NewConsolidateCommand(testRootOptions("text"))
	assert.Contains(t, cmd.Long, "Exit codes")
	assert.Contains(t, cmd.Long, "baselines consolidate --db")
}

func TestConsolidateMissingDatabase(t *testing.T) {
	_, err := runConsolidateWith(t, "text", filepath.Join(t.TempDir(), "typo.db"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "database not found")
}
