package cli

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"github.com/roach88/baselines/internal/config"
	"github.com/roach88/baselines/internal/fixture"
	"github.com/roach88/baselines/internal/ir"
	"github.com/roach88/baselines/internal/store"
)

// seedDatabase creates a database in a temp dir holding the entries of
// the given testdata fixture. An empty fixture name creates an empty log.
func seedDatabase(t *testing.T, fixtureName string) string {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "log.db")

	st, err := store.Open(dbPath)
	require.NoError(t, err)
	defer st.Close()

	if fixtureName == "" {
		return dbPath
	}
	file, err := fixture.Load(filepath.Join("testdata", fixtureName))
	require.NoError(t, err)
	entries, err := file.LogEntries()
	require.NoError(t, err)
	require.NoError(t, st.Append(context.Background(), entries...))
	return dbPath
}

// readLog returns every entry of the database.
func readLog(t *testing.T, dbPath string) []*ir.LogEntry {
	t.Helper()
	st, err := store.Open(dbPath)
	require.NoError(t, err)
	defer st.Close()

	entries, err := st.ReadEntries(context.Background())
	require.NoError(t, err)
	return entries
}

func testRootOptions(format string) *RootOptions {
	return &RootOptions{Format: format, Config: config.Default()}
}

// executeCommand runs cmd with args and returns its stdout.
func executeCommand(cmd *cobra.Command, args ...string) (string, error) {
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func entryIDs(entries []*ir.LogEntry) []string {
	ids := make([]string, len(entries))
	for i, e := range entries {
		ids[i] = e.ID
	}
	return ids
}
