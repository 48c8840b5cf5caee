package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeedAppendsEntries(t *testing.T) {
	dbPath := seedDatabase(t, "")

	out, err := executeCommand(NewSeedCommand(testRootOptions("text")), "--db", dbPath, filepath.Join("testdata", "concurrent.yaml"))
	require.NoError(t, err)
	assert.Contains(t, out, "Appended 4 entries")

	assert.Equal(t, []string{"B3", "B1", "B2", "e1"}, entryIDs(readLog(t, dbPath)))
}

func TestSeedCreatesDatabase(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "new.db")

	_, err := executeCommand(NewSeedCommand(testRootOptions("text")), "--db", dbPath, filepath.Join("testdata", "concurrent.yaml"))
	require.NoError(t, err)
	assert.Len(t, readLog(t, dbPath), 4)
}

func TestSeedDuplicateIsAtomic(t *testing.T) {
	dbPath := seedDatabase(t, "abandoned.yaml")

	dir := t.TempDir()
	path := filepath.Join(dir, "dup.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`entries:
  - id: X1
    replica: S3
    global_count: 20
  - id: R1
    replica: S1
    global_count: 21
`), 0o644))

	_, err := executeCommand(NewSeedCommand(testRootOptions("text")), "--db", dbPath, path)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	assert.Equal(t, []string{"R1", "R2"}, entryIDs(readLog(t, dbPath)))
}

func TestSeedMissingFile(t *testing.T) {
	dbPath := seedDatabase(t, "")

	_, err := executeCommand(NewSeedCommand(testRootOptions("text")), "--db", dbPath, "does-not-exist.yaml")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestSeedInvalidFixture(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("entries:\n  - replica: S1\n"), 0o644))

	_, err := executeCommand(NewSeedCommand(testRootOptions("text")), "--db", filepath.Join(t.TempDir(), "log.db"), path)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "id is required")
}

func TestSeedRequiresFileArgument(t *testing.T) {
	_, err := executeCommand(NewSeedCommand(testRootOptions("text")))
	require.Error(t, err)
}
