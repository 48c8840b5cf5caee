package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/baselines/internal/fixture"
)

// SeedOptions holds flags for the seed command.
type SeedOptions struct {
	*RootOptions
	Database string
}

// SeedResult is the output of the seed command.
type SeedResult struct {
	Appended int `json:"appended"`
}

// NewSeedCommand creates the seed command.
func NewSeedCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SeedOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "seed <file.yaml>",
		Short: "Append entries from a YAML fixture to the log",
		Long: `Append the entries of a YAML fixture file to the log in one unit of work.

Entries without a global_count are assigned the next one. If any entry is
rejected nothing is appended.

Examples:
  baselines seed --db ./log.db ./fixtures/concurrent.yaml`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeed(opts, cmd, args[0])
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (default from config)")

	return cmd
}

func runSeed(opts *SeedOptions, cmd *cobra.Command, path string) error {
	file, err := fixture.Load(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load fixture", err)
	}
	entries, err := file.LogEntries()
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid fixture", err)
	}

	e, err := createEnv(opts.RootOptions, opts.Database)
	if err != nil {
		return err
	}
	defer e.Close()

	if err := e.store.Append(cmd.Context(), entries...); err != nil {
		return WrapExitError(ExitFailure, "failed to append entries", err)
	}

	result := SeedResult{Appended: len(entries)}
	return opts.formatter(cmd).Success(result, func(w io.Writer) {
		fmt.Fprintf(w, "Appended %d entries from %s.\n", result.Appended, path)
	})
}
