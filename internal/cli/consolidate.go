package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/baselines/internal/consolidate"
)

// ConsolidateOptions holds flags for the consolidate command.
type ConsolidateOptions struct {
	*RootOptions
	Database string

	// Identity allows overriding the merge target identity generator (for
	// testing). If nil, defaults to UUIDv7Identity.
	Identity consolidate.IdentityGenerator
}

// NewConsolidateCommand creates the consolidate command.
func NewConsolidateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ConsolidateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "consolidate",
		Short: "Eliminate redundant baselines and merge the rest",
		Long: `Consolidate the baselines of the log into one.

Baselines whose revision vector is dominated by, or identical to, another
baseline's are deleted and the deletion is committed. The remaining
concurrent baselines are merged into the most recent one.

Exit codes:
  0 - Consolidation completed
  1 - Consolidation failed (unknown schema version, commit failure)
  2 - Command error (database not found, etc.)

Examples:
  baselines consolidate --db ./log.db
  baselines consolidate --config ./baselines.yaml --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConsolidate(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (default from config)")

	return cmd
}

func runConsolidate(opts *ConsolidateOptions, cmd *cobra.Command) error {
	var sessionOpts []consolidate.SessionOption
	if opts.Identity != nil {
		sessionOpts = append(sessionOpts, consolidate.WithIdentity(opts.Identity))
	}
	e, err := openEnv(opts.RootOptions, opts.Database, sessionOpts...)
	if err != nil {
		return err
	}
	defer e.Close()

	out := opts.formatter(cmd)
	report, err := e.session.Run(cmd.Context())
	if err != nil {
		code := "CONSOLIDATION_FAILED"
		var ce *consolidate.Error
		if errors.As(err, &ce) {
			code = string(ce.Kind)
		}
		_ = out.Error(code, err.Error(), report)
		return WrapExitError(ExitFailure, "consolidation failed", err)
	}

	return out.Success(report, func(w io.Writer) {
		writeReport(w, report)
	})
}

func writeReport(w io.Writer, r consolidate.Report) {
	switch {
	case r.Fetched == 0:
		fmt.Fprintln(w, "No baselines found.")
		return
	case r.Eliminated == 0 && r.Merged == 0:
		fmt.Fprintf(w, "Nothing to consolidate: %s is the only baseline.\n", r.Survivor)
		return
	}

	fmt.Fprintf(w, "Fetched %d baselines: eliminated %d redundant, merged %d.\n", r.Fetched, r.Eliminated, r.Merged)
	fmt.Fprintf(w, "Consolidated baseline: %s\n", r.Survivor)
	if r.Merged > 0 {
		fmt.Fprintf(w, "Moved %d change records, filled %d properties.\n", r.Moved, r.Filled)
	}
}
