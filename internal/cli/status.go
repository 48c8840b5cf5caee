package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/baselines/internal/store"
)

// StatusOptions holds flags for the status command.
type StatusOptions struct {
	*RootOptions
	Database string
}

// StatusResult is the output of the status command.
type StatusResult struct {
	Baselines          int  `json:"baselines"`
	NeedsConsolidation bool `json:"needs_consolidation"`
}

// NewStatusCommand creates the status command.
func NewStatusCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &StatusOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Report whether the log needs consolidation",
		Long: `Report the number of baselines in the log and whether more than one
exists, in which case the log needs consolidation.

Examples:
  baselines status --db ./log.db`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (default from config)")

	return cmd
}

func runStatus(opts *StatusOptions, cmd *cobra.Command) error {
	e, err := openEnv(opts.RootOptions, opts.Database)
	if err != nil {
		return err
	}
	defer e.Close()

	ctx := cmd.Context()
	var result StatusResult
	err = e.store.Perform(ctx, func(ctx context.Context, tx *store.Tx) error {
		n, err := tx.CountBaselines(ctx)
		result.Baselines = n
		return err
	})
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to count baselines", err)
	}
	result.NeedsConsolidation, err = e.session.NeedsConsolidation(ctx)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to query log", err)
	}

	return opts.formatter(cmd).Success(result, func(w io.Writer) {
		noun := "baselines"
		if result.Baselines == 1 {
			noun = "baseline"
		}
		fmt.Fprintf(w, "%d %s in log.\n", result.Baselines, noun)
		if result.NeedsConsolidation {
			fmt.Fprintln(w, "Consolidation needed.")
		} else {
			fmt.Fprintln(w, "No consolidation needed.")
		}
	})
}
