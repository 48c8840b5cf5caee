package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/baselines/internal/ir"
)

// AbandonedOptions holds flags for the abandoned command.
type AbandonedOptions struct {
	*RootOptions
	Database string
	Replica  string
}

// AbandonedResult is the output of the abandoned command.
type AbandonedResult struct {
	Replica   string `json:"replica"`
	Abandoned bool   `json:"abandoned"`
}

// NewAbandonedCommand creates the abandoned command.
func NewAbandonedCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &AbandonedOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "abandoned",
		Short: "Check whether a replica's store was reset without new work",
		Long: `Check whether a replica appears abandoned: two or more baselines
constructed for its store show the same revision for the replica itself,
so it was reset without committing work after an earlier reconstruction.

Exit codes:
  0 - Not abandoned
  1 - Abandoned
  2 - Command error (no replica given, database not found, etc.)

Examples:
  baselines abandoned --db ./log.db --replica S1`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAbandoned(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (default from config)")
	cmd.Flags().StringVar(&opts.Replica, "replica", "", "replica ID to check (default from config)")

	return cmd
}

func runAbandoned(opts *AbandonedOptions, cmd *cobra.Command) error {
	e, err := openEnv(opts.RootOptions, opts.Database)
	if err != nil {
		return err
	}
	defer e.Close()

	replica := opts.Replica
	if replica == "" {
		replica = e.cfg.Replica
	}
	if replica == "" {
		return NewExitError(ExitCommandError, "no replica given: use --replica or set replica in the config")
	}

	abandoned, err := e.session.IsPersistentStoreAbandoned(cmd.Context(), ir.ReplicaID(replica))
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to query log", err)
	}

	result := AbandonedResult{Replica: replica, Abandoned: abandoned}
	err = opts.formatter(cmd).Success(result, func(w io.Writer) {
		if abandoned {
			fmt.Fprintf(w, "Replica %s appears abandoned.\n", replica)
		} else {
			fmt.Fprintf(w, "Replica %s is not abandoned.\n", replica)
		}
	})
	if err != nil {
		return err
	}
	if abandoned {
		return NewExitError(ExitFailure, fmt.Sprintf("replica %s is abandoned", replica))
	}
	return nil
}
