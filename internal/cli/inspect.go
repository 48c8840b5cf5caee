package cli

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/baselines/internal/fixture"
	"github.com/roach88/baselines/internal/ir"
	"github.com/roach88/baselines/internal/store"
)

// InspectOptions holds flags for the inspect command.
type InspectOptions struct {
	*RootOptions
	Database  string
	Baselines bool
	ID        string
}

// InspectedEntry is one entry in the output of the inspect command.
type InspectedEntry struct {
	Entry  json.RawMessage `json:"entry"`
	Digest string          `json:"digest"`
}

// NewInspectCommand creates the inspect command.
func NewInspectCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &InspectOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "List the entries of the log",
		Long: `List the entries of the log with their content digests.

Entries are listed in global count order. With --baselines only baselines
are listed, most recent first. Two baselines with the same digest carry the
same revision vector and change set. With --id only the named entry is
shown; an unknown ID exits with code 2.

Examples:
  baselines inspect --db ./log.db
  baselines inspect --db ./log.db --id B1
  baselines inspect --db ./log.db --baselines --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (default from config)")
	cmd.Flags().BoolVar(&opts.Baselines, "baselines", false, "list only baselines, most recent first")
	cmd.Flags().StringVar(&opts.ID, "id", "", "show only the entry with this ID")
	cmd.MarkFlagsMutuallyExclusive("baselines", "id")

	return cmd
}

func runInspect(opts *InspectOptions, cmd *cobra.Command) error {
	e, err := openEnv(opts.RootOptions, opts.Database)
	if err != nil {
		return err
	}
	defer e.Close()

	var entries []*ir.LogEntry
	err = e.store.Perform(cmd.Context(), func(ctx context.Context, tx *store.Tx) error {
		var err error
		switch {
		case opts.ID != "":
			var entry *ir.LogEntry
			entry, err = tx.ReadEntry(ctx, opts.ID)
			if err == nil {
				entries = []*ir.LogEntry{entry}
			}
		case opts.Baselines:
			entries, err = tx.FetchBaselines(ctx)
		default:
			entries, err = tx.ReadEntries(ctx)
		}
		return err
	})
	if errors.Is(err, sql.ErrNoRows) {
		return NewExitError(ExitCommandError, "no such entry: "+opts.ID)
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read log", err)
	}

	inspected := make([]InspectedEntry, len(entries))
	for i, entry := range entries {
		doc, err := ir.MarshalCanonical(fixture.Document(entry))
		if err != nil {
			return WrapExitError(ExitFailure, "failed to render entry", err)
		}
		digest, err := ir.Digest(entry)
		if err != nil {
			return WrapExitError(ExitFailure, "failed to digest entry", err)
		}
		inspected[i] = InspectedEntry{Entry: doc, Digest: digest}
	}

	return opts.formatter(cmd).Success(inspected, func(w io.Writer) {
		if len(entries) == 0 {
			fmt.Fprintln(w, "No entries found.")
			return
		}
		writeEntryTable(w, entries, inspected)
	})
}

func writeEntryTable(w io.Writer, entries []*ir.LogEntry, inspected []InspectedEntry) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tKIND\tCOUNT\tREPLICA\tCLOCK\tRECORDS\tDIGEST")
	for i, e := range entries {
		kind := "entry"
		if e.IsBaseline {
			kind = "baseline"
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\t%d\t%s\n",
			e.ID, kind, e.GlobalCount, e.Replica, e.Clock, len(e.Records), inspected[i].Digest[:12])
	}
	tw.Flush()
}
