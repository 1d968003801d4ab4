package cli

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/recordstore/internal/journal"
	"github.com/roach88/recordstore/internal/record"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	RunID string // optional - show one run's operations
}

// RunSummary is one journaled run in the run listing.
type RunSummary struct {
	ID         string `json:"id"`
	Scenario   string `json:"scenario"`
	Operations int    `json:"operations"`
}

// TraceEntry is one journaled operation.
type TraceEntry struct {
	Seq         int64         `json:"seq"`
	Ref         string        `json:"ref"`
	Op          string        `json:"op"`
	ID          record.Value  `json:"id,omitempty"`
	Record      record.Record `json:"record,omitempty"`
	Outcome     string        `json:"outcome"`
	Fingerprint string        `json:"fingerprint,omitempty"`
}

// RunTrace holds one run and its operations.
type RunTrace struct {
	Run     RunSummary   `json:"run"`
	Entries []TraceEntry `json:"entries"`
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace <journal-db>",
		Short: "Inspect an operation journal",
		Long: `List the runs recorded in an operation journal, or show the
operations of one run with --run.

The journal is written by run, test and shell when --journal is set.

Examples:
  recordstore trace ./journal.db
  recordstore trace ./journal.db --run 6f1c0a52-...
  recordstore trace ./journal.db --run golden-run-1 --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.RunID, "run", "", "run id to show")

	return cmd
}

func runTrace(opts *TraceOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	// Opening would create a fresh journal; a missing file is a user error.
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		msg := fmt.Sprintf("journal not found: %s", path)
		_ = formatter.Error(ErrCodeNotFound, msg, nil)
		return NewExitError(ExitCommandError, msg)
	}

	j, err := journal.Open(path)
	if err != nil {
		_ = formatter.Error(ErrCodeJournalFailed, "failed to open journal", err.Error())
		return WrapExitError(ExitCommandError, "failed to open journal", err)
	}
	defer j.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if opts.RunID == "" {
		runs, err := listRuns(ctx, j)
		if err != nil {
			_ = formatter.Error(ErrCodeJournalFailed, "failed to read runs", err.Error())
			return WrapExitError(ExitCommandError, "failed to read runs", err)
		}
		if opts.isJSON() {
			return writeJSON(formatter.Writer, CLIResponse{Status: "ok", Data: runs})
		}
		outputRunsText(formatter.Writer, runs)
		return nil
	}

	trace, err := loadRunTrace(ctx, j, opts.RunID)
	if errors.Is(err, sql.ErrNoRows) {
		msg := fmt.Sprintf("run not found: %s", opts.RunID)
		_ = formatter.Error(ErrCodeNotFound, msg, nil)
		return NewExitError(ExitCommandError, msg)
	}
	if err != nil {
		_ = formatter.Error(ErrCodeJournalFailed, "failed to read run", err.Error())
		return WrapExitError(ExitCommandError, "failed to read run", err)
	}

	if opts.isJSON() {
		return writeJSON(formatter.Writer, CLIResponse{Status: "ok", RunID: trace.Run.ID, Data: trace})
	}
	outputRunTraceText(formatter.Writer, trace)
	return nil
}

// listRuns returns every run with its operation count, oldest first.
func listRuns(ctx context.Context, j *journal.Journal) ([]RunSummary, error) {
	runs, err := j.ReadRuns(ctx)
	if err != nil {
		return nil, err
	}

	summaries := make([]RunSummary, 0, len(runs))
	for _, run := range runs {
		entries, err := j.ReadEntries(ctx, run.ID)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, RunSummary{ID: run.ID, Scenario: run.Scenario, Operations: len(entries)})
	}
	return summaries, nil
}

// loadRunTrace reads one run and its entries.
// Returns sql.ErrNoRows if the run is not journaled.
func loadRunTrace(ctx context.Context, j *journal.Journal, runID string) (RunTrace, error) {
	run, err := j.ReadRun(ctx, runID)
	if err != nil {
		return RunTrace{}, err
	}

	entries, err := j.ReadEntries(ctx, runID)
	if err != nil {
		return RunTrace{}, err
	}

	trace := RunTrace{
		Run:     RunSummary{ID: run.ID, Scenario: run.Scenario, Operations: len(entries)},
		Entries: make([]TraceEntry, 0, len(entries)),
	}
	for _, e := range entries {
		trace.Entries = append(trace.Entries, TraceEntry{
			Seq:         e.Seq,
			Ref:         e.Ref,
			Op:          e.Op,
			ID:          e.RecordID,
			Record:      e.Payload,
			Outcome:     e.Outcome,
			Fingerprint: e.Fingerprint,
		})
	}
	return trace, nil
}

func outputRunsText(w io.Writer, runs []RunSummary) {
	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs journaled.")
		return
	}
	for _, run := range runs {
		fmt.Fprintf(w, "%s  %s  (%d operations)\n", run.ID, run.Scenario, run.Operations)
	}
}

func outputRunTraceText(w io.Writer, trace RunTrace) {
	fmt.Fprintf(w, "Run: %s\n", trace.Run.ID)
	fmt.Fprintf(w, "Scenario: %s\n", trace.Run.Scenario)
	fmt.Fprintln(w)

	if len(trace.Entries) == 0 {
		fmt.Fprintln(w, "  (no operations)")
		return
	}
	for _, e := range trace.Entries {
		line := fmt.Sprintf("  [%d] %s.%s %s -> %s", e.Seq, e.Ref, e.Op, idText(e.ID), e.Outcome)
		if e.Record != nil {
			line += " " + record.CanonicalString(e.Record)
		}
		fmt.Fprintln(w, line)
	}
}
