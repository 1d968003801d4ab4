package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/recordstore/internal/harness"
	"github.com/roach88/recordstore/internal/record"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions

	// RunIDs allows overriding the run id generator (for testing).
	// If nil, defaults to harness.UUIDGenerator.
	RunIDs harness.RunIDGenerator
}

// RunResult is the JSON payload of the run command.
type RunResult struct {
	Scenario string               `json:"scenario"`
	RunID    string               `json:"run_id"`
	Pass     bool                 `json:"pass"`
	Refs     []string             `json:"refs"`
	Trace    []harness.TraceEvent `json:"trace"`
	Errors   []string             `json:"errors,omitempty"`
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <scenario>",
		Short: "Run one scenario against the process store",
		Long: `Run a YAML or CUE scenario file against the process-wide store.

Every reference named in the scenario is obtained from the store's
construction path, so references share records.

Exit codes:
  0 - Scenario passed
  1 - Scenario failed (expectation or assertion)
  2 - Command error (missing file, invalid scenario, journal error)

Examples:
  recordstore run ./scenarios/lookup.yaml
  recordstore run ./scenarios/lookup.cue --format json
  recordstore run ./scenarios/lookup.yaml --journal ./journal.db`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScenarioFile(opts, args[0], cmd)
		},
	}

	return cmd
}

func runScenarioFile(opts *RunOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	logger := opts.logger(cmd.ErrOrStderr())

	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		_ = formatter.Error(ErrCodeNotFound, fmt.Sprintf("scenario not found: %s", path), nil)
		return NewExitError(ExitCommandError, fmt.Sprintf("scenario not found: %s", path))
	}

	logger.Info("loading scenario", "path", path)
	scenario, err := harness.LoadScenario(path)
	if err != nil {
		_ = formatter.Error(ErrCodeLoadFailed, "failed to load scenario", scenarioProblems(err))
		return WrapExitError(ExitCommandError, "failed to load scenario", err)
	}

	j, closeJournal, err := opts.openJournal(logger)
	if err != nil {
		return err
	}
	defer closeJournal()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	result, err := harness.Run(ctx, scenario, harness.Options{
		Provider: opts.provider(),
		Journal:  j,
		RunIDs:   opts.RunIDs,
		Logger:   logger,
	})
	if err != nil {
		_ = formatter.Error(ErrCodeRunFailed, "scenario execution failed", err.Error())
		return WrapExitError(ExitCommandError, "scenario execution failed", err)
	}

	if opts.isJSON() {
		return outputRunJSON(formatter, scenario, result)
	}
	return outputRunText(formatter.Writer, scenario, result)
}

func outputRunJSON(formatter *OutputFormatter, scenario *harness.Scenario, result *harness.Result) error {
	response := CLIResponse{
		Status: "ok",
		RunID:  result.RunID,
		Data: RunResult{
			Scenario: scenario.Name,
			RunID:    result.RunID,
			Pass:     result.Pass,
			Refs:     result.Refs,
			Trace:    result.Trace,
			Errors:   result.Errors,
		},
	}
	if !result.Pass {
		response.Status = "error"
		response.Error = &CLIError{
			Code:    ErrCodeTestFailed,
			Message: fmt.Sprintf("scenario %s failed", scenario.Name),
		}
	}

	if err := writeJSON(formatter.Writer, response); err != nil {
		return err
	}
	if !result.Pass {
		return NewExitError(ExitFailure, fmt.Sprintf("scenario %s failed", scenario.Name))
	}
	return nil
}

func outputRunText(w io.Writer, scenario *harness.Scenario, result *harness.Result) error {
	mark := "✓"
	if !result.Pass {
		mark = "✗"
	}
	fmt.Fprintf(w, "%s %s (run %s)\n", mark, scenario.Name, result.RunID)
	writeTraceText(w, result.Trace)

	if result.Pass {
		return nil
	}
	for _, e := range result.Errors {
		fmt.Fprintf(w, "  %s\n", e)
	}
	return NewExitError(ExitFailure, fmt.Sprintf("scenario %s failed", scenario.Name))
}

// writeTraceText prints one line per trace event:
//
//	[seq] ref.op id -> outcome record
func writeTraceText(w io.Writer, trace []harness.TraceEvent) {
	for _, ev := range trace {
		line := fmt.Sprintf("  [%d] %s.%s %s -> %s", ev.Seq, ev.Ref, ev.Op, idText(ev.ID), ev.Outcome)
		if ev.Record != nil && ev.Op == harness.OpGet {
			line += " " + record.CanonicalString(ev.Record)
		}
		fmt.Fprintln(w, line)
	}
}

// idText renders an id for text output; absent ids print as "-".
func idText(id record.Value) string {
	if id == nil {
		return "-"
	}
	return record.CanonicalString(id)
}
