package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/recordstore/internal/harness"
	"github.com/roach88/recordstore/internal/journal"
)

// TestOptions holds flags for the test command.
type TestOptions struct {
	*RootOptions
	Update bool   // regenerate golden files
	Filter string // scenario filter (glob pattern)

	// RunIDs allows overriding the run id generator (for testing).
	RunIDs harness.RunIDGenerator
}

// ScenarioResult holds the result of a single scenario execution.
type ScenarioResult struct {
	Name   string   `json:"name"`
	File   string   `json:"file"`
	RunID  string   `json:"run_id,omitempty"`
	Pass   bool     `json:"pass"`
	Errors []string `json:"errors,omitempty"`
}

// TestResult holds the overall test result.
type TestResult struct {
	Scenarios []ScenarioResult `json:"scenarios"`
	Passed    int              `json:"passed"`
	Failed    int              `json:"failed"`
	Total     int              `json:"total"`
}

// NewTestCommand creates the test command.
func NewTestCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TestOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "test <scenarios-dir>",
		Short: "Run every scenario in a directory",
		Long: `Run all YAML and CUE scenario files in a directory, in lexical order.

All scenarios run in one process and therefore against one store: records
added by an earlier scenario are visible to later ones.

A scenario with a golden file at <dir>/golden/<name>.golden must also
reproduce that trace byte for byte. Golden comparison needs a fixed
run_id in the scenario.

Exit codes:
  0 - All scenarios passed
  1 - One or more scenarios failed
  2 - Command error (invalid paths, etc.)

Examples:
  recordstore test ./scenarios
  recordstore test ./scenarios --filter "lookup_*"
  recordstore test ./scenarios --update
  recordstore test ./scenarios --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTests(opts, args[0], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Update, "update", false, "regenerate golden files")
	cmd.Flags().StringVar(&opts.Filter, "filter", "", "filter scenarios by glob pattern")

	return cmd
}

func runTests(opts *TestOptions, scenariosDir string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	logger := opts.logger(cmd.ErrOrStderr())

	info, err := os.Stat(scenariosDir)
	if err != nil || !info.IsDir() {
		msg := fmt.Sprintf("scenarios directory not found: %s", scenariosDir)
		_ = formatter.Error(ErrCodeNotFound, msg, nil)
		return NewExitError(ExitCommandError, msg)
	}

	scenarioFiles, err := findScenarioFiles(scenariosDir, opts.Filter)
	if err != nil {
		_ = formatter.Error(ErrCodeScanError, "failed to find scenarios", err.Error())
		return WrapExitError(ExitCommandError, "failed to find scenarios", err)
	}

	if len(scenarioFiles) == 0 {
		if opts.isJSON() {
			return outputTestJSON(formatter, TestResult{Scenarios: []ScenarioResult{}})
		}
		fmt.Fprintln(formatter.Writer, "No scenarios found.")
		return nil
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

	result := TestResult{
		Scenarios: make([]ScenarioResult, 0, len(scenarioFiles)),
		Total:     len(scenarioFiles),
	}

	runner := &scenarioRunner{opts: opts, journal: j, logger: logger, formatter: formatter}
	for _, scenarioFile := range scenarioFiles {
		scenResult := runner.run(ctx, scenarioFile)
		result.Scenarios = append(result.Scenarios, scenResult)

		if scenResult.Pass {
			result.Passed++
		} else {
			result.Failed++
		}
	}

	if opts.isJSON() {
		return outputTestJSON(formatter, result)
	}
	return outputTestText(formatter, result)
}

// findScenarioFiles finds all YAML and CUE scenario files under dir, sorted
// lexically. Files inside golden/ directories are skipped.
func findScenarioFiles(dir string, filter string) ([]string, error) {
	if filter != "" {
		if _, err := filepath.Match(filter, ""); err != nil {
			return nil, fmt.Errorf("invalid filter pattern: %w", err)
		}
	}

	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() {
			if d.Name() == "golden" {
				return filepath.SkipDir
			}
			return nil
		}

		ext := filepath.Ext(path)
		if !isScenarioExt(ext) {
			return nil
		}

		if filter != "" {
			name := strings.TrimSuffix(filepath.Base(path), ext)
			if matched, _ := filepath.Match(filter, name); !matched {
				return nil
			}
		}

		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(files)
	return files, nil
}

func isScenarioExt(ext string) bool {
	switch ext {
	case ".yaml", ".yml", ".cue":
		return true
	}
	return false
}

// scenarioRunner runs scenario files for the test command.
type scenarioRunner struct {
	opts      *TestOptions
	journal   *journal.Journal
	logger    *slog.Logger
	formatter *OutputFormatter
}

// run executes a single scenario file and returns the result.
func (r *scenarioRunner) run(ctx context.Context, scenarioFile string) ScenarioResult {
	res := ScenarioResult{Name: filepath.Base(scenarioFile), File: scenarioFile}

	scenario, err := harness.LoadScenario(scenarioFile)
	if err != nil {
		return r.fail(res, append([]string{"failed to load scenario"}, scenarioProblems(err)...)...)
	}
	res.Name = scenario.Name

	result, err := harness.Run(ctx, scenario, harness.Options{
		Provider: r.opts.provider(),
		Journal:  r.journal,
		RunIDs:   r.opts.RunIDs,
		Logger:   r.logger,
	})
	if err != nil {
		return r.fail(res, fmt.Sprintf("execution failed: %v", err))
	}
	res.RunID = result.RunID

	if !result.Pass {
		return r.fail(res, result.Errors...)
	}

	goldenPath := goldenFilePath(scenarioFile)
	if r.opts.Update {
		if err := updateGoldenFile(scenario, result, goldenPath); err != nil {
			return r.fail(res, fmt.Sprintf("failed to update golden file: %v", err))
		}
		return r.pass(res, "golden updated")
	}

	if _, err := os.Stat(goldenPath); errors.Is(err, os.ErrNotExist) {
		// No golden file - assertion-based validation only
		return r.pass(res, "")
	}

	match, err := compareWithGolden(scenario, result, goldenPath)
	if err != nil {
		return r.fail(res, fmt.Sprintf("golden comparison failed: %v", err))
	}
	if !match {
		return r.fail(res, "trace does not match golden file (run with --update to regenerate)")
	}
	return r.pass(res, "")
}

func (r *scenarioRunner) pass(res ScenarioResult, note string) ScenarioResult {
	res.Pass = true
	if !r.opts.isJSON() {
		if note != "" {
			fmt.Fprintf(r.formatter.Writer, "✓ %s (%s)\n", res.Name, note)
		} else {
			fmt.Fprintf(r.formatter.Writer, "✓ %s\n", res.Name)
		}
	}
	return res
}

func (r *scenarioRunner) fail(res ScenarioResult, errs ...string) ScenarioResult {
	res.Pass = false
	res.Errors = errs
	if !r.opts.isJSON() {
		fmt.Fprintf(r.formatter.Writer, "✗ %s\n", res.Name)
		for _, e := range errs {
			fmt.Fprintf(r.formatter.Writer, "  %s\n", e)
		}
	}
	return res
}

// goldenFilePath returns the path to the golden file for a scenario.
func goldenFilePath(scenarioFile string) string {
	dir := filepath.Dir(scenarioFile)
	base := filepath.Base(scenarioFile)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(dir, "golden", name+".golden")
}

// updateGoldenFile writes the current trace as the golden file.
func updateGoldenFile(scenario *harness.Scenario, result *harness.Result, goldenPath string) error {
	if err := os.MkdirAll(filepath.Dir(goldenPath), 0755); err != nil {
		return fmt.Errorf("failed to create golden directory: %w", err)
	}

	data, err := harness.Snapshot(scenario.Name, result)
	if err != nil {
		return fmt.Errorf("failed to marshal trace: %w", err)
	}

	if err := os.WriteFile(goldenPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write golden file: %w", err)
	}
	return nil
}

// compareWithGolden compares the result trace against the golden file.
func compareWithGolden(scenario *harness.Scenario, result *harness.Result, goldenPath string) (bool, error) {
	goldenData, err := os.ReadFile(goldenPath)
	if err != nil {
		return false, fmt.Errorf("failed to read golden file: %w", err)
	}

	currentData, err := harness.Snapshot(scenario.Name, result)
	if err != nil {
		return false, fmt.Errorf("failed to marshal current trace: %w", err)
	}

	return bytes.Equal(goldenData, currentData), nil
}

// outputTestJSON outputs the test result as JSON.
func outputTestJSON(formatter *OutputFormatter, result TestResult) error {
	response := CLIResponse{
		Status: "ok",
		Data:   result,
	}

	if result.Failed > 0 {
		response.Status = "error"
		response.Error = &CLIError{
			Code:    ErrCodeTestFailed,
			Message: fmt.Sprintf("%d scenario(s) failed", result.Failed),
		}
	}

	if err := writeJSON(formatter.Writer, response); err != nil {
		return err
	}

	if result.Failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d scenario(s) failed", result.Failed))
	}
	return nil
}

// outputTestText outputs the test summary as text.
func outputTestText(formatter *OutputFormatter, result TestResult) error {
	w := formatter.Writer

	fmt.Fprintln(w)
	fmt.Fprintf(w, "Test Summary: %d passed, %d failed, %d total\n", result.Passed, result.Failed, result.Total)

	if result.Failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d scenario(s) failed", result.Failed))
	}

	fmt.Fprintln(w, "✓ All scenarios passed")
	return nil
}
