package cli

import (
	"errors"
	"fmt"

	"github.com/hashicorp/go-multierror"
	"github.com/spf13/cobra"

	"github.com/roach88/recordstore/internal/harness"
)

// FileValidation holds the validation result for one scenario file.
type FileValidation struct {
	Path   string   `json:"path"`
	Name   string   `json:"name,omitempty"`
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors,omitempty"`
}

// ValidationResult holds validation results for every file.
type ValidationResult struct {
	Valid bool             `json:"valid"`
	Files []FileValidation `json:"files"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <scenario>...",
		Short: "Validate scenario files without running them",
		Long: `Parse and validate YAML or CUE scenario files.

Every problem in a file is reported, not just the first.

Exit codes:
  0 - All files valid
  1 - One or more files invalid`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args, cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, paths []string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	result := ValidationResult{Valid: true, Files: make([]FileValidation, 0, len(paths))}
	for _, path := range paths {
		formatter.VerboseLog("validating %s", path)

		fv := FileValidation{Path: path, Valid: true}
		scenario, err := harness.LoadScenario(path)
		if err != nil {
			fv.Valid = false
			fv.Errors = scenarioProblems(err)
			result.Valid = false
		} else {
			fv.Name = scenario.Name
		}
		result.Files = append(result.Files, fv)
	}

	if formatter.Format == "json" {
		return outputValidationJSON(formatter, result)
	}
	return outputValidationText(formatter, result)
}

// scenarioProblems flattens a load error into one message per problem.
func scenarioProblems(err error) []string {
	var merr *multierror.Error
	if errors.As(err, &merr) {
		problems := make([]string, 0, len(merr.Errors))
		for _, e := range merr.Errors {
			problems = append(problems, e.Error())
		}
		return problems
	}
	return []string{err.Error()}
}

func outputValidationJSON(formatter *OutputFormatter, result ValidationResult) error {
	if result.Valid {
		return formatter.Success(result)
	}

	invalid := countInvalid(result)
	_ = formatter.Error(ErrCodeInvalid, fmt.Sprintf("%d scenario file(s) invalid", invalid), result.Files)
	return NewExitError(ExitFailure, fmt.Sprintf("%d scenario file(s) invalid", invalid))
}

func outputValidationText(formatter *OutputFormatter, result ValidationResult) error {
	w := formatter.Writer
	for _, fv := range result.Files {
		if fv.Valid {
			fmt.Fprintf(w, "✓ %s (%s)\n", fv.Path, fv.Name)
			continue
		}
		fmt.Fprintf(w, "✗ %s\n", fv.Path)
		for _, e := range fv.Errors {
			fmt.Fprintf(w, "  %s\n", e)
		}
	}

	if result.Valid {
		fmt.Fprintln(w, "✓ All scenarios valid")
		return nil
	}
	invalid := countInvalid(result)
	return NewExitError(ExitFailure, fmt.Sprintf("%d scenario file(s) invalid", invalid))
}

func countInvalid(result ValidationResult) int {
	n := 0
	for _, fv := range result.Files {
		if !fv.Valid {
			n++
		}
	}
	return n
}
