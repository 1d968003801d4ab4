package cli

import (
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/spf13/cobra"

	"github.com/roach88/recordstore/internal/config"
	"github.com/roach88/recordstore/internal/harness"
	"github.com/roach88/recordstore/internal/journal"
	"github.com/roach88/recordstore/internal/recordstore"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"
	Config  string // explicit config file
	Journal string // journal database path; empty disables journaling

	// Provider overrides the store construction path (for testing).
	// If nil, defaults to recordstore.Default.
	Provider harness.Provider
}

// ValidFormats defines the allowed output formats.
var ValidFormats = config.ValidFormats

// NewRootCommand creates the root command for the recordstore CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "recordstore",
		Short: "Process-wide record store",
		Long: `A single in-memory record store per process, exercised through
scenario files and an interactive shell.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return applyConfig(cmd, opts)
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.Config, "config", "", "config file (default ./recordstore.yaml)")
	cmd.PersistentFlags().StringVar(&opts.Journal, "journal", "", "path to SQLite operation journal")

	// Add subcommands
	cmd.AddCommand(NewRunCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))
	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewShellCommand(opts))
	cmd.AddCommand(NewTraceCommand(opts))

	return cmd
}

// applyConfig fills options the user did not set on the command line from
// the config file and environment, then validates the result.
func applyConfig(cmd *cobra.Command, opts *RootOptions) error {
	cfg, err := config.Load(opts.Config)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load config", err)
	}

	flags := cmd.Flags()
	if !flags.Changed("format") {
		opts.Format = cfg.Format
	}
	if !flags.Changed("verbose") {
		opts.Verbose = cfg.Verbose
	}
	if !flags.Changed("journal") {
		opts.Journal = cfg.Journal
	}

	if !isValidFormat(opts.Format) {
		return NewExitError(ExitCommandError, fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
	}
	return nil
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}

// provider returns the configured construction path.
func (o *RootOptions) provider() harness.Provider {
	if o.Provider != nil {
		return o.Provider
	}
	return recordstore.Default
}

// isJSON reports whether JSON output was requested.
func (o *RootOptions) isJSON() bool {
	return o.Format == "json"
}

// logger returns a debug-level text logger on w when verbose, otherwise a
// discard logger.
func (o *RootOptions) logger(w io.Writer) *slog.Logger {
	if !o.Verbose {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

// openJournal opens the configured journal. Returns nil when journaling is
// disabled; the returned close function is always safe to call.
func (o *RootOptions) openJournal(logger *slog.Logger) (*journal.Journal, func(), error) {
	if o.Journal == "" {
		return nil, func() {}, nil
	}

	logger.Debug("opening journal", "path", o.Journal)
	j, err := journal.Open(o.Journal)
	if err != nil {
		return nil, func() {}, WrapExitError(ExitCommandError, "failed to open journal", err)
	}
	return j, func() {
		if err := j.Close(); err != nil {
			logger.Error("error closing journal", "error", err)
		}
	}, nil
}
