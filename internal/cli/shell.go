package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/recordstore/internal/harness"
	"github.com/roach88/recordstore/internal/journal"
	"github.com/roach88/recordstore/internal/record"
	"github.com/roach88/recordstore/internal/recordstore"
)

// ShellOptions holds flags for the shell command.
type ShellOptions struct {
	*RootOptions

	// RunIDs allows overriding the journal run id generator (for testing).
	RunIDs harness.RunIDGenerator
}

// ShellReply is one JSON line written in response to a command.
type ShellReply struct {
	Op     string        `json:"op"`
	Status string        `json:"status"` // "ok" or "error"
	Found  *bool         `json:"found,omitempty"`
	Record record.Record `json:"record,omitempty"`
	Len    *int          `json:"len,omitempty"`
	Error  string        `json:"error,omitempty"`
}

// NewShellCommand creates the shell command.
func NewShellCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ShellOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "shell",
		Short: "Read store commands from stdin",
		Long: `Read one command per line from stdin and apply it to the process store.

Commands:
  add <json-object>   append a record, e.g. add {"id": 1, "name": "a"}
  get <json-id>       look up the first record with this id, e.g. get "k1"
  len                 print the number of stored records

Blank lines and lines starting with # are ignored. A malformed line is
reported and the shell continues.

Examples:
  printf 'add {"id":1}\nget 1\n' | recordstore shell
  recordstore shell --format json < commands.txt`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShell(opts, cmd)
		},
	}

	return cmd
}

// shell applies line commands to one store reference.
type shell struct {
	store   recordstore.Store
	json    bool
	out     io.Writer
	logger  *slog.Logger
	journal *journal.Journal
	runID   string
	clock   *harness.Clock
}

func runShell(opts *ShellOptions, cmd *cobra.Command) error {
	logger := opts.logger(cmd.ErrOrStderr())

	j, closeJournal, err := opts.openJournal(logger)
	if err != nil {
		return err
	}
	defer closeJournal()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	sh := &shell{
		store:   opts.provider()(),
		json:    opts.isJSON(),
		out:     cmd.OutOrStdout(),
		logger:  logger,
		journal: j,
		clock:   harness.NewClock(),
	}

	if j != nil {
		gen := opts.RunIDs
		if gen == nil {
			gen = harness.UUIDGenerator{}
		}
		sh.runID = gen.Generate()
		if err := j.WriteRun(ctx, journal.Run{ID: sh.runID, Scenario: "shell"}); err != nil {
			return WrapExitError(ExitCommandError, "failed to journal run", err)
		}
		logger.Debug("journaling shell session", "run_id", sh.runID)
	}

	scanner := bufio.NewScanner(cmd.InOrStdin())
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		if err := sh.exec(ctx, scanner.Text()); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return WrapExitError(ExitCommandError, "failed to read input", err)
	}
	return nil
}

// exec handles one input line. Only journal and output failures are
// returned; malformed commands are reported inline.
func (sh *shell) exec(ctx context.Context, line string) error {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return nil
	}

	verb, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)

	switch verb {
	case "add":
		return sh.add(ctx, arg)
	case "get":
		return sh.get(ctx, arg)
	case "len":
		if arg != "" {
			return sh.reply(ShellReply{Op: verb, Status: "error", Error: "len takes no argument"})
		}
		n := sh.store.Len()
		return sh.reply(ShellReply{Op: verb, Status: "ok", Len: &n})
	default:
		return sh.reply(ShellReply{Op: verb, Status: "error", Error: fmt.Sprintf("unknown command %q (want add, get or len)", verb)})
	}
}

func (sh *shell) add(ctx context.Context, arg string) error {
	v, err := record.ParseJSON([]byte(arg))
	if err != nil {
		return sh.reply(ShellReply{Op: harness.OpAdd, Status: "error", Error: err.Error()})
	}
	obj, ok := v.(record.Object)
	if !ok {
		return sh.reply(ShellReply{Op: harness.OpAdd, Status: "error", Error: "add takes a JSON object"})
	}
	rec := record.Record(obj)

	entry := journal.Entry{Op: harness.OpAdd, Payload: rec, Outcome: harness.OutcomeStored}
	if id, ok := rec.ID(); ok {
		entry.RecordID = id
	}

	if err := sh.store.Add(rec); err != nil {
		if !recordstore.IsInvalidInput(err) {
			return WrapExitError(ExitCommandError, "add failed", err)
		}
		entry.Outcome = harness.OutcomeInvalidInput
		if err := sh.record(ctx, entry); err != nil {
			return err
		}
		return sh.reply(ShellReply{Op: harness.OpAdd, Status: "error", Error: err.Error()})
	}

	if err := sh.record(ctx, entry); err != nil {
		return err
	}
	return sh.reply(ShellReply{Op: harness.OpAdd, Status: "ok"})
}

func (sh *shell) get(ctx context.Context, arg string) error {
	id, err := record.ParseJSON([]byte(arg))
	if err != nil {
		return sh.reply(ShellReply{Op: harness.OpGet, Status: "error", Error: err.Error()})
	}

	got, found := sh.store.Get(id)
	entry := journal.Entry{Op: harness.OpGet, RecordID: id, Outcome: harness.OutcomeNotFound}
	if found {
		entry.Payload = got
		entry.Outcome = harness.OutcomeFound
	}
	if err := sh.record(ctx, entry); err != nil {
		return err
	}
	return sh.reply(ShellReply{Op: harness.OpGet, Status: "ok", Found: &found, Record: got})
}

// record journals an operation when a journal is open.
func (sh *shell) record(ctx context.Context, e journal.Entry) error {
	sh.logger.Debug("shell op", "op", e.Op, "outcome", e.Outcome)
	if sh.journal == nil {
		return nil
	}

	e.RunID = sh.runID
	e.Seq = sh.clock.Next()
	e.Ref = harness.DefaultRef
	if e.Payload != nil {
		if fp, err := record.Fingerprint(e.Payload); err == nil {
			e.Fingerprint = fp
		}
	}
	if err := sh.journal.WriteEntry(ctx, e); err != nil {
		return WrapExitError(ExitCommandError, "failed to journal entry", err)
	}
	return nil
}

// reply writes one response: a JSON line, or text.
func (sh *shell) reply(r ShellReply) error {
	if sh.json {
		return json.NewEncoder(sh.out).Encode(r)
	}

	var err error
	switch {
	case r.Status == "error":
		_, err = fmt.Fprintf(sh.out, "error: %s\n", r.Error)
	case r.Len != nil:
		_, err = fmt.Fprintln(sh.out, *r.Len)
	case r.Found != nil && !*r.Found:
		_, err = fmt.Fprintln(sh.out, "not found")
	case r.Found != nil:
		_, err = fmt.Fprintln(sh.out, record.CanonicalString(r.Record))
	default:
		_, err = fmt.Fprintln(sh.out, "ok")
	}
	return err
}
