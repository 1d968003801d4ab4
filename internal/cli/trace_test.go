package cli

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/recordstore/internal/journal"
	"github.com/roach88/recordstore/internal/record"
)

// seedJournal creates a journal with one run of three operations and one
// empty run.
func seedJournal(t *testing.T) string {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "journal.db")

	j, err := journal.Open(dbPath)
	require.NoError(t, err)
	defer j.Close()

	ctx := context.Background()
	rec := record.Record{"id": record.Int(1), "name": record.String("a")}

	require.NoError(t, j.WriteRun(ctx, journal.Run{ID: "run-a", Scenario: "lookup"}))
	require.NoError(t, j.WriteEntry(ctx, journal.Entry{
		RunID: "run-a", Seq: 1, Ref: "default", Op: "add",
		RecordID: record.Int(1), Payload: rec, Outcome: "stored",
		Fingerprint: record.MustFingerprint(rec),
	}))
	require.NoError(t, j.WriteEntry(ctx, journal.Entry{
		RunID: "run-a", Seq: 2, Ref: "default", Op: "get",
		RecordID: record.Int(1), Payload: rec, Outcome: "found",
		Fingerprint: record.MustFingerprint(rec),
	}))
	require.NoError(t, j.WriteEntry(ctx, journal.Entry{
		RunID: "run-a", Seq: 3, Ref: "other", Op: "get",
		RecordID: record.String("zz"), Outcome: "not_found",
	}))
	require.NoError(t, j.WriteRun(ctx, journal.Run{ID: "run-b", Scenario: "empty"}))

	return dbPath
}

func TestTraceMissingArgs(t *testing.T) {
	_, err := execute(NewTraceCommand(textOptions()))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg")
}

func TestTraceJournalNotFound(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "absent.db")

	out, err := execute(NewTraceCommand(textOptions()), dbPath)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "journal not found")
	assert.Contains(t, out, ErrCodeNotFound)
	assert.NoFileExists(t, dbPath, "trace must not create a journal")
}

func TestTraceListRuns(t *testing.T) {
	dbPath := seedJournal(t)

	out, err := execute(NewTraceCommand(textOptions()), dbPath)
	require.NoError(t, err)
	assert.Equal(t, "run-a  lookup  (3 operations)\nrun-b  empty  (0 operations)\n", out)
}

func TestTraceListRunsEmpty(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "journal.db")
	j, err := journal.Open(dbPath)
	require.NoError(t, err)
	require.NoError(t, j.Close())

	out, err := execute(NewTraceCommand(textOptions()), dbPath)
	require.NoError(t, err)
	assert.Contains(t, out, "No runs journaled.")
}

func TestTraceListRunsJSON(t *testing.T) {
	dbPath := seedJournal(t)

	out, err := execute(NewTraceCommand(jsonOptions()), dbPath)
	require.NoError(t, err)

	var resp struct {
		Status string       `json:"status"`
		Data   []RunSummary `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, []RunSummary{
		{ID: "run-a", Scenario: "lookup", Operations: 3},
		{ID: "run-b", Scenario: "empty", Operations: 0},
	}, resp.Data)
}

func TestTraceShowRun(t *testing.T) {
	dbPath := seedJournal(t)

	out, err := execute(NewTraceCommand(textOptions()), dbPath, "--run", "run-a")
	require.NoError(t, err)

	expected := `Run: run-a
Scenario: lookup

  [1] default.add 1 -> stored {"id":1,"name":"a"}
  [2] default.get 1 -> found {"id":1,"name":"a"}
  [3] other.get "zz" -> not_found
`
	assert.Equal(t, expected, out)
}

func TestTraceShowEmptyRun(t *testing.T) {
	dbPath := seedJournal(t)

	out, err := execute(NewTraceCommand(textOptions()), dbPath, "--run", "run-b")
	require.NoError(t, err)
	assert.Contains(t, out, "(no operations)")
}

func TestTraceShowRunJSON(t *testing.T) {
	dbPath := seedJournal(t)

	out, err := execute(NewTraceCommand(jsonOptions()), dbPath, "--run", "run-a")
	require.NoError(t, err)

	var resp map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "run-a", resp["run_id"])

	data := resp["data"].(map[string]any)
	entries := data["entries"].([]any)
	require.Len(t, entries, 3)

	first := entries[0].(map[string]any)
	assert.Equal(t, "add", first["op"])
	assert.Equal(t, float64(1), first["id"])
	assert.NotEmpty(t, first["fingerprint"])

	last := entries[2].(map[string]any)
	assert.Equal(t, "zz", last["id"])
	assert.NotContains(t, last, "record")
	assert.NotContains(t, last, "fingerprint")
}

func TestTraceRunNotFound(t *testing.T) {
	dbPath := seedJournal(t)

	_, err := execute(NewTraceCommand(textOptions()), dbPath, "--run", "nope")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "run not found: nope")
}
