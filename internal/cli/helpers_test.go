package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"github.com/roach88/recordstore/internal/harness"
	"github.com/roach88/recordstore/internal/recordstore"
	"github.com/roach88/recordstore/internal/testutil"
)

const validScenario = `name: lookup
description: add then get
run_id: cli-run-1
steps:
  - add: {id: 1, name: a}
  - add: {id: 1, name: b}
  - get: 1
    expect:
      record: {id: 1, name: a}
  - ref: other
    get: 1
    expect:
      found: true
  - get: 2
    expect:
      found: false
assertions:
  - type: trace_count
    op: add
    count: 2
  - type: same_instance
`

const failingScenario = `name: failing
description: expects a record that was never added
run_id: cli-run-2
steps:
  - get: 99
    expect:
      found: true
`

// sharedProvider returns a provider that hands out one MemStore, so each
// test sees the singleton behaviour without touching the process store.
func sharedProvider() harness.Provider {
	st := testutil.NewMemStore()
	return func() recordstore.Store { return st }
}

func textOptions() *RootOptions {
	return &RootOptions{Format: "text", Provider: sharedProvider()}
}

func jsonOptions() *RootOptions {
	return &RootOptions{Format: "json", Provider: sharedProvider()}
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// execute runs cmd with args and returns stdout.
func execute(cmd *cobra.Command, args ...string) (string, error) {
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}
