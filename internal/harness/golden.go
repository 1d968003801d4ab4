package harness

import (
	"context"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/recordstore/internal/record"
)

// Snapshot renders a result's trace as canonical JSON.
//
// The layout is:
//
//	{"run_id":...,"scenario_name":...,"trace":[{"id":...,"op":...,"outcome":...,"record":...,"ref":...,"seq":...}]}
//
// id and record are omitted when absent. Identical runs produce identical
// bytes, so snapshots can be compared against golden files directly.
func Snapshot(scenarioName string, result *Result) ([]byte, error) {
	trace := make(record.Array, len(result.Trace))
	for i, ev := range result.Trace {
		obj := record.Object{
			"seq":     record.Int(ev.Seq),
			"ref":     record.String(ev.Ref),
			"op":      record.String(ev.Op),
			"outcome": record.String(ev.Outcome),
		}
		if ev.ID != nil {
			obj["id"] = ev.ID
		}
		if ev.Record != nil {
			obj["record"] = record.Object(ev.Record)
		}
		trace[i] = obj
	}

	snapshot := record.Object{
		"scenario_name": record.String(scenarioName),
		"run_id":        record.String(result.RunID),
		"trace":         trace,
	}
	return record.MarshalCanonical(snapshot)
}

// RunWithGolden executes a scenario and compares the trace against a golden file.
// The golden file is stored in testdata/golden/{scenario.Name}.golden
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution fails.
// Test failure (via goldie) occurs if trace doesn't match golden file.
func RunWithGolden(t *testing.T, scenario *Scenario, opts Options) (*Result, error) {
	t.Helper()

	result, err := Run(context.Background(), scenario, opts)
	if err != nil {
		return nil, err
	}

	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares an already computed result against a golden file.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	traceJSON, err := Snapshot(scenarioName, result)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, traceJSON)

	return nil
}
