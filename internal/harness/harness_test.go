package harness

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/recordstore/internal/journal"
	"github.com/roach88/recordstore/internal/record"
	"github.com/roach88/recordstore/internal/recordstore"
	"github.com/roach88/recordstore/internal/testutil"
)

// sharedProvider returns a provider whose every reference is one MemStore.
func sharedProvider() (Provider, *testutil.MemStore) {
	s := testutil.NewMemStore()
	return func() recordstore.Store { return s }, s
}

func testOptions() Options {
	provider, _ := sharedProvider()
	return Options{
		Provider: provider,
		Clock:    testutil.NewDeterministicClock(),
		RunIDs:   testutil.NewFixedRunIDGenerator("test-run"),
	}
}

func boolPtr(b bool) *bool { return &b }

func TestRun_LookupBasics(t *testing.T) {
	scenario := &Scenario{
		Name:        "lookup_basics",
		Description: "two adds, three gets",
		Steps: []Step{
			{Add: map[string]any{"id": 1, "name": "a"}},
			{Add: map[string]any{"id": 2, "name": "b"}},
			{Get: 1, Expect: &Expect{Record: map[string]any{"id": 1, "name": "a"}}},
			{Get: 2, Expect: &Expect{Record: map[string]any{"id": 2, "name": "b"}}},
			{Get: 3, Expect: &Expect{Found: boolPtr(false)}},
		},
	}

	result, err := Run(context.Background(), scenario, testOptions())
	require.NoError(t, err)

	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Equal(t, "test-run", result.RunID)
	require.Len(t, result.Trace, 5)

	for i, ev := range result.Trace {
		assert.Equal(t, int64(i+1), ev.Seq)
		assert.Equal(t, DefaultRef, ev.Ref)
	}
	assert.Equal(t, OutcomeStored, result.Trace[0].Outcome)
	assert.Equal(t, OutcomeFound, result.Trace[2].Outcome)
	assert.Equal(t, OutcomeNotFound, result.Trace[4].Outcome)
	assert.Nil(t, result.Trace[4].Record)
	assert.Equal(t, []string{DefaultRef}, result.Refs)
}

func TestRun_SharedReference(t *testing.T) {
	calls := 0
	s := testutil.NewMemStore()
	opts := testOptions()
	opts.Provider = func() recordstore.Store {
		calls++
		return s
	}

	scenario := &Scenario{
		Name:        "shared",
		Description: "ref1 adds, ref2 reads",
		Steps: []Step{
			{Ref: "ref1", Add: map[string]any{"id": 5}},
			{Ref: "ref2", Get: 5, Expect: &Expect{Record: map[string]any{"id": 5}}},
			{Ref: "ref1", Get: 5, Expect: &Expect{Found: boolPtr(true)}},
		},
		Assertions: []Assertion{{Type: AssertSameInstance}},
	}

	result, err := Run(context.Background(), scenario, opts)
	require.NoError(t, err)

	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Equal(t, 2, calls, "each distinct ref resolves once")
	assert.Equal(t, []string{"ref1", "ref2"}, result.Refs)
}

func TestRun_DefaultProviderUsesProcessStore(t *testing.T) {
	id := "harness-default-" + uuid.NewString()
	scenario := &Scenario{
		Name:        "process_store",
		Description: "two refs from recordstore.Default",
		Steps: []Step{
			{Ref: "a", Add: map[string]any{"id": id}},
			{Ref: "b", Get: id, Expect: &Expect{Found: boolPtr(true)}},
		},
		Assertions: []Assertion{{Type: AssertSameInstance}},
	}

	result, err := Run(context.Background(), scenario, Options{})
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)

	_, err = uuid.Parse(result.RunID)
	assert.NoError(t, err, "run id defaults to a UUID")

	_, ok := recordstore.Default().Get(record.String(id))
	assert.True(t, ok)
}

func TestRun_InvalidInputExpected(t *testing.T) {
	provider, store := sharedProvider()
	opts := testOptions()
	opts.Provider = provider

	scenario := &Scenario{
		Name:        "invalid",
		Description: "records without usable ids are rejected",
		Steps: []Step{
			{Add: map[string]any{"name": "no-id"}, Expect: &Expect{Error: OutcomeInvalidInput}},
			{Add: map[string]any{"id": nil}, Expect: &Expect{Error: OutcomeInvalidInput}},
			{Add: map[string]any{"id": []any{1}}, Expect: &Expect{Error: OutcomeInvalidInput}},
		},
	}

	result, err := Run(context.Background(), scenario, opts)
	require.NoError(t, err)

	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Equal(t, 0, store.Len())
	for _, ev := range result.Trace {
		assert.Equal(t, OutcomeInvalidInput, ev.Outcome)
	}
	assert.Nil(t, result.Trace[0].ID)
	assert.Equal(t, record.Null{}, result.Trace[1].ID)
}

func TestRun_UnexpectedOutcomesFail(t *testing.T) {
	scenario := &Scenario{
		Name:        "mismatch",
		Description: "every expectation is wrong",
		Steps: []Step{
			{Add: map[string]any{"name": "no-id"}},
			{Add: map[string]any{"id": 1}, Expect: &Expect{Error: OutcomeInvalidInput}},
			{Get: 1, Expect: &Expect{Found: boolPtr(false)}},
			{Get: 2, Expect: &Expect{Found: boolPtr(true)}},
			{Get: 1, Expect: &Expect{Record: map[string]any{"id": 1, "extra": true}}},
		},
	}

	result, err := Run(context.Background(), scenario, testOptions())
	require.NoError(t, err)

	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 5)
	assert.Contains(t, result.Errors[0], "steps[0]: add")
	assert.Contains(t, result.Errors[1], "expected invalid_input, got stored")
	assert.Contains(t, result.Errors[2], "expected found=false, got found=true")
	assert.Contains(t, result.Errors[3], "expected found=true, got found=false")
	assert.Contains(t, result.Errors[4], `expected record {"extra":true,"id":1}`)
	assert.Len(t, result.Trace, 5, "failures do not stop execution")
}

func TestRun_KindStrictLookup(t *testing.T) {
	scenario := &Scenario{
		Name:        "kinds",
		Description: "int and string ids never match",
		Steps: []Step{
			{Add: map[string]any{"id": 1}},
			{Get: "1", Expect: &Expect{Found: boolPtr(false)}},
			{Get: []any{1}, Expect: &Expect{Found: boolPtr(false)}},
			{Get: 1, Expect: &Expect{Found: boolPtr(true)}},
		},
	}

	result, err := Run(context.Background(), scenario, testOptions())
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
}

func TestRun_ScenarioRunIDWins(t *testing.T) {
	scenario := &Scenario{
		Name:        "fixed",
		Description: "run_id overrides the generator",
		RunID:       "pinned",
		Steps:       []Step{{Get: 1}},
	}

	result, err := Run(context.Background(), scenario, testOptions())
	require.NoError(t, err)
	assert.Equal(t, "pinned", result.RunID)
}

func TestRun_ConversionErrorAborts(t *testing.T) {
	scenario := &Scenario{
		Name:        "float",
		Description: "floats cannot be stored",
		Steps:       []Step{{Add: map[string]any{"id": 1, "price": 1.5}}},
	}

	_, err := Run(context.Background(), scenario, testOptions())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "step 0")
}

func TestRun_Deterministic(t *testing.T) {
	scenario := &Scenario{
		Name:        "repeat",
		Description: "same scenario twice",
		Steps: []Step{
			{Add: map[string]any{"id": "k", "tags": []any{"x", "y"}}},
			{Get: "k"},
		},
	}

	first, err := Run(context.Background(), scenario, testOptions())
	require.NoError(t, err)
	second, err := Run(context.Background(), scenario, testOptions())
	require.NoError(t, err)

	a, err := Snapshot(scenario.Name, first)
	require.NoError(t, err)
	b, err := Snapshot(scenario.Name, second)
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))
}

func TestRun_Journal(t *testing.T) {
	ctx := context.Background()
	j, err := journal.Open(filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)
	t.Cleanup(func() { j.Close() })

	opts := testOptions()
	opts.Journal = j

	scenario := &Scenario{
		Name:        "journaled",
		Description: "operations land in the journal",
		RunID:       "journal-run",
		Steps: []Step{
			{Add: map[string]any{"id": 7, "name": "seven"}},
			{Ref: "other", Get: 7},
			{Get: 8},
		},
	}

	_, err = Run(ctx, scenario, opts)
	require.NoError(t, err)

	runs, err := j.ReadRuns(ctx)
	require.NoError(t, err)
	assert.Equal(t, []journal.Run{{ID: "journal-run", Scenario: "journaled"}}, runs)

	entries, err := j.ReadEntries(ctx, "journal-run")
	require.NoError(t, err)
	require.Len(t, entries, 3)

	added := record.Record{"id": record.Int(7), "name": record.String("seven")}
	assert.Equal(t, OpAdd, entries[0].Op)
	assert.Equal(t, OutcomeStored, entries[0].Outcome)
	assert.Equal(t, record.MustFingerprint(added), entries[0].Fingerprint)
	assert.Equal(t, "other", entries[1].Ref)
	assert.Equal(t, OutcomeFound, entries[1].Outcome)
	assert.True(t, added.Equal(entries[1].Payload))
	assert.Equal(t, OutcomeNotFound, entries[2].Outcome)
	assert.Empty(t, entries[2].Fingerprint)
	assert.Nil(t, entries[2].Payload)
}

func TestClock_Next(t *testing.T) {
	c := NewClock()
	assert.Equal(t, int64(0), c.Current())
	assert.Equal(t, int64(1), c.Next())
	assert.Equal(t, int64(2), c.Next())
	assert.Equal(t, int64(2), c.Current())
}

func TestUUIDGenerator_Unique(t *testing.T) {
	var gen UUIDGenerator
	a, b := gen.Generate(), gen.Generate()

	parsed, err := uuid.Parse(a)
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(7), parsed.Version())
	assert.NotEqual(t, a, b)
}

func TestRun_StoreFailureAborts(t *testing.T) {
	s := testutil.NewMemStore()
	s.AddErr = errors.New("disk on fire")
	opts := testOptions()
	opts.Provider = func() recordstore.Store { return s }

	scenario := &Scenario{
		Name:        "broken",
		Description: "non-input errors are not outcomes",
		Steps:       []Step{{Add: map[string]any{"id": 1}}},
	}

	_, err := Run(context.Background(), scenario, opts)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk on fire")
}
