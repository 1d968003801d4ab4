package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/recordstore/internal/journal"
	"github.com/roach88/recordstore/internal/record"
	"github.com/roach88/recordstore/internal/recordstore"
)

// Provider is the construction path: each call yields a store reference.
// recordstore.Default is the production provider.
type Provider func() recordstore.Store

// Options configures a run. The zero value runs against recordstore.Default
// with a fresh clock, random run ids and no journal.
type Options struct {
	// Provider resolves store references. Defaults to recordstore.Default.
	Provider Provider

	// Journal, when set, receives the run and every operation.
	Journal *journal.Journal

	// Clock stamps trace events. Defaults to a new Clock per run.
	Clock SeqSource

	// RunIDs generates run ids for scenarios without run_id.
	// Defaults to UUIDGenerator.
	RunIDs RunIDGenerator

	// Logger receives step-level debug logs. Defaults to a discard logger.
	Logger *slog.Logger
}

// harness carries the per-run state.
type harness struct {
	provider Provider
	journal  *journal.Journal
	clock    SeqSource
	logger   *slog.Logger
	runID    string

	refs map[string]recordstore.Store
}

// Run executes a scenario and returns the result.
//
// Execution flow:
// 1. Resolve the run id and record the run in the journal
// 2. Execute steps in order, resolving each new ref through the provider
// 3. Check step expectations
// 4. Evaluate assertions against the trace and resolved refs
//
// Expectation and assertion failures are reported in Result.Errors. A
// non-nil error means the scenario could not be executed at all.
func Run(ctx context.Context, scenario *Scenario, opts Options) (*Result, error) {
	h := &harness{
		provider: opts.Provider,
		journal:  opts.Journal,
		clock:    opts.Clock,
		logger:   opts.Logger,
		refs:     make(map[string]recordstore.Store),
	}
	if h.provider == nil {
		h.provider = recordstore.Default
	}
	if h.clock == nil {
		h.clock = NewClock()
	}
	if h.logger == nil {
		h.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	h.runID = scenario.RunID
	if h.runID == "" {
		gen := opts.RunIDs
		if gen == nil {
			gen = UUIDGenerator{}
		}
		h.runID = gen.Generate()
	}
	h.logger = h.logger.With("run_id", h.runID, "scenario", scenario.Name)

	if h.journal != nil {
		if err := h.journal.WriteRun(ctx, journal.Run{ID: h.runID, Scenario: scenario.Name}); err != nil {
			return nil, fmt.Errorf("failed to journal run: %w", err)
		}
	}

	result := NewResult(h.runID)
	for i, step := range scenario.Steps {
		if err := h.executeStep(ctx, i, step, result); err != nil {
			return nil, fmt.Errorf("step %d: %w", i, err)
		}
	}

	actx := &AssertionContext{Refs: h.refs, Order: result.Refs}
	for _, errMsg := range EvaluateAssertions(result, scenario.Assertions, actx) {
		result.AddError(errMsg)
	}

	h.logger.Debug("scenario finished", "pass", result.Pass, "steps", len(result.Trace))
	return result, nil
}

// resolve returns the store for a ref, calling the provider on first use.
func (h *harness) resolve(name string, result *Result) recordstore.Store {
	if s, ok := h.refs[name]; ok {
		return s
	}
	s := h.provider()
	h.refs[name] = s
	result.Refs = append(result.Refs, name)
	h.logger.Debug("resolved reference", "ref", name)
	return s
}

// executeStep runs one add or get and checks its expectation.
func (h *harness) executeStep(ctx context.Context, index int, step Step, result *Result) error {
	ref := refName(step)
	st := h.resolve(ref, result)

	var ev TraceEvent
	switch {
	case step.Add != nil:
		m, ok := step.Add.(map[string]any)
		if !ok {
			return fmt.Errorf("add must be a mapping, got %T", step.Add)
		}
		rec, err := record.RecordFromMap(m)
		if err != nil {
			return fmt.Errorf("failed to convert record: %w", err)
		}
		ev, err = h.add(st, rec)
		if err != nil {
			return err
		}
		checkAdd(index, step.Expect, ev, result)

	case step.Get != nil:
		id, err := record.FromAny(step.Get)
		if err != nil {
			return fmt.Errorf("failed to convert id: %w", err)
		}
		ev = h.get(st, id)
		if err := checkGet(index, step.Expect, ev, result); err != nil {
			return err
		}

	default:
		return fmt.Errorf("one of add or get is required")
	}

	ev.Ref = ref
	result.AddTrace(ev)
	h.logger.Debug("step", "step", index, "op", ev.Op, "ref", ref, "outcome", ev.Outcome)

	if h.journal != nil {
		if err := h.journal.WriteEntry(ctx, toEntry(h.runID, ev)); err != nil {
			return fmt.Errorf("failed to journal entry: %w", err)
		}
	}
	return nil
}

// add performs one add. Input errors become the invalid_input outcome;
// any other store error aborts the run.
func (h *harness) add(st recordstore.Store, rec record.Record) (TraceEvent, error) {
	// Get seq ONCE per operation
	ev := TraceEvent{Seq: h.clock.Next(), Op: OpAdd, Record: rec.Clone()}
	if id, ok := rec.ID(); ok {
		ev.ID = id
	}

	if err := st.Add(rec); err != nil {
		if !recordstore.IsInvalidInput(err) {
			return ev, fmt.Errorf("add failed: %w", err)
		}
		ev.Outcome = OutcomeInvalidInput
		h.logger.Debug("add rejected", "error", err)
		return ev, nil
	}
	ev.Outcome = OutcomeStored
	return ev, nil
}

func (h *harness) get(st recordstore.Store, id record.Value) TraceEvent {
	ev := TraceEvent{Seq: h.clock.Next(), Op: OpGet, ID: id}

	if got, ok := st.Get(id); ok {
		ev.Record = got
		ev.Outcome = OutcomeFound
		return ev
	}
	ev.Outcome = OutcomeNotFound
	return ev
}

// checkAdd reports an add whose outcome differs from the expectation.
// Without an expectation the add must succeed.
func checkAdd(index int, expect *Expect, ev TraceEvent, result *Result) {
	want := OutcomeStored
	if expect != nil && expect.Error == OutcomeInvalidInput {
		want = OutcomeInvalidInput
	}
	if ev.Outcome != want {
		result.AddError(fmt.Sprintf("steps[%d]: add %s: expected %s, got %s",
			index, record.CanonicalString(ev.Record), want, ev.Outcome))
	}
}

// checkGet reports a get whose result differs from the expectation.
func checkGet(index int, expect *Expect, ev TraceEvent, result *Result) error {
	if expect == nil {
		return nil
	}
	found := ev.Outcome == OutcomeFound
	idDesc := record.CanonicalString(ev.ID)

	wantFound := expect.Record != nil
	if expect.Found != nil {
		wantFound = *expect.Found
	}
	if (expect.Found != nil || expect.Record != nil) && found != wantFound {
		result.AddError(fmt.Sprintf("steps[%d]: get %s: expected found=%t, got found=%t", index, idDesc, wantFound, found))
		return nil
	}

	if expect.Record != nil {
		want, err := record.RecordFromMap(expect.Record)
		if err != nil {
			return fmt.Errorf("failed to convert expected record: %w", err)
		}
		if !want.Equal(ev.Record) {
			result.AddError(fmt.Sprintf("steps[%d]: get %s: expected record %s, got %s",
				index, idDesc, record.CanonicalString(want), record.CanonicalString(ev.Record)))
		}
	}
	return nil
}

// toEntry converts a trace event to its journal form.
func toEntry(runID string, ev TraceEvent) journal.Entry {
	e := journal.Entry{
		RunID:    runID,
		Seq:      ev.Seq,
		Ref:      ev.Ref,
		Op:       ev.Op,
		RecordID: ev.ID,
		Payload:  ev.Record,
		Outcome:  ev.Outcome,
	}
	if ev.Record != nil {
		if fp, err := record.Fingerprint(ev.Record); err == nil {
			e.Fingerprint = fp
		}
	}
	return e
}
