package harness

import (
	"fmt"
	"strings"

	"github.com/samber/lo"

	"github.com/roach88/recordstore/internal/record"
	"github.com/roach88/recordstore/internal/recordstore"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEvent // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nFull trace:\n")
		for _, event := range e.Trace {
			fmt.Fprintf(&buf, "  [%d] %s.%s %s -> %s\n",
				event.Seq, event.Ref, event.Op, record.CanonicalString(event.ID), event.Outcome)
		}
	}

	return buf.String()
}

// AssertionContext provides the references resolved during the run.
type AssertionContext struct {
	Refs  map[string]recordstore.Store
	Order []string // ref names in order of first use
}

// EvaluateAssertions evaluates all assertions against the result.
// Returns a slice of error messages for failed assertions.
func EvaluateAssertions(result *Result, assertions []Assertion, actx *AssertionContext) []string {
	var errors []string

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertTraceContains:
			err = assertTraceContains(result.Trace, assertion)
		case AssertTraceOrder:
			err = assertTraceOrder(result.Trace, assertion)
		case AssertTraceCount:
			err = assertTraceCount(result.Trace, assertion)
		case AssertSameInstance:
			if actx == nil {
				err = fmt.Errorf("assertion[%d]: same_instance requires reference context", i)
			} else {
				err = assertSameInstance(actx, assertion)
			}
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			errors = append(errors, err.Error())
		}
	}

	return errors
}

// eventMatcher builds the filter shared by trace_contains and trace_count.
// Unset assertion fields match anything.
func eventMatcher(a Assertion) (func(TraceEvent) bool, error) {
	var id record.Value
	if a.ID != nil {
		v, err := record.FromAny(a.ID)
		if err != nil {
			return nil, fmt.Errorf("%s: id: %w", a.Type, err)
		}
		id = v
	}

	return func(ev TraceEvent) bool {
		if ev.Op != a.Op {
			return false
		}
		if a.Ref != "" && ev.Ref != a.Ref {
			return false
		}
		if a.Outcome != "" && ev.Outcome != a.Outcome {
			return false
		}
		if id != nil && !record.IDEqual(ev.ID, id) {
			return false
		}
		return true
	}, nil
}

// describe renders the filter part of an assertion for messages.
func describe(a Assertion) string {
	parts := []string{a.Op}
	if a.Ref != "" {
		parts = append(parts, "ref="+a.Ref)
	}
	if a.ID != nil {
		if v, err := record.FromAny(a.ID); err == nil {
			parts = append(parts, "id="+record.CanonicalString(v))
		}
	}
	if a.Outcome != "" {
		parts = append(parts, "outcome="+a.Outcome)
	}
	return strings.Join(parts, " ")
}

// assertTraceContains checks that at least one event matches.
func assertTraceContains(trace []TraceEvent, assertion Assertion) error {
	match, err := eventMatcher(assertion)
	if err != nil {
		return err
	}

	if lo.ContainsBy(trace, match) {
		return nil
	}

	return &AssertionError{
		Type:     AssertTraceContains,
		Expected: describe(assertion),
		Actual:   "not found in trace",
		Trace:    trace,
	}
}

// assertTraceCount checks that exactly Count events match.
func assertTraceCount(trace []TraceEvent, assertion Assertion) error {
	match, err := eventMatcher(assertion)
	if err != nil {
		return err
	}

	count := lo.CountBy(trace, match)
	if count != assertion.Count {
		return &AssertionError{
			Type:     AssertTraceCount,
			Expected: fmt.Sprintf("%d occurrences of %s", assertion.Count, describe(assertion)),
			Actual:   fmt.Sprintf("%d occurrences", count),
			Trace:    trace,
		}
	}

	return nil
}

// assertTraceOrder checks that Ops appear as a subsequence of the trace.
// Intervening operations are allowed.
func assertTraceOrder(trace []TraceEvent, assertion Assertion) error {
	next := 0
	for _, ev := range trace {
		if next < len(assertion.Ops) && ev.Op == assertion.Ops[next] {
			next++
		}
	}

	if next == len(assertion.Ops) {
		return nil
	}

	ops := lo.Map(trace, func(ev TraceEvent, _ int) string { return ev.Op })
	return &AssertionError{
		Type:     AssertTraceOrder,
		Expected: fmt.Sprintf("operations in order: %v", assertion.Ops),
		Actual:   fmt.Sprintf("%v (matched %d of %d)", ops, next, len(assertion.Ops)),
		Trace:    trace,
	}
}

// assertSameInstance checks that every named reference resolved to the
// identical store.
func assertSameInstance(actx *AssertionContext, assertion Assertion) error {
	names := assertion.Refs
	if len(names) == 0 {
		names = actx.Order
	}

	var first recordstore.Store
	for _, name := range names {
		s, ok := actx.Refs[name]
		if !ok {
			return &AssertionError{
				Type:     AssertSameInstance,
				Expected: fmt.Sprintf("reference %q to be resolved", name),
				Actual:   "reference never used",
			}
		}
		if first == nil {
			first = s
			continue
		}
		if s != first {
			return &AssertionError{
				Type:     AssertSameInstance,
				Expected: fmt.Sprintf("references %v to share one store", names),
				Actual:   fmt.Sprintf("reference %q resolved to a different store than %q", name, names[0]),
			}
		}
	}

	return nil
}
