// Package harness runs record store scenarios and checks their outcomes.
//
// A scenario is a list of add and get steps. Each step runs against a named
// store reference; every distinct reference is obtained separately from the
// construction path (recordstore.Default in production), which makes
// idempotent construction observable through the same_instance assertion.
//
// # Scenario Format
//
// Scenarios are YAML (or CUE with the same field names):
//
//	name: lookup_basics
//	description: "first-match lookup"
//	run_id: fixed-run-id          # optional
//	steps:
//	  - add: {id: 1, name: a}
//	  - get: 1
//	    expect: {found: true, record: {id: 1, name: a}}
//	  - add: {name: no-id}
//	    expect: {error: invalid_input}
//	  - ref: second
//	    get: 1
//	    expect: {found: true}
//	assertions:
//	  - type: same_instance
//	  - type: trace_count
//	    op: add
//	    count: 2
//
// # Assertion Types
//
//   - trace_contains: an operation appears in the trace (optionally filtered by id, ref, outcome)
//   - trace_order: operations appear in the given order
//   - trace_count: an operation appears exactly N times
//   - same_instance: all references resolved to the identical store
//
// # Deterministic Testing
//
// Trace events carry seq numbers from a logical clock that restarts for
// every run, and the run id can be pinned with run_id or a fixed generator
// (testutil.FixedRunIDGenerator). Snapshot renders a run as canonical JSON,
// so identical runs compare byte for byte against golden files.
//
// # Isolation
//
// The production store lives for the whole process and cannot be reset.
// Scenarios run back to back in one process see each other's records and
// should use distinct ids. Tests pass their own Provider for isolation.
package harness
