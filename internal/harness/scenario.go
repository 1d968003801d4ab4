package harness

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/hashicorp/go-multierror"
	"gopkg.in/yaml.v3"

	"github.com/roach88/recordstore/internal/record"
)

// Scenario defines a sequence of store operations with expectations.
// Each step runs against a store reference obtained from the construction
// path; assertions then check the resulting trace.
type Scenario struct {
	// Name uniquely identifies this scenario.
	Name string `yaml:"name" json:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description" json:"description"`

	// RunID is an optional fixed run id for deterministic traces.
	// If empty, the harness generates one.
	RunID string `yaml:"run_id,omitempty" json:"run_id,omitempty"`

	// Steps are executed in order.
	Steps []Step `yaml:"steps" json:"steps"`

	// Assertions validate the final trace and the references used.
	// Supported types: trace_contains, trace_order, trace_count, same_instance
	Assertions []Assertion `yaml:"assertions,omitempty" json:"assertions,omitempty"`
}

// Step is a single add or get. Exactly one of Add and Get is set.
type Step struct {
	// Ref names the store reference the step runs against.
	// Steps without a ref use DefaultRef.
	Ref string `yaml:"ref,omitempty" json:"ref,omitempty"`

	// Add is the record to append (a mapping).
	Add any `yaml:"add,omitempty" json:"add,omitempty"`

	// Get is the id to look up.
	Get any `yaml:"get,omitempty" json:"get,omitempty"`

	// Expect specifies the expected outcome.
	// If nil, adds must succeed and gets are not checked.
	Expect *Expect `yaml:"expect,omitempty" json:"expect,omitempty"`
}

// Expect specifies the expected outcome of a step.
type Expect struct {
	// Found is the expected lookup result (get only).
	Found *bool `yaml:"found,omitempty" json:"found,omitempty"`

	// Record is the exact record a get must return. Implies found.
	Record map[string]any `yaml:"record,omitempty" json:"record,omitempty"`

	// Error is the expected failure class (add only); "invalid_input" is
	// the only one.
	Error string `yaml:"error,omitempty" json:"error,omitempty"`
}

// Assertion validates the trace or the references.
type Assertion struct {
	// Type specifies the assertion type:
	// - "trace_contains": an operation appears in the trace
	// - "trace_order": operations appear in order
	// - "trace_count": an operation appears exactly N times
	// - "same_instance": every reference resolved to the identical store
	Type string `yaml:"type" json:"type"`

	// Op is the operation name (used by trace_contains, trace_count).
	Op string `yaml:"op,omitempty" json:"op,omitempty"`

	// ID filters trace_contains to events with this id.
	ID any `yaml:"id,omitempty" json:"id,omitempty"`

	// Ref filters trace_contains and trace_count to one reference.
	Ref string `yaml:"ref,omitempty" json:"ref,omitempty"`

	// Outcome filters trace_contains and trace_count by outcome.
	Outcome string `yaml:"outcome,omitempty" json:"outcome,omitempty"`

	// Count is the expected number of occurrences (used by trace_count).
	Count int `yaml:"count,omitempty" json:"count,omitempty"`

	// Ops is the expected operation order (used by trace_order).
	Ops []string `yaml:"ops,omitempty" json:"ops,omitempty"`

	// Refs limits same_instance to these references. Empty means all.
	Refs []string `yaml:"refs,omitempty" json:"refs,omitempty"`
}

// Assertion type constants.
const (
	AssertTraceContains = "trace_contains"
	AssertTraceOrder    = "trace_order"
	AssertTraceCount    = "trace_count"
	AssertSameInstance  = "same_instance"
)

// Operation names as they appear in traces.
const (
	OpAdd = "add"
	OpGet = "get"
)

// Step outcomes.
const (
	OutcomeStored       = "stored"
	OutcomeInvalidInput = "invalid_input"
	OutcomeFound        = "found"
	OutcomeNotFound     = "not_found"
)

// DefaultRef is the reference name for steps that do not set one.
const DefaultRef = "default"

// validIdentifier matches reference names.
var validIdentifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// LoadScenario reads and parses a scenario file. Files ending in .cue are
// evaluated with CUE; everything else is parsed as YAML.
//
// Returns an error if the file doesn't exist, is malformed, contains unknown
// fields (typos), or fails validation. Validation reports every problem
// found, not just the first.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	var scenario *Scenario
	if filepath.Ext(path) == ".cue" {
		scenario, err = parseCUE(path, data)
	} else {
		scenario, err = parseYAML(data)
	}
	if err != nil {
		return nil, err
	}

	if err := Validate(scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return scenario, nil
}

// parseYAML decodes a YAML scenario with strict field validation
// (catches typos like "assertion:" vs "assertions:").
func parseYAML(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	return &scenario, nil
}

// parseCUE evaluates a CUE scenario, exports it as JSON and decodes that with
// the same field names the YAML form uses.
func parseCUE(path string, data []byte) (*Scenario, error) {
	ctx := cuecontext.New()
	value := ctx.CompileBytes(data, cue.Filename(path))
	if err := value.Err(); err != nil {
		return nil, fmt.Errorf("failed to compile CUE: %w", err)
	}
	if err := value.Validate(cue.Concrete(true)); err != nil {
		return nil, fmt.Errorf("CUE scenario is not concrete: %w", err)
	}

	exported, err := value.MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("failed to export CUE: %w", err)
	}

	var scenario Scenario
	decoder := json.NewDecoder(bytes.NewReader(exported))
	decoder.UseNumber()
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to decode CUE scenario: %w", err)
	}
	return &scenario, nil
}

// Validate checks that required fields are present and every step and
// assertion is well formed. All problems are collected into a single
// *multierror.Error.
func Validate(s *Scenario) error {
	var result *multierror.Error

	if s.Name == "" {
		result = multierror.Append(result, fmt.Errorf("name is required"))
	}

	if s.Description == "" {
		result = multierror.Append(result, fmt.Errorf("description is required"))
	}

	if len(s.Steps) == 0 {
		result = multierror.Append(result, fmt.Errorf("steps list is required and must be non-empty"))
	}

	refs := map[string]bool{DefaultRef: false}
	for i, step := range s.Steps {
		if err := validateStep(i, step); err != nil {
			result = multierror.Append(result, err)
		}
		refs[refName(step)] = true
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, assertion, refs); err != nil {
			result = multierror.Append(result, err)
		}
	}

	return result.ErrorOrNil()
}

// validateStep validates a single step.
func validateStep(index int, step Step) error {
	var result *multierror.Error
	fail := func(format string, args ...any) {
		result = multierror.Append(result, fmt.Errorf("steps[%d]: "+format, append([]any{index}, args...)...))
	}

	if step.Ref != "" && !validIdentifier.MatchString(step.Ref) {
		fail("invalid ref %q: must match pattern %s", step.Ref, validIdentifier.String())
	}

	switch {
	case step.Add != nil && step.Get != nil:
		fail("add and get are mutually exclusive")
	case step.Add != nil:
		m, ok := step.Add.(map[string]any)
		if !ok {
			fail("add must be a mapping, got %T", step.Add)
		} else if _, err := record.RecordFromMap(m); err != nil {
			fail("add: %v", err)
		}
		if e := step.Expect; e != nil {
			if e.Found != nil || e.Record != nil {
				fail("expect: found and record apply to get only")
			}
			if e.Error != "" && e.Error != OutcomeInvalidInput {
				fail("expect: unknown error %q (want %q)", e.Error, OutcomeInvalidInput)
			}
		}
	case step.Get != nil:
		if _, err := record.FromAny(step.Get); err != nil {
			fail("get: %v", err)
		}
		if e := step.Expect; e != nil {
			if e.Error != "" {
				fail("expect: error applies to add only; get never fails")
			}
			if e.Record != nil {
				if e.Found != nil && !*e.Found {
					fail("expect: record given with found: false")
				}
				if _, err := record.RecordFromMap(e.Record); err != nil {
					fail("expect.record: %v", err)
				}
			}
		}
	default:
		fail("one of add or get is required")
	}

	return result.ErrorOrNil()
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a Assertion, refs map[string]bool) error {
	var result *multierror.Error
	fail := func(format string, args ...any) {
		result = multierror.Append(result, fmt.Errorf("assertions[%d]: "+format, append([]any{index}, args...)...))
	}

	switch a.Type {
	case "":
		fail("type is required")
	case AssertTraceContains:
		if a.Op == "" {
			fail("op is required for trace_contains")
		} else if !validOp(a.Op) {
			fail("unknown op %q", a.Op)
		}
		if a.ID != nil {
			if _, err := record.FromAny(a.ID); err != nil {
				fail("id: %v", err)
			}
		}
		if a.Outcome != "" && !validOutcome(a.Outcome) {
			fail("unknown outcome %q", a.Outcome)
		}
	case AssertTraceOrder:
		if len(a.Ops) == 0 {
			fail("ops list is required for trace_order")
		}
		for _, op := range a.Ops {
			if !validOp(op) {
				fail("unknown op %q", op)
			}
		}
	case AssertTraceCount:
		if a.Op == "" {
			fail("op is required for trace_count")
		} else if !validOp(a.Op) {
			fail("unknown op %q", a.Op)
		}
		if a.Count < 0 {
			fail("count must be non-negative for trace_count")
		}
		if a.Outcome != "" && !validOutcome(a.Outcome) {
			fail("unknown outcome %q", a.Outcome)
		}
	case AssertSameInstance:
		for _, ref := range a.Refs {
			if used, ok := refs[ref]; !ok || !used {
				fail("same_instance names ref %q which no step uses", ref)
			}
		}
	default:
		fail("unknown assertion type %q", a.Type)
	}

	return result.ErrorOrNil()
}

func validOp(op string) bool {
	return op == OpAdd || op == OpGet
}

func validOutcome(outcome string) bool {
	switch outcome {
	case OutcomeStored, OutcomeInvalidInput, OutcomeFound, OutcomeNotFound:
		return true
	}
	return false
}

func refName(step Step) string {
	if step.Ref == "" {
		return DefaultRef
	}
	return step.Ref
}
