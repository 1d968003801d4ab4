package harness

import "github.com/roach88/recordstore/internal/record"

// TraceEvent is one store operation as the harness observed it.
type TraceEvent struct {
	Seq int64  `json:"seq"`
	Ref string `json:"ref"`
	Op  string `json:"op"` // "add" or "get"

	// ID is the id passed to get, or the id of the added record.
	// Nil when an added record had no id.
	ID record.Value `json:"id,omitempty"`

	// Record is the added record, or the record get returned.
	Record record.Record `json:"record,omitempty"`

	Outcome string `json:"outcome"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass indicates overall success.
	// True if every step expectation and assertion held.
	Pass bool `json:"pass"`

	// RunID identifies this execution in traces and the journal.
	RunID string `json:"run_id"`

	// Trace contains every operation in seq order.
	Trace []TraceEvent `json:"trace"`

	// Errors contains failure messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// Refs lists the reference names in order of first use.
	Refs []string `json:"refs"`
}

// NewResult creates a new passing result.
func NewResult(runID string) *Result {
	return &Result{
		Pass:   true,
		RunID:  runID,
		Trace:  []TraceEvent{},
		Errors: []string{},
		Refs:   []string{},
	}
}

// AddError adds a failure message and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddTrace appends an event to the trace.
func (r *Result) AddTrace(ev TraceEvent) {
	r.Trace = append(r.Trace, ev)
}
