package journal

import "github.com/roach88/recordstore/internal/record"

// Run is one scenario execution.
type Run struct {
	ID       string
	Scenario string
}

// Entry is one store operation performed during a run.
type Entry struct {
	RunID string
	Seq   int64
	Ref   string
	Op    string

	// RecordID is the id passed to get, or the id of the added record.
	// Nil when an added record had no id.
	RecordID record.Value

	// Payload is the added record or the record get returned. Nil otherwise.
	Payload record.Record

	Outcome string

	// Fingerprint is the payload's content hash, empty without a payload.
	Fingerprint string
}
