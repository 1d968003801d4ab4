package journal

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/recordstore/internal/record"
)

// WriteRun inserts a run.
// Uses ON CONFLICT(id) DO NOTHING for idempotency - rewriting a run is a no-op.
func (j *Journal) WriteRun(ctx context.Context, run Run) error {
	_, err := j.db.ExecContext(ctx, `
		INSERT INTO runs (id, scenario)
		VALUES (?, ?)
		ON CONFLICT(id) DO NOTHING
	`, run.ID, run.Scenario)
	if err != nil {
		return fmt.Errorf("write run: %w", err)
	}
	return nil
}

// WriteEntry inserts an operation entry.
// Uses ON CONFLICT(run_id, seq) DO NOTHING for idempotency.
//
// The run referenced by RunID must exist (foreign key constraint).
func (j *Journal) WriteEntry(ctx context.Context, e Entry) error {
	recordID, err := marshalNullable(e.RecordID)
	if err != nil {
		return fmt.Errorf("write entry: record id: %w", err)
	}

	var payload sql.NullString
	if e.Payload != nil {
		payload, err = marshalNullable(e.Payload)
		if err != nil {
			return fmt.Errorf("write entry: payload: %w", err)
		}
	}

	_, err = j.db.ExecContext(ctx, `
		INSERT INTO entries
		(run_id, seq, ref, op, record_id, payload, outcome, fingerprint)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(run_id, seq) DO NOTHING
	`,
		e.RunID,
		e.Seq,
		e.Ref,
		e.Op,
		recordID,
		payload,
		e.Outcome,
		e.Fingerprint,
	)
	if err != nil {
		return fmt.Errorf("write entry: %w", err)
	}
	return nil
}

// marshalNullable stores nil as SQL NULL and everything else as canonical JSON.
func marshalNullable(v record.Value) (sql.NullString, error) {
	if v == nil {
		return sql.NullString{}, nil
	}
	data, err := record.MarshalCanonical(v)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}
