package journal

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/recordstore/internal/record"
)

// ReadRuns returns every run in insertion order.
// Returns an empty slice (not nil) for an empty journal.
func (j *Journal) ReadRuns(ctx context.Context) ([]Run, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT id, scenario FROM runs ORDER BY rowid ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		var r Run
		if err := rows.Scan(&r.ID, &r.Scenario); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// ReadRun retrieves a single run by id.
// Returns sql.ErrNoRows if not found.
func (j *Journal) ReadRun(ctx context.Context, id string) (Run, error) {
	var r Run
	err := j.db.QueryRowContext(ctx, `
		SELECT id, scenario FROM runs WHERE id = ?
	`, id).Scan(&r.ID, &r.Scenario)
	if err != nil {
		return Run{}, err
	}
	return r, nil
}

// ReadEntries returns a run's entries ordered by seq.
// Returns an empty slice (not nil) if the run has no entries.
func (j *Journal) ReadEntries(ctx context.Context, runID string) ([]Entry, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT run_id, seq, ref, op, record_id, payload, outcome, fingerprint
		FROM entries
		WHERE run_id = ?
		ORDER BY seq ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query entries: %w", err)
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate entries: %w", err)
	}
	return entries, nil
}

func scanEntry(rows *sql.Rows) (Entry, error) {
	var (
		e                 Entry
		recordID, payload sql.NullString
	)
	if err := rows.Scan(&e.RunID, &e.Seq, &e.Ref, &e.Op, &recordID, &payload, &e.Outcome, &e.Fingerprint); err != nil {
		return Entry{}, fmt.Errorf("scan entry: %w", err)
	}

	if recordID.Valid {
		v, err := record.ParseJSON([]byte(recordID.String))
		if err != nil {
			return Entry{}, fmt.Errorf("entry %d: record id: %w", e.Seq, err)
		}
		e.RecordID = v
	}

	if payload.Valid {
		v, err := record.ParseJSON([]byte(payload.String))
		if err != nil {
			return Entry{}, fmt.Errorf("entry %d: payload: %w", e.Seq, err)
		}
		obj, ok := v.(record.Object)
		if !ok {
			return Entry{}, fmt.Errorf("entry %d: payload is not an object", e.Seq)
		}
		e.Payload = record.Record(obj)
	}

	return e, nil
}
