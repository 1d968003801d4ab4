package harness

import (
	"sync/atomic"

	"github.com/google/uuid"
)

// Clock stamps trace events with a strictly increasing seq number.
//
// Ordering uses this logical clock, never wall time, so identical scenarios
// produce identical traces.
//
// Thread-safety: Clock is safe for concurrent use (atomic operations).
type Clock struct {
	seq atomic.Int64
}

// NewClock creates a new clock starting at 0.
func NewClock() *Clock {
	return &Clock{}
}

// Next returns the next sequence number and increments the clock.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the current sequence number without incrementing.
func (c *Clock) Current() int64 {
	return c.seq.Load()
}

// SeqSource is satisfied by Clock and testutil.DeterministicClock.
type SeqSource interface {
	Next() int64
}

// RunIDGenerator produces run ids for scenarios that do not fix one.
type RunIDGenerator interface {
	Generate() string
}

// UUIDGenerator generates UUIDv7 run ids. v7 ids sort by creation time, so
// journaled runs list in the order they started.
type UUIDGenerator struct{}

// Generate returns a new run id.
func (UUIDGenerator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}
