package recordstore

import (
	"sync"

	"github.com/samber/lo"

	"github.com/roach88/recordstore/internal/record"
)

// Store is the operation set of the record store.
type Store interface {
	// Add appends rec to the end of the sequence. It fails only when rec has
	// no id or the id is not comparable; nothing is stored in that case.
	Add(rec record.Record) error

	// Get returns the first record whose id equals id, in insertion order.
	// The boolean is false when no record matches. Get never fails.
	Get(id record.Value) (record.Record, bool)

	// Len returns the number of stored records.
	Len() int
}

var (
	instance     *memoryStore
	instanceOnce sync.Once
)

// Default returns the process-wide store, creating it on first use.
// Concurrent first callers all observe the same instance.
func Default() Store {
	instanceOnce.Do(func() {
		instance = newMemoryStore()
	})
	return instance
}

// memoryStore is the only Store implementation.
type memoryStore struct {
	mu      sync.RWMutex
	records []record.Record
}

func newMemoryStore() *memoryStore {
	return &memoryStore{}
}

func (s *memoryStore) Add(rec record.Record) error {
	if err := validate(rec); err != nil {
		return err
	}

	cp := rec.Clone()

	s.mu.Lock()
	s.records = append(s.records, cp)
	s.mu.Unlock()

	return nil
}

func (s *memoryStore) Get(id record.Value) (record.Record, bool) {
	if !record.Comparable(id) {
		return nil, false
	}

	s.mu.RLock()
	found, ok := lo.Find(s.records, func(r record.Record) bool {
		rid, _ := r.ID()
		return record.IDEqual(rid, id)
	})
	s.mu.RUnlock()

	if !ok {
		return nil, false
	}
	return found.Clone(), true
}

func (s *memoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

func validate(rec record.Record) error {
	id, ok := rec.ID()
	if !ok {
		return newInputError(ErrCodeMissingID, "record has no "+record.IDField+" field")
	}
	if !record.Comparable(id) {
		return newInputError(ErrCodeInvalidID, "id must be a string, int or bool, got "+kindOf(id))
	}
	return nil
}

func kindOf(v record.Value) string {
	switch v.(type) {
	case nil, record.Null:
		return "null"
	case record.Array:
		return "array"
	case record.Object, record.Record:
		return "object"
	default:
		return "unknown"
	}
}
