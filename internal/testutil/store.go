package testutil

import (
	"fmt"
	"sync"

	"github.com/roach88/recordstore/internal/record"
	"github.com/roach88/recordstore/internal/recordstore"
)

// MemStore is a minimal recordstore.Store double.
//
// Packages that drive the store through a provider function use MemStore in
// tests so that each test gets isolated state; the process-wide store is
// never reset.
type MemStore struct {
	mu      sync.Mutex
	records []record.Record
	// AddErr, when set, is returned by Add instead of storing the record.
	AddErr error
}

// NewMemStore returns an empty MemStore.
func NewMemStore() *MemStore {
	return &MemStore{}
}

// Add appends a copy of rec, or returns AddErr. Records without a
// comparable id are rejected with recordstore.ErrInvalidInput.
func (s *MemStore) Add(rec record.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.AddErr != nil {
		return s.AddErr
	}
	if id, ok := rec.ID(); !ok || !record.Comparable(id) {
		return fmt.Errorf("%w: record has no usable id", recordstore.ErrInvalidInput)
	}
	s.records = append(s.records, rec.Clone())
	return nil
}

// Get returns the first record with a matching id.
func (s *MemStore) Get(id record.Value) (record.Record, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.records {
		rid, _ := r.ID()
		if record.IDEqual(rid, id) {
			return r.Clone(), true
		}
	}
	return nil, false
}

// Len returns the number of stored records.
func (s *MemStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}
