package testutil

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/recordstore/internal/record"
	"github.com/roach88/recordstore/internal/recordstore"
)

func TestMemStore_FirstMatch(t *testing.T) {
	s := NewMemStore()
	require.NoError(t, s.Add(record.Record{"id": record.Int(1), "v": record.String("a")}))
	require.NoError(t, s.Add(record.Record{"id": record.Int(1), "v": record.String("b")}))

	got, ok := s.Get(record.Int(1))
	require.True(t, ok)
	assert.Equal(t, record.String("a"), got["v"])
	assert.Equal(t, 2, s.Len())

	_, ok = s.Get(record.Int(2))
	assert.False(t, ok)
}

func TestMemStore_ThreadSafe(t *testing.T) {
	s := NewMemStore()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_ = s.Add(record.Record{"id": record.Int(i*100 + j)})
				_, _ = s.Get(record.Int(j))
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1000, s.Len())
}

func TestMemStore_RejectsUnusableIDs(t *testing.T) {
	s := NewMemStore()

	err := s.Add(record.Record{"name": record.String("no-id")})
	assert.ErrorIs(t, err, recordstore.ErrInvalidInput)
	err = s.Add(record.Record{"id": record.Null{}})
	assert.ErrorIs(t, err, recordstore.ErrInvalidInput)
	assert.Equal(t, 0, s.Len())
}

func TestMemStore_AddErr(t *testing.T) {
	s := NewMemStore()
	s.AddErr = errors.New("boom")

	assert.EqualError(t, s.Add(record.Record{"id": record.Int(1)}), "boom")
	assert.Equal(t, 0, s.Len())
}
