// Package recordstore holds the process-wide record store.
//
// The store is an append-only, insertion-ordered sequence of records with
// two operations:
//   - Add appends a record
//   - Get returns the first record whose id equals the argument
//
// # Singleton
//
// Exactly one store exists per process. It is created on the first call to
// Default and lives until the process exits; there is no constructor for the
// concrete type, no reset and no delete. Every call to Default returns the
// same instance, so records added through one reference are visible through
// all others.
//
// The instance is held in an unexported variable and exposed only through
// the Store interface, so neither the binding nor the operation set can be
// replaced by other packages.
//
// # Ownership
//
// Records are deep-copied on Add and on Get. Callers never alias the
// backing sequence.
//
// # Concurrency
//
// Add takes an exclusive lock; Get and Len share a read lock.
package recordstore
