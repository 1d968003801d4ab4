// Package journal provides an SQLite-backed operation journal for harness runs.
//
// The journal is an append-only diagnostics log with two tables:
//   - runs: one row per scenario execution
//   - entries: one row per add/get the run performed
//
// Entries are ordered by seq, the harness's logical clock, never by wall
// time. Record ids and payloads are stored as canonical JSON so that two
// runs of the same scenario produce identical rows.
//
// The journal is write-only from the store's perspective. Nothing in this
// package restores records into a recordstore.Store.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package journal
