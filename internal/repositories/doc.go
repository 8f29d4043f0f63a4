// Package repositories implements SQLite persistence for run history.
//
// [RunRepository] records one row per transfer or sync run with atomic
// sequence generation for human-readable ordering. The [NextSequence]
// function atomically increments per-table sequence counters in dedicated
// sequence tables.
package repositories
