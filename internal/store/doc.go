// Package store persists build state in SQLite.
//
// Three tables back a course build: baskets holds the latest evaluated
// practice basket per teaching unit, sample_durations holds the durations
// reported by the audio renderer, and build_runs records one row per build.
// The Store implements registry.DurationSource so every build merges known
// durations into a freshly scanned registry.
//
// Schema changes bump schemaVersion in schema.go; users delete the state
// database to adopt the new schema.
package store
