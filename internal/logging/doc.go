// Package logging assembles structured slog loggers and formatting helpers used
// across phrasebook.
//
// It owns the configurable console/JSON handlers, centralizes level and output
// plumbing, and exposes context-aware helpers so build code can automatically
// tag log lines with run IDs, stages, seeds and teaching units. Each build
// also tees its records into a per-run JSON log file that is pruned after the
// configured retention period. The package provides a no-op logger for tests
// and wiring code that cannot fail.
package logging
