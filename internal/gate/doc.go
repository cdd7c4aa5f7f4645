// Package gate computes the vocabulary whitelist visible at any cursor in the
// teaching order.
//
// Build walks the global unit order exactly once and records the ordinal at
// which every lexical unit first becomes visible. A Snapshot is then a cheap
// view (gate, limit): membership is a single map lookup and two snapshots at
// different cursors never copy the vocabulary. Because the walk is sequential
// and the gate is immutable afterwards, snapshots may be shared by any number
// of goroutines validating baskets in parallel.
//
// The always-allowed particle set is consulted by Snapshot.Allows but is not
// part of Snapshot.Units, so the whitelist before the first unit is empty.
package gate
