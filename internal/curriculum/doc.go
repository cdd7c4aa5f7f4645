// Package curriculum models the teaching order: Seeds decomposed into
// TeachingUnits (LEGOs).
//
// # Key Types
//
// Seed: a known/target sentence pair, identified as S0001.
//
// TeachingUnit: the smallest piece of target-language content introduced to a
// learner. Its identifier encodes the seed index and the local position
// (S0001L02). Units are atomic (one lexical unit) or molecular (an idiom with
// known/target sub-pairs).
//
// Graph: the immutable ordered corpus. The global order is seed index first,
// then local position, so earlier units of the same seed are always visible to
// later ones.
//
// # Invariants
//
// NewGraph rejects structural problems (duplicate ids, gaps in positions,
// misplaced terminal flags). CheckTiling reports every seed whose normalized
// unit fragments do not concatenate to its normalized target sentence. Tiling
// problems are reported, never patched.
package curriculum
