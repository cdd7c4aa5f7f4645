// Package build runs the course pipeline end to end.
//
// A run loads the corpus, builds the teaching-unit graph, checks tiling,
// builds the vocabulary gate, evaluates every proposed practice basket in
// parallel, registers every spoken text with the sample registry and
// assembles the manifest. Outputs are staged in a temporary directory and
// published into the output directory only when the whole run succeeds,
// under an exclusive lock. Per-run state (baskets, build runs, rendered
// durations) lives in the store.
package build
