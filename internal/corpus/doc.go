// Package corpus loads the authored course files.
//
// A corpus directory holds seeds.yaml, units.yaml, proposals.yaml and an
// optional presentations.yaml. Records are decoded strictly (unknown fields
// are errors) and checked with struct validation before they are turned into
// curriculum values. The loaded Corpus doubles as the phrase and
// presentation source for a build.
package corpus
