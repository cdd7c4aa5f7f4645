// Command phrasebook builds vocabulary-gated phrasebook courses.
//
// The build command validates every practice basket against the words taught
// so far, registers every spoken text with a deterministic sample identifier
// and writes the course manifest. Inspection commands expose the pieces of
// that pipeline: validate (dry run), whitelist, identify, decompose, samples
// and status.
package main
