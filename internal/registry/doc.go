// Package registry maps every piece of course text onto the sample identities
// that render it.
//
// Registration is idempotent per (text, role). Target-language text always
// gets two independent renditions; known-language and presentation text get
// one sample each. Text is matched exactly after trimming and NFC
// composition, so near-duplicates that differ only in punctuation remain
// separate samples.
//
// Scan rebuilds a registry from the corpus in a fixed traversal order (seeds,
// units, presentations, baskets). Identifiers are hashed concurrently but
// inserted in that order, so unchanged input always encodes to byte-identical
// JSON. Two distinct keys hashing to the same identifier abort the run with a
// CollisionError; nothing is ever merged silently.
//
// Durations start out null and are filled in from a DurationSource once the
// rendering collaborator has produced audio.
package registry
