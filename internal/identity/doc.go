// Package identity derives the stable identifier of every renderable sample.
//
// An identifier is a pure function of (text, language, role, cadence): a
// SHA-256 digest of a versioned, NUL-separated canonical key, laid out in a
// UUID-like shape whose two middle groups are a constant per role:
//
//	HHHHHHHH-RRRR-RRRR-HHHH-HHHHHHHHHHHH
//
// The role groups make identifiers visually distinguishable by role while the
// 96 hash-derived bits keep unrelated text collision resistant. Nothing
// depends on insertion order or counters, so a registry rebuilt from scratch
// on any machine lines up with audio rendered by earlier runs. Identifiers
// are not reversible.
//
// Text is compared exactly after NFC composition and trimming of surrounding
// whitespace; strings that differ only in punctuation get distinct ids.
package identity
