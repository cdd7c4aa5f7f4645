// Package lexis splits course text into comparable lexical units.
//
// Normalization is deliberately shallow: NFC composition, Unicode case
// folding, sentence punctuation removal and whitespace splitting. There is no
// stemming or lemmatization, so "quiero" and "quieres" are distinct units.
// Word-internal apostrophes and hyphens survive ("l'eau", "bien-être").
//
// A Normalizer additionally flags tokens that are always permitted by the
// vocabulary gate: single characters and a configured particle set.
package lexis
