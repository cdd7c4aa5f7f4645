// Package basket validates PracticeBaskets: the ten example phrases attached to
// each teaching unit.
//
// A basket moves through DRAFTING → VALIDATING → ACCEPTED | REJECTED. It is
// accepted only when all of the following hold:
//
//   - every target token of every phrase is whitelisted at the unit's cursor,
//     always allowed, or a single character (when that convention is enabled);
//   - the known-text length classes split exactly 2 short, 2 medium,
//     2 longer, 4 longest;
//   - for the terminal unit of a seed, phrase #10 is the seed's own sentence
//     pair.
//
// There is no partial acceptance. A rejected basket carries a Report listing
// every offending token per phrase and every format or distribution problem
// so authors can repair baskets in bulk.
package basket
