package curriculum

import (
	"fmt"
	"strings"
	"unicode"

	"phrasebook/internal/buildctx"
	"phrasebook/internal/lexis"
)

// TilingViolation reports a seed whose unit fragments do not reconstruct its
// target sentence. It is fatal for that seed.
type TilingViolation struct {
	Seed     SeedID
	Sentence string
	Tiled    string
}

func (v *TilingViolation) Error() string {
	return fmt.Sprintf("seed %s: fragments tile to %q, sentence is %q", v.Seed, v.Tiled, v.Sentence)
}

// ErrorScope marks tiling violations as seed-fatal.
func (v *TilingViolation) ErrorScope() buildctx.Scope { return buildctx.ScopeSeed }

func (v *TilingViolation) Unwrap() error { return buildctx.ErrIntegrity }

// CheckSeedTiling compares the normalized concatenation of unit fragments with
// the normalized target sentence. Scripts written without spaces are compared
// with whitespace removed.
func CheckSeedTiling(seed Seed, units []TeachingUnit) *TilingViolation {
	sentence := lexis.Key(seed.Target)
	parts := make([]string, 0, len(units))
	for _, unit := range units {
		if key := lexis.Key(unit.TargetFragment); key != "" {
			parts = append(parts, key)
		}
	}
	tiled := strings.Join(parts, " ")
	if tiled == sentence {
		return nil
	}
	if unspaced(seed.Target) && compact(tiled) == compact(sentence) {
		return nil
	}
	return &TilingViolation{Seed: seed.ID, Sentence: sentence, Tiled: tiled}
}

// CheckTiling returns one violation per broken seed in teaching order.
func (g *Graph) CheckTiling() []*TilingViolation {
	var out []*TilingViolation
	for _, seed := range g.seeds {
		if v := CheckSeedTiling(seed, g.bySeed[seed.ID]); v != nil {
			out = append(out, v)
		}
	}
	return out
}

func unspaced(text string) bool {
	for _, r := range text {
		if unicode.In(r, unicode.Han, unicode.Hiragana, unicode.Katakana, unicode.Thai, unicode.Lao, unicode.Khmer, unicode.Myanmar) {
			return true
		}
	}
	return false
}

func compact(text string) string {
	return strings.Join(strings.Fields(text), "")
}
