package lexis

import (
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// LexicalUnit is a normalized token or a fixed idiom string. Two units are
// equal when their normalized text is byte-identical.
type LexicalUnit string

func (u LexicalUnit) String() string { return string(u) }

// Token is a lexical unit with the flags the gate needs.
type Token struct {
	Unit     LexicalUnit
	Single   bool
	Particle bool
}

// Fold applies NFC composition and Unicode case folding without touching
// punctuation or spacing.
func Fold(text string) string {
	// Casers are stateful; one per call keeps Fold safe for concurrent use.
	return cases.Fold().String(norm.NFC.String(text))
}

// Normalize returns the ordered lexical units of text. Empty or
// punctuation-only input yields an empty slice.
func Normalize(text string) []LexicalUnit {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	fields := strings.FieldsFunc(stripPunctuation(Fold(text)), unicode.IsSpace)
	units := make([]LexicalUnit, 0, len(fields))
	for _, field := range fields {
		units = append(units, LexicalUnit(field))
	}
	return units
}

// Join renders units as a single space-separated comparison string.
func Join(units []LexicalUnit) string {
	if len(units) == 0 {
		return ""
	}
	parts := make([]string, len(units))
	for i, unit := range units {
		parts[i] = string(unit)
	}
	return strings.Join(parts, " ")
}

// Key is the canonical comparison form of text.
func Key(text string) string {
	return Join(Normalize(text))
}

// Count returns the number of lexical units in text.
func Count(text string) int {
	return len(Normalize(text))
}

// IsSingleCharacter reports whether the unit is exactly one rune long.
func IsSingleCharacter(unit LexicalUnit) bool {
	return utf8.RuneCountInString(string(unit)) == 1
}

// Normalizer tokenizes text and flags designated particles.
type Normalizer struct {
	particles map[LexicalUnit]struct{}
}

// NewNormalizer builds a normalizer whose particle set is the normalized form
// of each supplied word. Blank entries are ignored.
func NewNormalizer(particles ...string) *Normalizer {
	set := make(map[LexicalUnit]struct{}, len(particles))
	for _, particle := range particles {
		for _, unit := range Normalize(particle) {
			set[unit] = struct{}{}
		}
	}
	return &Normalizer{particles: set}
}

// Tokens returns the flagged lexical units of text.
func (n *Normalizer) Tokens(text string) []Token {
	units := Normalize(text)
	tokens := make([]Token, 0, len(units))
	for _, unit := range units {
		tokens = append(tokens, Token{
			Unit:     unit,
			Single:   IsSingleCharacter(unit),
			Particle: n.IsParticle(unit),
		})
	}
	return tokens
}

// IsParticle reports whether unit belongs to the always-permitted particle set.
func (n *Normalizer) IsParticle(unit LexicalUnit) bool {
	if n == nil {
		return false
	}
	_, ok := n.particles[unit]
	return ok
}

// Particles returns the particle set in sorted order.
func (n *Normalizer) Particles() []LexicalUnit {
	if n == nil {
		return nil
	}
	out := make([]LexicalUnit, 0, len(n.particles))
	for unit := range n.particles {
		out = append(out, unit)
	}
	slices.Sort(out)
	return out
}

func stripPunctuation(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	runes := []rune(text)
	for i, r := range runes {
		switch {
		case isJoiner(r) && i > 0 && i < len(runes)-1 && isWordRune(runes[i-1]) && isWordRune(runes[i+1]):
			if r == '’' || r == 'ʼ' {
				r = '\''
			}
			b.WriteRune(r)
		case unicode.IsPunct(r):
			b.WriteRune(' ')
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

func isJoiner(r rune) bool {
	switch r {
	case '\'', '’', 'ʼ', '-':
		return true
	}
	return false
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.Is(unicode.Mn, r)
}
