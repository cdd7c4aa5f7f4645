package basket

import (
	"errors"
	"fmt"
	"strings"

	"phrasebook/internal/curriculum"
	"phrasebook/internal/lexis"
)

// Size is the number of phrases in every practice basket.
const Size = 10

// Phrase is one candidate known/target pair.
type Phrase struct {
	Known  string `json:"known" yaml:"known"`
	Target string `json:"target" yaml:"target"`
}

// Equal compares phrases verbatim, ignoring surrounding whitespace only.
func (p Phrase) Equal(other Phrase) bool {
	return strings.TrimSpace(p.Known) == strings.TrimSpace(other.Known) &&
		strings.TrimSpace(p.Target) == strings.TrimSpace(other.Target)
}

// SeedPhrase returns the seed's own sentence pair.
func SeedPhrase(seed curriculum.Seed) Phrase {
	return Phrase{Known: seed.Known, Target: seed.Target}
}

// LengthClass buckets phrases by known-text token count.
type LengthClass int

const (
	Short LengthClass = iota
	Medium
	Longer
	Longest
)

func (c LengthClass) String() string {
	switch c {
	case Short:
		return "short"
	case Medium:
		return "medium"
	case Longer:
		return "longer"
	case Longest:
		return "longest"
	default:
		return fmt.Sprintf("LengthClass(%d)", int(c))
	}
}

// Distribution counts phrases per length class, indexed by LengthClass.
type Distribution [4]int

// RequiredDistribution is the only accepted split.
var RequiredDistribution = Distribution{2, 2, 2, 4}

func (d Distribution) String() string {
	return fmt.Sprintf("%d/%d/%d/%d", d[Short], d[Medium], d[Longer], d[Longest])
}

// Thresholds holds the minimum known-text token count of each class above
// short.
type Thresholds struct {
	Medium  int `json:"medium"`
	Longer  int `json:"longer"`
	Longest int `json:"longest"`
}

// DefaultThresholds: short ≤ 2, medium 3, longer 4–5, longest ≥ 6.
var DefaultThresholds = Thresholds{Medium: 3, Longer: 4, Longest: 6}

// Validate ensures the thresholds are strictly increasing and positive.
func (t Thresholds) Validate() error {
	if t.Medium < 2 {
		return errors.New("medium threshold must be at least 2")
	}
	if t.Longer <= t.Medium || t.Longest <= t.Longer {
		return fmt.Errorf("thresholds must increase: medium=%d longer=%d longest=%d", t.Medium, t.Longer, t.Longest)
	}
	return nil
}

// Classify maps a token count onto a length class.
func (t Thresholds) Classify(tokens int) LengthClass {
	switch {
	case tokens >= t.Longest:
		return Longest
	case tokens >= t.Longer:
		return Longer
	case tokens >= t.Medium:
		return Medium
	default:
		return Short
	}
}

// ClassOf returns the length class of a phrase's known text.
func (t Thresholds) ClassOf(p Phrase) LengthClass {
	return t.Classify(lexis.Count(p.Known))
}

// Tally counts phrases per class.
func (t Thresholds) Tally(phrases []Phrase) Distribution {
	var d Distribution
	for _, p := range phrases {
		d[t.ClassOf(p)]++
	}
	return d
}
