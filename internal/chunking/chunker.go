package chunking

import (
	"strings"
	"unicode"

	"phrasebook/internal/curriculum"
	"phrasebook/internal/lexis"
)

// Chunk is one proposed slice of a sentence.
type Chunk struct {
	Text  string
	Words []string
	Rule  string
	Kind  curriculum.UnitKind
}

// Chunker splits sentences with a fixed rule list.
type Chunker struct {
	rules []Rule
}

// New builds a chunker over the given word lists.
func New(lists Lists) *Chunker {
	return &Chunker{rules: newClasses(lists).rules()}
}

// Rules returns the rule names in priority order.
func (c *Chunker) Rules() []string {
	names := make([]string, 0, len(c.rules)+1)
	for _, r := range c.rules {
		names = append(names, r.Name)
	}
	return append(names, RuleSingle)
}

// Split breaks text into chunks. Leading and trailing punctuation is trimmed
// from every word and punctuation-only words are dropped.
func (c *Chunker) Split(text string) []Chunk {
	var words, keys []string
	for _, field := range strings.Fields(text) {
		word := strings.TrimFunc(field, unicode.IsPunct)
		key := lexis.Key(word)
		if key == "" {
			continue
		}
		words = append(words, word)
		keys = append(keys, key)
	}

	var chunks []Chunk
	for i := 0; i < len(words); {
		n, rule := 1, RuleSingle
		for _, r := range c.rules {
			if m := r.Match(keys, i); m > 0 {
				n, rule = m, r.Name
				break
			}
		}
		chunk := Chunk{
			Text:  strings.Join(words[i:i+n], " "),
			Words: append([]string(nil), words[i:i+n]...),
			Rule:  rule,
			Kind:  curriculum.KindAtomic,
		}
		if n > 1 {
			chunk.Kind = curriculum.KindMolecular
		}
		chunks = append(chunks, chunk)
		i += n
	}
	return chunks
}

// Propose returns draft teaching units for the seed. Molecular units carry
// one sub-pair per word; every known gloss is blank.
func (c *Chunker) Propose(seed curriculum.Seed) []curriculum.TeachingUnit {
	chunks := c.Split(seed.Target)
	units := make([]curriculum.TeachingUnit, 0, len(chunks))
	for i, chunk := range chunks {
		position := i + 1
		unit := curriculum.TeachingUnit{
			ID:             curriculum.NewUnitID(seed.Index, position),
			SeedID:         seed.ID,
			Position:       position,
			Kind:           chunk.Kind,
			TargetFragment: chunk.Text,
			Terminal:       position == len(chunks),
		}
		if chunk.Kind == curriculum.KindMolecular {
			for _, word := range chunk.Words {
				unit.SubPairs = append(unit.SubPairs, curriculum.SubPair{Target: word})
			}
		}
		units = append(units, unit)
	}
	return units
}
