package gate

import (
	"fmt"
	"slices"

	"phrasebook/internal/curriculum"
	"phrasebook/internal/lexis"
)

// Cursor names a point in the teaching order: just before a unit, or just
// after it.
type Cursor struct {
	Unit      curriculum.UnitID
	Inclusive bool
}

// Before returns the cursor preceding id.
func Before(id curriculum.UnitID) Cursor { return Cursor{Unit: id} }

// Including returns the cursor immediately after id.
func Including(id curriculum.UnitID) Cursor { return Cursor{Unit: id, Inclusive: true} }

func (c Cursor) String() string {
	if c.Inclusive {
		return "including " + string(c.Unit)
	}
	return "before " + string(c.Unit)
}

type introduction struct {
	unit    lexis.LexicalUnit
	tokens  []lexis.LexicalUnit
	ordinal int
}

// Gate holds the introduction ordinal of every lexical unit in a graph.
type Gate struct {
	graph      *curriculum.Graph
	normalizer *lexis.Normalizer
	unitIDs    []curriculum.UnitID
	firstSeen  map[lexis.LexicalUnit]int
	intros     []introduction
	// visible[k] is the number of intros whose ordinal is below k.
	visible []int
}

// Build walks the graph in teaching order and records every introduction.
// normalizer supplies the always-allowed particle set and may be nil.
func Build(g *curriculum.Graph, normalizer *lexis.Normalizer) *Gate {
	gt := &Gate{
		graph:      g,
		normalizer: normalizer,
		firstSeen:  make(map[lexis.LexicalUnit]int),
		visible:    make([]int, 0, g.Len()+1),
	}
	gt.visible = append(gt.visible, 0)
	for ordinal, unit := range g.OrderedUnits() {
		gt.unitIDs = append(gt.unitIDs, unit.ID)
		for _, text := range unitTexts(unit) {
			tokens := lexis.Normalize(text)
			for _, token := range tokens {
				gt.introduce(token, []lexis.LexicalUnit{token}, ordinal)
			}
			if len(tokens) > 1 {
				gt.introduce(lexis.LexicalUnit(lexis.Join(tokens)), tokens, ordinal)
			}
		}
		gt.visible = append(gt.visible, len(gt.intros))
	}
	return gt
}

// unitTexts lists the target strings a unit makes visible: the fragment and,
// for molecular units, every sub-pair target.
func unitTexts(unit curriculum.TeachingUnit) []string {
	texts := []string{unit.TargetFragment}
	if unit.Molecular() {
		for _, pair := range unit.SubPairs {
			texts = append(texts, pair.Target)
		}
	}
	return texts
}

func (g *Gate) introduce(unit lexis.LexicalUnit, tokens []lexis.LexicalUnit, ordinal int) {
	if _, seen := g.firstSeen[unit]; seen {
		return
	}
	g.firstSeen[unit] = ordinal
	g.intros = append(g.intros, introduction{unit: unit, tokens: tokens, ordinal: ordinal})
}

// Whitelist returns the snapshot visible at the cursor.
func (g *Gate) Whitelist(c Cursor) (Snapshot, error) {
	ordinal, ok := g.graph.Ordinal(c.Unit)
	if !ok {
		return Snapshot{}, fmt.Errorf("whitelist %s: unknown unit", c)
	}
	limit := ordinal
	if c.Inclusive {
		limit++
	}
	return Snapshot{gate: g, limit: limit, cursor: c}, nil
}

// ForUnit returns the snapshot a unit's practice basket is validated against:
// everything taught up to and including the unit itself.
func (g *Gate) ForUnit(id curriculum.UnitID) (Snapshot, error) {
	return g.Whitelist(Including(id))
}

// IntroducedBy returns the unit that first makes a lexical unit visible.
func (g *Gate) IntroducedBy(unit lexis.LexicalUnit) (curriculum.UnitID, bool) {
	ordinal, ok := g.firstSeen[unit]
	if !ok {
		return "", false
	}
	return g.unitIDs[ordinal], true
}

// AlwaysAllowed returns the particle set permitted at every cursor.
func (g *Gate) AlwaysAllowed() []lexis.LexicalUnit {
	return g.normalizer.Particles()
}

// Normalizer returns the normalizer the gate was built with.
func (g *Gate) Normalizer() *lexis.Normalizer {
	return g.normalizer
}

// Snapshot is the whitelist visible at one cursor.
type Snapshot struct {
	gate   *Gate
	limit  int
	cursor Cursor
}

// Cursor returns the cursor the snapshot was taken at.
func (s Snapshot) Cursor() Cursor { return s.cursor }

// Len returns the number of taught lexical units, idioms included.
func (s Snapshot) Len() int {
	if s.gate == nil {
		return 0
	}
	return s.gate.visible[s.limit]
}

// Empty reports whether nothing has been taught yet.
func (s Snapshot) Empty() bool { return s.Len() == 0 }

// Contains reports whether unit has been taught at this cursor.
func (s Snapshot) Contains(unit lexis.LexicalUnit) bool {
	if s.gate == nil {
		return false
	}
	ordinal, ok := s.gate.firstSeen[unit]
	return ok && ordinal < s.limit
}

// Allows reports whether unit is taught or always allowed.
func (s Snapshot) Allows(unit lexis.LexicalUnit) bool {
	if s.Contains(unit) {
		return true
	}
	return s.gate != nil && s.gate.normalizer.IsParticle(unit)
}

// Units returns the taught lexical units in introduction order.
func (s Snapshot) Units() []lexis.LexicalUnit {
	if s.gate == nil {
		return nil
	}
	n := s.Len()
	out := make([]lexis.LexicalUnit, 0, n)
	for _, intro := range s.gate.intros[:n] {
		out = append(out, intro.unit)
	}
	return out
}

// Idioms returns the taught multi-token units, longest first.
func (s Snapshot) Idioms() [][]lexis.LexicalUnit {
	if s.gate == nil {
		return nil
	}
	var out [][]lexis.LexicalUnit
	for _, intro := range s.gate.intros[:s.Len()] {
		if len(intro.tokens) > 1 {
			out = append(out, intro.tokens)
		}
	}
	slices.SortStableFunc(out, func(a, b []lexis.LexicalUnit) int { return len(b) - len(a) })
	return out
}

// Subset reports whether every unit of s is visible in other.
func (s Snapshot) Subset(other Snapshot) bool {
	for _, unit := range s.Units() {
		if !other.Contains(unit) {
			return false
		}
	}
	return true
}
