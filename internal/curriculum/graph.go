package curriculum

import (
	"errors"
	"fmt"
	"slices"
	"sort"

	"phrasebook/internal/lexis"
)

// ErrInvalidGraph marks structural problems in the authored corpus.
var ErrInvalidGraph = errors.New("invalid teaching graph")

// Graph is the immutable ordered set of seeds and their teaching units.
type Graph struct {
	seeds   []Seed
	seedPos map[SeedID]int
	bySeed  map[SeedID][]TeachingUnit
	order   []TeachingUnit
	ordinal map[UnitID]int
}

// NewGraph validates the authored seeds and units and fixes the global
// teaching order. Every structural problem is reported in the returned error.
func NewGraph(seeds []Seed, units map[SeedID][]TeachingUnit) (*Graph, error) {
	var problems []error

	ordered := slices.Clone(seeds)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Index < ordered[j].Index })

	g := &Graph{
		seeds:   ordered,
		seedPos: make(map[SeedID]int, len(ordered)),
		bySeed:  make(map[SeedID][]TeachingUnit, len(ordered)),
		ordinal: make(map[UnitID]int),
	}

	for i, seed := range ordered {
		if _, dup := g.seedPos[seed.ID]; dup {
			problems = append(problems, fmt.Errorf("seed %s: duplicate id", seed.ID))
			continue
		}
		g.seedPos[seed.ID] = i
		if index, err := seed.ID.Index(); err != nil {
			problems = append(problems, err)
		} else if index != seed.Index {
			problems = append(problems, fmt.Errorf("seed %s: index %d does not match id", seed.ID, seed.Index))
		}
		if len(lexis.Normalize(seed.Target)) == 0 {
			problems = append(problems, fmt.Errorf("seed %s: empty target sentence", seed.ID))
		}
	}

	for seedID := range units {
		if _, ok := g.seedPos[seedID]; !ok {
			problems = append(problems, fmt.Errorf("units reference unknown seed %s", seedID))
		}
	}

	for _, seed := range ordered {
		seedUnits := slices.Clone(units[seed.ID])
		sort.SliceStable(seedUnits, func(i, j int) bool { return seedUnits[i].Position < seedUnits[j].Position })
		problems = append(problems, checkSeedUnits(seed, seedUnits)...)
		for i := range seedUnits {
			seedUnits[i].SeedID = seed.ID
			if _, dup := g.ordinal[seedUnits[i].ID]; dup {
				problems = append(problems, fmt.Errorf("unit %s: duplicate id", seedUnits[i].ID))
				continue
			}
			g.ordinal[seedUnits[i].ID] = len(g.order)
			g.order = append(g.order, seedUnits[i])
		}
		g.bySeed[seed.ID] = seedUnits
	}

	if len(problems) > 0 {
		return nil, fmt.Errorf("%w: %w", ErrInvalidGraph, errors.Join(problems...))
	}
	return g, nil
}

func checkSeedUnits(seed Seed, units []TeachingUnit) []error {
	if len(units) == 0 {
		return []error{fmt.Errorf("seed %s: no teaching units", seed.ID)}
	}
	var problems []error
	for i, unit := range units {
		want := i + 1
		if unit.Position != want {
			problems = append(problems, fmt.Errorf("unit %s: position %d, expected %d", unit.ID, unit.Position, want))
		}
		if expected := NewUnitID(seed.Index, unit.Position); unit.ID != expected {
			problems = append(problems, fmt.Errorf("unit %s: id does not encode seed %s position %d (want %s)", unit.ID, seed.ID, unit.Position, expected))
		}
		if unit.SeedID != "" && unit.SeedID != seed.ID {
			problems = append(problems, fmt.Errorf("unit %s: declared seed %s but listed under %s", unit.ID, unit.SeedID, seed.ID))
		}
		last := i == len(units)-1
		if unit.Terminal != last {
			if last {
				problems = append(problems, fmt.Errorf("unit %s: last unit of seed %s must be terminal", unit.ID, seed.ID))
			} else {
				problems = append(problems, fmt.Errorf("unit %s: only the last unit of seed %s may be terminal", unit.ID, seed.ID))
			}
		}
		if len(lexis.Normalize(unit.TargetFragment)) == 0 {
			problems = append(problems, fmt.Errorf("unit %s: empty target fragment", unit.ID))
		}
		switch unit.Kind {
		case KindAtomic:
			if len(unit.SubPairs) > 0 {
				problems = append(problems, fmt.Errorf("unit %s: atomic unit carries sub-pairs", unit.ID))
			}
		case KindMolecular:
			if len(unit.SubPairs) == 0 {
				problems = append(problems, fmt.Errorf("unit %s: molecular unit without sub-pairs", unit.ID))
			}
		default:
			problems = append(problems, fmt.Errorf("unit %s: unknown kind %q", unit.ID, unit.Kind))
		}
	}
	return problems
}

// Seeds returns the seeds in teaching order.
func (g *Graph) Seeds() []Seed {
	return slices.Clone(g.seeds)
}

// Seed looks up a seed by id.
func (g *Graph) Seed(id SeedID) (Seed, bool) {
	pos, ok := g.seedPos[id]
	if !ok {
		return Seed{}, false
	}
	return g.seeds[pos], true
}

// Units returns the units of one seed in local order.
func (g *Graph) Units(seedID SeedID) []TeachingUnit {
	return slices.Clone(g.bySeed[seedID])
}

// Unit looks up a teaching unit by id.
func (g *Graph) Unit(id UnitID) (TeachingUnit, bool) {
	ord, ok := g.ordinal[id]
	if !ok {
		return TeachingUnit{}, false
	}
	return g.order[ord], true
}

// Ordinal returns the 0-based global position of a unit.
func (g *Graph) Ordinal(id UnitID) (int, bool) {
	ord, ok := g.ordinal[id]
	return ord, ok
}

// Len returns the number of teaching units.
func (g *Graph) Len() int {
	return len(g.order)
}

// OrderedUnits returns every unit in global teaching order.
func (g *Graph) OrderedUnits() []TeachingUnit {
	return slices.Clone(g.order)
}

// UnitsBeforeInclusive returns every unit up to and including id.
func (g *Graph) UnitsBeforeInclusive(id UnitID) ([]TeachingUnit, error) {
	ord, ok := g.ordinal[id]
	if !ok {
		return nil, fmt.Errorf("unknown unit %s", id)
	}
	return slices.Clone(g.order[:ord+1]), nil
}

// UnitsBeforeInSeed returns the units of seedID whose local position is
// strictly lower than position.
func (g *Graph) UnitsBeforeInSeed(seedID SeedID, position int) []TeachingUnit {
	var out []TeachingUnit
	for _, unit := range g.bySeed[seedID] {
		if unit.Position >= position {
			break
		}
		out = append(out, unit)
	}
	return out
}

// TerminalUnit returns the last unit of a seed.
func (g *Graph) TerminalUnit(seedID SeedID) (TeachingUnit, bool) {
	units := g.bySeed[seedID]
	if len(units) == 0 {
		return TeachingUnit{}, false
	}
	return units[len(units)-1], true
}
