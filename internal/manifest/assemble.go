package manifest

import (
	"phrasebook/internal/basket"
	"phrasebook/internal/buildctx"
	"phrasebook/internal/curriculum"
	"phrasebook/internal/identity"
	"phrasebook/internal/registry"
)

// Options tunes assembly.
type Options struct {
	Course Course
	// Skip excludes seeds that already failed upstream, with the reason.
	Skip map[curriculum.SeedID]error
	// RequireBaskets fails a seed when any of its units lacks an accepted
	// basket. Otherwise such units are emitted without a basket.
	RequireBaskets bool
	Presentations  []registry.Presentation
	Thresholds     basket.Thresholds
}

// Lookup is the read side of a sample registry.
type Lookup interface {
	Sample(text string, role identity.Role) (registry.Sample, bool)
	Options() registry.Options
}

// Assemble builds the manifest in teaching order. Seeds that cannot be
// assembled are left out and reported as failures.
func Assemble(g *curriculum.Graph, baskets map[curriculum.UnitID]*basket.Basket, reg Lookup, opts Options) (*Manifest, []*SeedFailure) {
	if opts.Thresholds == (basket.Thresholds{}) {
		opts.Thresholds = basket.DefaultThresholds
	}
	ro := reg.Options()
	if opts.Course.KnownLanguage == "" {
		opts.Course.KnownLanguage = ro.KnownLanguage
	}
	if opts.Course.TargetLanguage == "" {
		opts.Course.TargetLanguage = ro.TargetLanguage
	}
	presentations := make(map[curriculum.UnitID][]string)
	for _, p := range opts.Presentations {
		presentations[p.Unit] = append(presentations[p.Unit], p.Text)
	}

	m := &Manifest{Version: Version, Course: opts.Course, Seeds: []Seed{}}
	var failures []*SeedFailure
	for _, seed := range g.Seeds() {
		if reason, skip := opts.Skip[seed.ID]; skip {
			failures = append(failures, &SeedFailure{Seed: seed.ID, Err: reason})
			continue
		}
		a := assembler{reg: reg, seed: seed.ID, thresholds: opts.Thresholds}
		entry, err := a.assembleSeed(seed, g.Units(seed.ID), baskets, presentations, opts.RequireBaskets)
		if err != nil {
			failures = append(failures, &SeedFailure{Seed: seed.ID, Err: err})
			continue
		}
		m.Seeds = append(m.Seeds, entry)
		m.Stats.Units += len(entry.Units)
		for _, u := range entry.Units {
			if u.Basket != nil {
				m.Stats.Baskets++
			}
		}
	}
	m.Stats.Seeds = len(m.Seeds)
	m.Stats.Failed = len(failures)
	return m, failures
}

type assembler struct {
	reg        Lookup
	seed       curriculum.SeedID
	unit       curriculum.UnitID
	thresholds basket.Thresholds
}

func (a *assembler) assembleSeed(seed curriculum.Seed, units []curriculum.TeachingUnit, baskets map[curriculum.UnitID]*basket.Basket, presentations map[curriculum.UnitID][]string, requireBaskets bool) (Seed, error) {
	entry := Seed{ID: seed.ID, Units: make([]Unit, 0, len(units))}
	var err error
	if entry.Known, err = a.known(seed.Known); err != nil {
		return Seed{}, err
	}
	if entry.Target, err = a.target(seed.Target); err != nil {
		return Seed{}, err
	}
	for _, unit := range units {
		a.unit = unit.ID
		u, err := a.teachingUnit(unit, baskets[unit.ID], presentations[unit.ID], requireBaskets)
		if err != nil {
			return Seed{}, err
		}
		entry.Units = append(entry.Units, u)
	}
	return entry, nil
}

func (a *assembler) teachingUnit(unit curriculum.TeachingUnit, b *basket.Basket, narration []string, requireBaskets bool) (Unit, error) {
	u := Unit{ID: unit.ID, Kind: unit.Kind, Terminal: unit.Terminal}
	var err error
	if u.Known, err = a.known(unit.KnownGloss); err != nil {
		return Unit{}, err
	}
	if u.Target, err = a.target(unit.TargetFragment); err != nil {
		return Unit{}, err
	}
	for _, text := range narration {
		audio, err := a.audio(text, identity.RolePresentation)
		if err != nil {
			return Unit{}, err
		}
		u.Presentation = append(u.Presentation, audio)
	}
	if !b.Accepted() {
		if requireBaskets {
			return Unit{}, buildctx.Wrap(buildctx.ErrValidation, "assemble", string(unit.ID), "no accepted practice basket", nil)
		}
		return u, nil
	}
	entry := &Basket{Distribution: b.Distribution, Phrases: make([]Phrase, 0, len(b.Phrases))}
	for _, p := range b.Phrases {
		known, err := a.known(p.Known)
		if err != nil {
			return Unit{}, err
		}
		target, err := a.target(p.Target)
		if err != nil {
			return Unit{}, err
		}
		entry.Phrases = append(entry.Phrases, Phrase{Class: a.thresholds.ClassOf(p).String(), Known: known, Target: target})
	}
	u.Basket = entry
	return u, nil
}

func (a *assembler) known(text string) (Audio, error) {
	return a.audio(text, identity.RoleSource)
}

func (a *assembler) target(text string) (Audio, error) {
	return a.audio(text, identity.RoleTargetA, identity.RoleTargetB)
}

func (a *assembler) audio(text string, roles ...identity.Role) (Audio, error) {
	out := Audio{Text: text, Samples: make([]identity.ID, 0, len(roles))}
	for _, role := range roles {
		s, ok := a.reg.Sample(text, role)
		if !ok {
			return Audio{}, &DanglingReferenceError{Seed: a.seed, Unit: a.unit, Text: text, Role: role}
		}
		out.Samples = append(out.Samples, s.ID)
	}
	return out, nil
}
