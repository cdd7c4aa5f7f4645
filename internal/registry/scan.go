package registry

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"golang.org/x/sync/errgroup"

	"phrasebook/internal/basket"
	"phrasebook/internal/curriculum"
	"phrasebook/internal/identity"
)

// Presentation is narration text attached to a teaching unit.
type Presentation struct {
	Unit curriculum.UnitID `json:"unit" yaml:"unit"`
	Text string            `json:"text" yaml:"text"`
}

// PresentationSource supplies authored presentation strings.
type PresentationSource interface {
	Presentations() []Presentation
}

// Input is everything a scan registers.
type Input struct {
	Graph         *curriculum.Graph
	Baskets       map[curriculum.UnitID]*basket.Basket
	Presentations []Presentation
	// Skip lists seeds excluded from the build; their units and baskets are
	// not registered.
	Skip map[curriculum.SeedID]bool
}

type request struct {
	key identity.Key
	id  identity.ID
}

// Scan builds a registry from the corpus. Only accepted baskets contribute
// phrases. Identifiers are computed with up to workers goroutines.
func Scan(ctx context.Context, in Input, opts Options, workers int) (*Registry, error) {
	reg, err := New(opts)
	if err != nil {
		return nil, err
	}
	if in.Graph == nil {
		return reg, nil
	}
	requests := reg.collect(in)

	group, gctx := errgroup.WithContext(ctx)
	if workers > 0 {
		group.SetLimit(workers)
	}
	for i := range requests {
		group.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			requests[i].id = reg.identify(requests[i].key)
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, fmt.Errorf("compute identities: %w", err)
	}

	for _, req := range requests {
		if _, err := reg.insert(req.key, req.id); err != nil {
			return nil, err
		}
	}
	return reg, nil
}

// collect lists canonical keys in traversal order, dropping repeats and
// blank text.
func (r *Registry) collect(in Input) []request {
	var out []request
	seen := make(map[identity.Key]bool)
	add := func(text, language string, role identity.Role) {
		if strings.TrimSpace(text) == "" {
			return
		}
		key := identity.Key{Text: text, Language: language, Role: role, Cadence: r.opts.Cadence}.Canonical()
		if seen[key] {
			return
		}
		seen[key] = true
		out = append(out, request{key: key})
	}
	known := func(text string) { add(text, r.opts.KnownLanguage, identity.RoleSource) }
	target := func(text string) {
		add(text, r.opts.TargetLanguage, identity.RoleTargetA)
		add(text, r.opts.TargetLanguage, identity.RoleTargetB)
	}

	var seeds []curriculum.Seed
	for _, seed := range in.Graph.Seeds() {
		if !in.Skip[seed.ID] {
			seeds = append(seeds, seed)
		}
	}
	for _, seed := range seeds {
		known(seed.Known)
		target(seed.Target)
	}
	for _, seed := range seeds {
		for _, unit := range in.Graph.Units(seed.ID) {
			known(unit.KnownGloss)
			target(unit.TargetFragment)
		}
	}
	for _, p := range orderPresentations(in.Graph, in.Presentations) {
		if seedID, err := p.Unit.Seed(); err == nil && in.Skip[seedID] {
			continue
		}
		add(p.Text, r.opts.KnownLanguage, identity.RolePresentation)
	}
	for _, seed := range seeds {
		for _, unit := range in.Graph.Units(seed.ID) {
			b := in.Baskets[unit.ID]
			if b == nil || !b.Accepted() {
				continue
			}
			for _, phrase := range b.Phrases {
				known(phrase.Known)
				target(phrase.Target)
			}
		}
	}
	return out
}

// orderPresentations sorts presentations by teaching order, keeping authored
// order within a unit. Presentations for unknown units sort last.
func orderPresentations(g *curriculum.Graph, items []Presentation) []Presentation {
	sorted := slices.Clone(items)
	rank := func(p Presentation) int {
		if ord, ok := g.Ordinal(p.Unit); ok {
			return ord
		}
		return g.Len()
	}
	slices.SortStableFunc(sorted, func(a, b Presentation) int {
		return rank(a) - rank(b)
	})
	return sorted
}
