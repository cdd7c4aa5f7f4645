package manifest_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"phrasebook/internal/basket"
	"phrasebook/internal/buildctx"
	"phrasebook/internal/curriculum"
	"phrasebook/internal/identity"
	"phrasebook/internal/manifest"
	"phrasebook/internal/registry"
)

var regOpts = registry.Options{KnownLanguage: "en", TargetLanguage: "es", Cadence: identity.CadenceNatural}

func graph(t *testing.T) *curriculum.Graph {
	t.Helper()
	seeds := []curriculum.Seed{
		{ID: "S0001", Index: 1, Known: "I want coffee", Target: "quiero café"},
		{ID: "S0002", Index: 2, Known: "please", Target: "por favor"},
	}
	units := map[curriculum.SeedID][]curriculum.TeachingUnit{
		"S0001": {
			{ID: "S0001L01", Position: 1, Kind: curriculum.KindAtomic, KnownGloss: "I want", TargetFragment: "quiero"},
			{ID: "S0001L02", Position: 2, Kind: curriculum.KindAtomic, KnownGloss: "coffee", TargetFragment: "café", Terminal: true},
		},
		"S0002": {
			{ID: "S0002L01", Position: 1, Kind: curriculum.KindMolecular, KnownGloss: "please", TargetFragment: "por favor", Terminal: true,
				SubPairs: []curriculum.SubPair{{Known: "for", Target: "por"}, {Known: "favour", Target: "favor"}}},
		},
	}
	g, err := curriculum.NewGraph(seeds, units)
	require.NoError(t, err)
	return g
}

func baskets() map[curriculum.UnitID]*basket.Basket {
	return map[curriculum.UnitID]*basket.Basket{
		"S0001L02": {Unit: "S0001L02", State: basket.StateAccepted, Distribution: basket.Distribution{1, 1, 0, 0}, Phrases: []basket.Phrase{
			{Known: "coffee", Target: "café"},
			{Known: "I want coffee", Target: "quiero café"},
		}},
	}
}

func scan(t *testing.T, g *curriculum.Graph, presentations []registry.Presentation) *registry.Registry {
	t.Helper()
	reg, err := registry.Scan(context.Background(), registry.Input{Graph: g, Baskets: baskets(), Presentations: presentations}, regOpts, 2)
	require.NoError(t, err)
	return reg
}

func TestAssembleReferencesRegisteredSamples(t *testing.T) {
	g := graph(t)
	presentations := []registry.Presentation{{Unit: "S0001L01", Text: "Here is how to ask for things."}}
	reg := scan(t, g, presentations)

	m, failures := manifest.Assemble(g, baskets(), reg, manifest.Options{Presentations: presentations})
	require.Empty(t, failures)
	require.Len(t, m.Seeds, 2)
	assert.Equal(t, manifest.Summary{Seeds: 2, Units: 3, Baskets: 1}, m.Stats)
	assert.Equal(t, "es", m.Course.TargetLanguage)

	seed := m.Seeds[0]
	want, ok := reg.Sample("quiero café", identity.RoleTargetA)
	require.True(t, ok)
	assert.Equal(t, want.ID, seed.Target.Samples[0])
	assert.Len(t, seed.Target.Samples, 2)
	assert.Len(t, seed.Known.Samples, 1)

	require.Len(t, seed.Units[0].Presentation, 1)
	assert.Nil(t, seed.Units[0].Basket)
	b := seed.Units[1].Basket
	require.NotNil(t, b)
	assert.Equal(t, "short", b.Phrases[0].Class)
	assert.Equal(t, "medium", b.Phrases[1].Class)
}

func TestDanglingReferenceFailsOnlyItsSeed(t *testing.T) {
	g := graph(t)
	reg := scan(t, g, nil)

	// A basket phrase the registry never saw.
	bs := baskets()
	bs["S0002L01"] = &basket.Basket{Unit: "S0002L01", State: basket.StateAccepted, Phrases: []basket.Phrase{
		{Known: "please, please", Target: "por favor, por favor"},
	}}

	m, failures := manifest.Assemble(g, bs, reg, manifest.Options{})
	require.Len(t, failures, 1)
	assert.Equal(t, curriculum.SeedID("S0002"), failures[0].Seed)

	var dangling *manifest.DanglingReferenceError
	require.True(t, errors.As(failures[0], &dangling))
	assert.Equal(t, "please, please", dangling.Text)
	assert.Equal(t, curriculum.UnitID("S0002L01"), dangling.Unit)
	assert.Equal(t, curriculum.SeedID("S0002"), dangling.Seed)
	assert.ErrorIs(t, failures[0], buildctx.ErrDangling)
	assert.Equal(t, buildctx.ScopeSeed, buildctx.FailureScope(failures[0]))

	require.Len(t, m.Seeds, 1)
	assert.Equal(t, curriculum.SeedID("S0001"), m.Seeds[0].ID)
	assert.Equal(t, 1, m.Stats.Failed)
}

func TestSkippedSeedsAreReported(t *testing.T) {
	g := graph(t)
	reg := scan(t, g, nil)
	reason := errors.New("tiling broken")

	m, failures := manifest.Assemble(g, baskets(), reg, manifest.Options{Skip: map[curriculum.SeedID]error{"S0001": reason}})
	require.Len(t, failures, 1)
	assert.ErrorIs(t, failures[0], reason)
	require.Len(t, m.Seeds, 1)
	assert.Equal(t, curriculum.SeedID("S0002"), m.Seeds[0].ID)
}

func TestRequireBaskets(t *testing.T) {
	g := graph(t)
	reg := scan(t, g, nil)

	m, failures := manifest.Assemble(g, baskets(), reg, manifest.Options{RequireBaskets: true})
	require.Len(t, failures, 2)
	for _, f := range failures {
		assert.ErrorIs(t, f, buildctx.ErrValidation)
	}
	assert.Empty(t, m.Seeds)
}

func TestEncodeIsDeterministic(t *testing.T) {
	g := graph(t)
	first, _ := manifest.Assemble(g, baskets(), scan(t, g, nil), manifest.Options{Course: manifest.Course{Name: "Spanish for travellers"}})
	second, _ := manifest.Assemble(g, baskets(), scan(t, g, nil), manifest.Options{Course: manifest.Course{Name: "Spanish for travellers"}})

	a, err := first.Encode()
	require.NoError(t, err)
	b, err := second.Encode()
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))
	assert.Contains(t, string(a), `"name": "Spanish for travellers"`)
	assert.Contains(t, string(a), `"text": "quiero café"`)
}
