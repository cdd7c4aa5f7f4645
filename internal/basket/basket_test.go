package basket_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"phrasebook/internal/basket"
	"phrasebook/internal/buildctx"
	"phrasebook/internal/curriculum"
	"phrasebook/internal/gate"
	"phrasebook/internal/lexis"
)

type fixture struct {
	graph *curriculum.Graph
	gate  *gate.Gate
	seed  curriculum.Seed
	u1    curriculum.TeachingUnit
	u2    curriculum.TeachingUnit
}

func newFixture(t *testing.T, particles ...string) fixture {
	t.Helper()
	seeds := []curriculum.Seed{{ID: "S0001", Index: 1, Known: "I want coffee", Target: "quiero café"}}
	units := map[curriculum.SeedID][]curriculum.TeachingUnit{
		"S0001": {
			{ID: "S0001L01", Position: 1, Kind: curriculum.KindAtomic, KnownGloss: "I want", TargetFragment: "quiero"},
			{ID: "S0001L02", Position: 2, Kind: curriculum.KindAtomic, KnownGloss: "coffee", TargetFragment: "café", Terminal: true},
		},
	}
	g, err := curriculum.NewGraph(seeds, units)
	require.NoError(t, err)
	u1, _ := g.Unit("S0001L01")
	u2, _ := g.Unit("S0001L02")
	seed, _ := g.Seed("S0001")
	return fixture{graph: g, gate: gate.Build(g, lexis.NewNormalizer(particles...)), seed: seed, u1: u1, u2: u2}
}

func (f fixture) snapshot(t *testing.T, c gate.Cursor) gate.Snapshot {
	t.Helper()
	snap, err := f.gate.Whitelist(c)
	require.NoError(t, err)
	return snap
}

func (f fixture) validator(policy basket.Policy) *basket.Validator {
	return basket.NewValidator(f.gate.Normalizer(), policy)
}

// coffeePhrases is an accepted basket for the terminal unit: 2 short,
// 2 medium (#3, #10), 2 longer, 4 longest.
func coffeePhrases() []basket.Phrase {
	return []basket.Phrase{
		{Known: "coffee", Target: "café"},
		{Known: "I want", Target: "quiero"},
		{Known: "coffee, I want", Target: "café, quiero"},
		{Known: "I really want coffee", Target: "quiero café, quiero"},
		{Known: "I want coffee, coffee", Target: "quiero café, café"},
		{Known: "I want coffee and I want coffee", Target: "quiero café y quiero café"},
		{Known: "coffee, I want coffee, I want", Target: "café, quiero café, quiero"},
		{Known: "I want coffee, I want coffee", Target: "quiero café, quiero café"},
		{Known: "I want coffee and coffee, I want", Target: "quiero café y café, quiero"},
		{Known: "I want coffee", Target: "quiero café"},
	}
}

func TestScenarioBasketAccepted(t *testing.T) {
	f := newFixture(t)
	v := f.validator(basket.DefaultPolicy())
	b := basket.New(f.u2.ID, coffeePhrases())
	require.Equal(t, basket.StateDrafting, b.State)

	require.NoError(t, v.Evaluate(b, f.u2, f.seed, f.snapshot(t, gate.Including(f.u2.ID))))
	assert.Equal(t, basket.StateAccepted, b.State)
	assert.True(t, b.Accepted())
	assert.Nil(t, b.Report)
	assert.Equal(t, basket.RequiredDistribution, b.Distribution)
}

func TestScenarioUntaughtPhraseRejected(t *testing.T) {
	f := newFixture(t)
	v := f.validator(basket.DefaultPolicy())
	phrases := coffeePhrases()
	phrases[0] = basket.Phrase{Known: "please", Target: "por favor"}
	b := basket.New(f.u2.ID, phrases)

	require.NoError(t, v.Evaluate(b, f.u2, f.seed, f.snapshot(t, gate.Including(f.u2.ID))))
	assert.Equal(t, basket.StateRejected, b.State)
	require.NotNil(t, b.Report)
	require.NotNil(t, b.Report.Gate)
	require.Len(t, b.Report.Gate.Phrases, 1)
	assert.Equal(t, 1, b.Report.Gate.Phrases[0].Index)
	assert.Equal(t, []string{"por", "favor"}, b.Report.Gate.Phrases[0].Tokens)
	assert.Nil(t, b.Report.Distribution)

	err := b.Report.Err()
	require.Error(t, err)
	assert.True(t, errors.Is(err, buildctx.ErrValidation))
	var gv *basket.GateViolation
	require.True(t, errors.As(err, &gv))
	assert.Equal(t, buildctx.ScopeBasket, buildctx.FailureScope(gv))
}

func TestValidateReportsAllViolations(t *testing.T) {
	f := newFixture(t)
	v := f.validator(basket.DefaultPolicy())
	snap := f.snapshot(t, gate.Including(f.u1.ID))

	res := v.Validate(basket.Phrase{Target: "¡Quiero té, café y más té!"}, snap)
	assert.False(t, res.Pass)
	assert.Equal(t, []string{"té", "café", "más"}, res.Violations)
}

func TestValidateEmptyWhitelistPasses(t *testing.T) {
	f := newFixture(t)
	v := f.validator(basket.DefaultPolicy())
	res := v.Validate(basket.Phrase{Target: "cualquier cosa"}, f.snapshot(t, gate.Before(f.u1.ID)))
	assert.True(t, res.Pass)
	assert.Empty(t, res.Violations)
}

func TestValidateSingleCharacterPolicy(t *testing.T) {
	f := newFixture(t)
	snap := f.snapshot(t, gate.Including(f.u2.ID))
	phrase := basket.Phrase{Target: "quiero café y café"}

	assert.True(t, f.validator(basket.DefaultPolicy()).Validate(phrase, snap).Pass)

	strict := basket.DefaultPolicy()
	strict.AllowSingleCharacters = false
	res := f.validator(strict).Validate(phrase, snap)
	assert.False(t, res.Pass)
	assert.Equal(t, []string{"y"}, res.Violations)
}

func TestValidateParticlesAlwaysAllowed(t *testing.T) {
	f := newFixture(t, "de", "un")
	snap := f.snapshot(t, gate.Including(f.u2.ID))
	res := f.validator(basket.DefaultPolicy()).Validate(basket.Phrase{Target: "quiero un café de Colombia"}, snap)
	assert.Equal(t, []string{"colombia"}, res.Violations)
}

func TestDistributionViolation(t *testing.T) {
	f := newFixture(t)
	v := f.validator(basket.DefaultPolicy())
	phrases := coffeePhrases()
	phrases[5] = basket.Phrase{Known: "coffee coffee", Target: "café café"}
	b := basket.New(f.u2.ID, phrases)

	require.NoError(t, v.Evaluate(b, f.u2, f.seed, f.snapshot(t, gate.Including(f.u2.ID))))
	assert.Equal(t, basket.StateRejected, b.State)
	require.NotNil(t, b.Report.Distribution)
	assert.Equal(t, basket.Distribution{3, 2, 2, 3}, b.Report.Distribution.Got)
	assert.False(t, b.Report.Distribution.TerminalMismatch)
	assert.Contains(t, b.Report.Distribution.Error(), "length classes 3/2/2/3, want 2/2/2/4")
}

func TestTerminalRule(t *testing.T) {
	f := newFixture(t)
	v := f.validator(basket.DefaultPolicy())
	phrases := coffeePhrases()
	phrases[9], phrases[2] = phrases[2], phrases[9]
	b := basket.New(f.u2.ID, phrases)

	require.NoError(t, v.Evaluate(b, f.u2, f.seed, f.snapshot(t, gate.Including(f.u2.ID))))
	assert.Equal(t, basket.StateRejected, b.State)
	dist := b.Report.Distribution
	require.NotNil(t, dist)
	assert.True(t, dist.TerminalMismatch)
	assert.Equal(t, basket.Phrase{Known: "I want coffee", Target: "quiero café"}, *dist.Expected)
	assert.Equal(t, basket.Phrase{Known: "coffee, I want", Target: "café, quiero"}, *dist.Actual)
}

func TestNonTerminalUnitSkipsTerminalRule(t *testing.T) {
	f := newFixture(t)
	v := f.validator(basket.DefaultPolicy())
	phrases := coffeePhrases()
	phrases[9], phrases[2] = phrases[2], phrases[9]
	for i := range phrases {
		phrases[i].Target = "quiero"
	}
	b := basket.New(f.u1.ID, phrases)
	require.NoError(t, v.Evaluate(b, f.u1, f.seed, f.snapshot(t, gate.Including(f.u1.ID))))
	require.Nil(t, b.Report, "unexpected report: %+v", b.Report)
	assert.Equal(t, basket.StateAccepted, b.State)
}

func TestFormatProblems(t *testing.T) {
	f := newFixture(t)
	v := f.validator(basket.DefaultPolicy())
	phrases := coffeePhrases()[:9]
	phrases[1] = basket.Phrase{Known: "Coffee!", Target: "Café"}
	phrases[3].Target = "  "
	b := basket.New(f.u2.ID, phrases)

	require.NoError(t, v.Evaluate(b, f.u2, f.seed, f.snapshot(t, gate.Including(f.u2.ID))))
	assert.Equal(t, basket.StateRejected, b.State)
	assert.NotContains(t, b.Report.Format, "phrase #2 duplicates #1")
	assert.Contains(t, b.Report.Format, "phrase #4: empty target text")
	require.NotNil(t, b.Report.Distribution)
	assert.Equal(t, 9, b.Report.Distribution.Count)
	assert.True(t, b.Report.Distribution.TerminalMismatch)
	assert.Nil(t, b.Report.Distribution.Actual)
}

func TestRepeatedSeedPairIsAccepted(t *testing.T) {
	f := newFixture(t)
	phrases := coffeePhrases()
	phrases[2] = basket.SeedPhrase(f.seed)
	snap := f.snapshot(t, gate.Including(f.u2.ID))

	b := basket.New(f.u2.ID, phrases)
	require.NoError(t, f.validator(basket.DefaultPolicy()).Evaluate(b, f.u2, f.seed, snap))
	require.Nil(t, b.Report, "unexpected report: %+v", b.Report)
	assert.Equal(t, basket.StateAccepted, b.State)
	assert.Equal(t, basket.Distribution{2, 2, 2, 4}, b.Distribution)

	strict := basket.DefaultPolicy()
	strict.RejectDuplicates = true
	b = basket.New(f.u2.ID, phrases)
	require.NoError(t, f.validator(strict).Evaluate(b, f.u2, f.seed, snap))
	assert.Equal(t, basket.StateRejected, b.State)
	assert.Contains(t, b.Report.Format, "phrase #10 duplicates #3")
}

func TestEvaluateRejectsMisuse(t *testing.T) {
	f := newFixture(t)
	v := f.validator(basket.DefaultPolicy())
	snap := f.snapshot(t, gate.Including(f.u2.ID))

	b := basket.New(f.u2.ID, coffeePhrases())
	require.NoError(t, v.Evaluate(b, f.u2, f.seed, snap))
	assert.Error(t, v.Evaluate(b, f.u2, f.seed, snap), "second evaluation must fail")

	other := basket.New(f.u1.ID, coffeePhrases())
	assert.Error(t, v.Evaluate(other, f.u2, f.seed, snap))
	assert.Error(t, v.Evaluate(nil, f.u2, f.seed, snap))
}

func TestEvaluateAllParallel(t *testing.T) {
	f := newFixture(t)
	v := f.validator(basket.DefaultPolicy())
	snap := f.snapshot(t, gate.Including(f.u2.ID))

	var jobs []basket.Job
	for i := 0; i < 64; i++ {
		phrases := coffeePhrases()
		if i%2 == 1 {
			phrases[0] = basket.Phrase{Known: "tea", Target: "té"}
		}
		jobs = append(jobs, basket.Job{Basket: basket.New(f.u2.ID, phrases), Unit: f.u2, Seed: f.seed, Whitelist: snap})
	}
	require.NoError(t, v.EvaluateAll(context.Background(), jobs, 8))
	for i, job := range jobs {
		if i%2 == 1 {
			assert.Equal(t, basket.StateRejected, job.Basket.State)
		} else {
			assert.Equal(t, basket.StateAccepted, job.Basket.State)
		}
	}
}

func TestEvaluateAllHonoursCancellation(t *testing.T) {
	f := newFixture(t)
	v := f.validator(basket.DefaultPolicy())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	jobs := []basket.Job{{Basket: basket.New(f.u2.ID, coffeePhrases()), Unit: f.u2, Seed: f.seed}}
	err := v.EvaluateAll(ctx, jobs, 2)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestThresholds(t *testing.T) {
	th := basket.DefaultThresholds
	require.NoError(t, th.Validate())
	assert.Equal(t, basket.Short, th.Classify(0))
	assert.Equal(t, basket.Short, th.Classify(2))
	assert.Equal(t, basket.Medium, th.Classify(3))
	assert.Equal(t, basket.Longer, th.Classify(5))
	assert.Equal(t, basket.Longest, th.Classify(6))
	assert.Equal(t, "longest", basket.Longest.String())

	assert.Error(t, basket.Thresholds{Medium: 3, Longer: 3, Longest: 6}.Validate())
	assert.Error(t, basket.Thresholds{Medium: 1, Longer: 3, Longest: 6}.Validate())
}
