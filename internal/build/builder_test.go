package build_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/gofrs/flock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"phrasebook/internal/basket"
	"phrasebook/internal/build"
	"phrasebook/internal/buildctx"
	"phrasebook/internal/config"
	"phrasebook/internal/curriculum"
	"phrasebook/internal/identity"
	"phrasebook/internal/logging"
	"phrasebook/internal/store"
	"phrasebook/internal/testsupport"
)

func newBuilder(t *testing.T, cfg *config.Config, st *store.Store) *build.Builder {
	t.Helper()
	b, err := build.New(cfg, st, logging.NewNop())
	require.NoError(t, err)
	return b
}

func coffeeConfig(t *testing.T, opts ...testsupport.ConfigOption) *config.Config {
	return testsupport.NewConfig(t, append([]testsupport.ConfigOption{testsupport.WithCorpus(testsupport.CoffeeCorpus())}, opts...)...)
}

func TestRunPublishesCoffeeCourse(t *testing.T) {
	cfg := coffeeConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	res, err := newBuilder(t, cfg, st).Run(context.Background())
	require.NoError(t, err)
	require.NoError(t, res.Err())

	assert.Equal(t, store.RunStats{Seeds: 2, Units: 4, Accepted: 1, Rejected: 0, Samples: res.Registry.Len(), FailedSeeds: 0}, res.Stats)
	require.Len(t, res.Manifest.Seeds, 2)

	coffee := res.Manifest.Seeds[0]
	assert.Equal(t, curriculum.SeedID("S0001"), coffee.ID)
	require.Len(t, coffee.Units, 2)
	assert.Nil(t, coffee.Units[0].Basket)
	assert.Len(t, coffee.Units[0].Presentation, 1)
	require.NotNil(t, coffee.Units[1].Basket)
	assert.Len(t, coffee.Units[1].Basket.Phrases, basket.Size)
	assert.Equal(t, "quiero café", coffee.Units[1].Basket.Phrases[basket.Size-1].Target.Text)

	seedTarget, ok := res.Registry.Sample("quiero café", identity.RoleTargetA)
	require.True(t, ok)
	assert.Equal(t, seedTarget.ID, coffee.Target.Samples[0])

	for _, name := range build.OutputFiles {
		info, err := os.Stat(filepath.Join(cfg.Paths.OutputDir, name))
		require.NoError(t, err, name)
		assert.Positive(t, info.Size(), name)
	}
	assert.Len(t, res.Published, len(build.OutputFiles))

	entries, err := os.ReadDir(cfg.Paths.OutputDir)
	require.NoError(t, err)
	for _, entry := range entries {
		assert.NotContains(t, entry.Name(), ".staging-", "staging directories are removed")
	}

	run, err := st.GetRun(context.Background(), res.RunID)
	require.NoError(t, err)
	require.NotNil(t, run)
	assert.Equal(t, store.RunSucceeded, run.Status)
	assert.Equal(t, res.Stats, run.Stats)

	stored, err := st.GetBasket(context.Background(), "S0001L02")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, basket.StateAccepted, stored.State)

	_, err = os.Stat(logging.RunLogPath(cfg.Paths.LogDir, res.RunID))
	assert.NoError(t, err, "per-run log written")
}

func TestRunIsReproducible(t *testing.T) {
	cfg := coffeeConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	b := newBuilder(t, cfg, st)

	first, err := b.Run(context.Background())
	require.NoError(t, err)
	registryOne, err := os.ReadFile(filepath.Join(cfg.Paths.OutputDir, build.RegistryFile))
	require.NoError(t, err)
	manifestOne, err := os.ReadFile(filepath.Join(cfg.Paths.OutputDir, build.ManifestFile))
	require.NoError(t, err)

	second, err := b.Run(context.Background())
	require.NoError(t, err)
	registryTwo, err := os.ReadFile(filepath.Join(cfg.Paths.OutputDir, build.RegistryFile))
	require.NoError(t, err)
	manifestTwo, err := os.ReadFile(filepath.Join(cfg.Paths.OutputDir, build.ManifestFile))
	require.NoError(t, err)

	assert.NotEqual(t, first.RunID, second.RunID)
	assert.Equal(t, string(registryOne), string(registryTwo))
	assert.Equal(t, string(manifestOne), string(manifestTwo))
	assert.Equal(t, 1, first.Changed)
	assert.Zero(t, second.Changed, "unchanged baskets are not rewritten")
}

func TestRunMergesRecordedDurations(t *testing.T) {
	cfg := coffeeConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	id, err := identity.Identify("quiero café", cfg.Course.TargetLanguage, identity.RoleTargetB, identity.CadenceNatural)
	require.NoError(t, err)
	require.NoError(t, st.RecordDuration(context.Background(), id, 1.75))

	res, err := newBuilder(t, cfg, st).Run(context.Background())
	require.NoError(t, err)

	sample, ok := res.Registry.Sample("quiero café", identity.RoleTargetB)
	require.True(t, ok)
	require.NotNil(t, sample.Duration)
	assert.Equal(t, 1.75, *sample.Duration)
	assert.NotContains(t, res.Registry.Pending(), id)
}

func TestRequiredBasketsFailSeeds(t *testing.T) {
	cfg := coffeeConfig(t, testsupport.WithRequiredBaskets())

	res, err := newBuilder(t, cfg, nil).Run(context.Background())
	require.NoError(t, err, "seed failures do not abort the run")
	assert.Empty(t, res.Manifest.Seeds)
	require.Len(t, res.Failures, 2)
	assert.ErrorIs(t, res.Err(), buildctx.ErrValidation)
	assert.Equal(t, 2, res.Stats.FailedSeeds)
}

func TestTilingViolationSkipsSeed(t *testing.T) {
	files := testsupport.CoffeeCorpus()
	files["units.yaml"] = `units:
  - {id: S0001L01, known: I want, target: quiero}
  - {id: S0001L02, known: coffee, target: café, terminal: true}
  - {id: S0002L01, known: now, target: ahora}
  - {id: S0002L02, known: "yes", target: sí, terminal: true}
`
	cfg := testsupport.NewConfig(t, testsupport.WithCorpus(files))

	res, err := newBuilder(t, cfg, nil).Run(context.Background())
	require.NoError(t, err)
	require.Len(t, res.Tiling, 1)
	assert.Equal(t, curriculum.SeedID("S0002"), res.Tiling[0].Seed)

	require.Len(t, res.Manifest.Seeds, 1)
	require.Len(t, res.Failures, 1)
	assert.ErrorIs(t, res.Failures[0], buildctx.ErrIntegrity)
	assert.Equal(t, buildctx.ScopeSeed, buildctx.FailureScope(res.Failures[0].Err))

	_, registered := res.Registry.Sample("ahora no", identity.RoleTargetA)
	assert.False(t, registered, "skipped seeds are not registered")
}

func TestSingleCharacterTokensPassByDefault(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithCorpus(testsupport.WithConjunction(testsupport.CoffeeCorpus())))
	require.True(t, cfg.Basket.AllowSingleCharacters)

	res, err := newBuilder(t, cfg, nil).Check(context.Background())
	require.NoError(t, err)
	require.Len(t, res.Accepted, 1)
	assert.Empty(t, res.Rejected)
	assert.Equal(t, "quiero café y quiero café", res.Accepted[0].Phrases[5].Target)

	cfg.Basket.AllowSingleCharacters = false
	res, err = newBuilder(t, cfg, nil).Check(context.Background())
	require.NoError(t, err)
	require.Len(t, res.Rejected, 1)
	require.NotNil(t, res.Rejected[0].Report.Gate)
	assert.Equal(t, []string{"y"}, res.Rejected[0].Report.Gate.Phrases[0].Tokens)
}

func TestRejectedBasketIsReported(t *testing.T) {
	files := testsupport.CoffeeCorpus()
	files["proposals.yaml"] = `baskets:
  S0001L01:
    - {known: I want milk, target: quiero leche}
`
	cfg := testsupport.NewConfig(t, testsupport.WithCorpus(files))

	res, err := newBuilder(t, cfg, nil).Run(context.Background())
	require.NoError(t, err)
	require.Len(t, res.Rejected, 1)
	rejected := res.Rejected[0]
	assert.Equal(t, basket.StateRejected, rejected.State)
	require.NotNil(t, rejected.Report.Gate)
	assert.Equal(t, []string{"leche"}, rejected.Report.Gate.Phrases[0].Tokens)
	assert.NotNil(t, rejected.Report.Distribution)

	_, registered := res.Registry.Sample("quiero leche", identity.RoleTargetA)
	assert.False(t, registered, "rejected phrases are not registered")

	body, err := os.ReadFile(filepath.Join(cfg.Paths.OutputDir, build.RejectionsFile))
	require.NoError(t, err)
	assert.Contains(t, string(body), `"unit_id": "S0001L01"`)
	assert.Contains(t, string(body), "leche")
}

func TestCheckWritesNothing(t *testing.T) {
	cfg := coffeeConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	res, err := newBuilder(t, cfg, st).Check(context.Background())
	require.NoError(t, err)
	assert.Len(t, res.Accepted, 1)
	assert.Empty(t, res.Published)

	_, err = os.Stat(filepath.Join(cfg.Paths.OutputDir, build.ManifestFile))
	assert.True(t, os.IsNotExist(err), "check must not publish")

	runs, err := st.RecentRuns(context.Background(), 5)
	require.NoError(t, err)
	assert.Empty(t, runs)
	stored, err := st.ListBaskets(context.Background())
	require.NoError(t, err)
	assert.Empty(t, stored)
}

func TestRunRefusesWhileLocked(t *testing.T) {
	cfg := coffeeConfig(t)
	require.NoError(t, os.MkdirAll(cfg.Paths.OutputDir, 0o755))
	lock := flock.New(filepath.Join(cfg.Paths.OutputDir, build.LockFile))
	ok, err := lock.TryLock()
	require.NoError(t, err)
	require.True(t, ok)
	t.Cleanup(func() { _ = lock.Unlock() })

	_, err = newBuilder(t, cfg, nil).Run(context.Background())
	assert.ErrorIs(t, err, build.ErrBuildInProgress)
}

func TestRunCancelledLeavesPreviousOutputs(t *testing.T) {
	cfg := coffeeConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	b := newBuilder(t, cfg, st)

	_, err := b.Run(context.Background())
	require.NoError(t, err)
	before, err := os.ReadFile(filepath.Join(cfg.Paths.OutputDir, build.ManifestFile))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res, err := b.Run(ctx)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))

	after, err := os.ReadFile(filepath.Join(cfg.Paths.OutputDir, build.ManifestFile))
	require.NoError(t, err)
	assert.Equal(t, string(before), string(after))

	run, err := st.GetRun(context.Background(), res.RunID)
	require.NoError(t, err)
	assert.Equal(t, store.RunCancelled, run.Status)
}

func TestFailedPublishLeavesStoreUntouched(t *testing.T) {
	cfg := coffeeConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	require.NoError(t, os.MkdirAll(filepath.Join(cfg.Paths.OutputDir, build.ManifestFile, "occupied"), 0o755))

	res, err := newBuilder(t, cfg, st).Run(context.Background())
	require.Error(t, err)
	assert.Zero(t, res.Changed)

	stored, err := st.ListBaskets(context.Background())
	require.NoError(t, err)
	assert.Empty(t, stored, "baskets are persisted only after outputs publish")

	run, err := st.GetRun(context.Background(), res.RunID)
	require.NoError(t, err)
	assert.Equal(t, store.RunFailed, run.Status)
}

func TestCorpusErrorAbortsRun(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithCorpus(map[string]string{"seeds.yaml": "seeds: []\n"}))

	_, err := newBuilder(t, cfg, nil).Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, buildctx.ErrCorpus)
}
