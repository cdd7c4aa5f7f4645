package build

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"phrasebook/internal/basket"
	"phrasebook/internal/buildctx"
	"phrasebook/internal/config"
	"phrasebook/internal/curriculum"
	"phrasebook/internal/fileutil"
	"phrasebook/internal/logging"
	"phrasebook/internal/manifest"
	"phrasebook/internal/registry"
	"phrasebook/internal/store"
)

// LockFile guards the output directory against concurrent builds.
const LockFile = ".phrasebook.lock"

// ErrBuildInProgress is returned when another build holds the output lock.
var ErrBuildInProgress = errors.New("another build is running")

// Builder runs the pipeline for one configuration.
type Builder struct {
	cfg    *config.Config
	store  *store.Store
	logger *slog.Logger
}

// Result is everything a run produced.
type Result struct {
	RunID    string
	Stats    store.RunStats
	Manifest *manifest.Manifest
	Registry *registry.Registry
	// Accepted and Rejected hold evaluated baskets in teaching order.
	Accepted []*basket.Basket
	Rejected []*basket.Basket
	Tiling   []*curriculum.TilingViolation
	Failures []*manifest.SeedFailure
	// Orphans are proposal or presentation units missing from the graph.
	Orphans []curriculum.UnitID
	// Changed counts baskets whose stored content differs from the last run.
	Changed   int
	Published []string
}

// Err joins every seed failure, or returns nil when all seeds assembled.
func (r *Result) Err() error {
	if r == nil || len(r.Failures) == 0 {
		return nil
	}
	errs := make([]error, 0, len(r.Failures))
	for _, f := range r.Failures {
		errs = append(errs, f)
	}
	return errors.Join(errs...)
}

// New constructs a builder. The store is optional; without it baskets are
// not persisted and no durations are merged.
func New(cfg *config.Config, st *store.Store, logger *slog.Logger) (*Builder, error) {
	if cfg == nil {
		return nil, errors.New("build requires config")
	}
	return &Builder{
		cfg:    cfg,
		store:  st,
		logger: logging.NewComponentLogger(logger, "build"),
	}, nil
}

// Run executes a full build and publishes its outputs.
func (b *Builder) Run(ctx context.Context) (*Result, error) {
	return b.run(ctx, true)
}

// Check runs the pipeline without persisting state or writing outputs.
func (b *Builder) Check(ctx context.Context) (*Result, error) {
	return b.run(ctx, false)
}

func (b *Builder) run(ctx context.Context, publish bool) (res *Result, err error) {
	if ctx == nil {
		ctx = context.Background()
	}
	logDir := ""
	if publish {
		if err := b.cfg.EnsureDirectories(); err != nil {
			return nil, buildctx.Wrap(buildctx.ErrConfiguration, "prepare", "directories", "cannot create output directories", err)
		}
		lockPath := filepath.Join(b.cfg.Paths.OutputDir, LockFile)
		lock := flock.New(lockPath)
		ok, lockErr := lock.TryLock()
		if lockErr != nil {
			return nil, fmt.Errorf("acquire build lock: %w", lockErr)
		}
		if !ok {
			return nil, fmt.Errorf("%w: %s is locked", ErrBuildInProgress, lockPath)
		}
		defer func() {
			if unlockErr := lock.Unlock(); unlockErr != nil {
				b.logger.Warn("failed to release build lock", logging.String("lock", lockPath), logging.Error(unlockErr))
			}
		}()
		logDir = b.cfg.Paths.LogDir
	}

	var run *store.Run
	runID := uuid.NewString()
	if publish && b.store != nil {
		// Run bookkeeping lands even when ctx is already cancelled.
		bookCtx := context.WithoutCancel(ctx)
		if n, resetErr := b.store.ResetStaleRuns(bookCtx); resetErr != nil {
			return nil, resetErr
		} else if n > 0 {
			logging.WarnWithContext(b.logger, "interrupted build runs marked failed", "stale_runs_reset",
				logging.Int64("runs", n),
				logging.Impact("earlier outputs may be from an older corpus"),
			)
		}
		if run, err = b.store.StartRun(bookCtx); err != nil {
			return nil, err
		}
		runID = run.ID
	}

	logger, closeLog, err := logging.NewRunLogger(b.logger, logDir, runID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = closeLog() }()

	ctx = buildctx.WithRunID(ctx, runID)
	res = &Result{RunID: runID}
	defer func() {
		if run == nil {
			return
		}
		run.Stats = res.Stats
		if finishErr := b.store.FinishRun(ctx, run, err); finishErr != nil {
			logger.Error("failed to record build run", logging.Error(finishErr))
		}
	}()

	logger.Info("build started",
		logging.Event("build_start"),
		logging.String("corpus_dir", b.cfg.Paths.CorpusDir),
		logging.Bool("publish", publish),
	)
	if err = b.pipeline(ctx, logger, res, publish); err != nil {
		logging.ErrorWithContext(logger, "build failed", "build_failed",
			logging.String("scope", string(buildctx.FailureScope(err))),
			logging.Error(err),
		)
		return res, err
	}
	logger.Info("build completed",
		logging.Event("build_complete"),
		logging.Int("seeds", res.Stats.Seeds),
		logging.Int("units", res.Stats.Units),
		logging.Int("accepted_baskets", res.Stats.Accepted),
		logging.Int("rejected_baskets", res.Stats.Rejected),
		logging.Int("samples", res.Stats.Samples),
		logging.Int("failed_seeds", res.Stats.FailedSeeds),
	)
	if publish {
		logging.PruneRunLogs(b.logger, logDir, b.cfg.Logging.RetentionDays, runID)
	}
	return res, nil
}

func stageLogger(ctx context.Context, logger *slog.Logger, stage string) (context.Context, *slog.Logger) {
	ctx = buildctx.WithStage(ctx, stage)
	return ctx, logging.WithContext(ctx, logger)
}

func (b *Builder) pipeline(ctx context.Context, logger *slog.Logger, res *Result, publish bool) error {
	workers := b.cfg.Build.Workers

	loadCtx, loadLog := stageLogger(ctx, logger, "load")
	course, err := LoadCourse(b.cfg)
	if err != nil {
		return err
	}
	g := course.Graph
	res.Stats.Seeds = len(g.Seeds())
	res.Stats.Units = g.Len()
	loadLog.Debug("corpus loaded", logging.Int("seeds", res.Stats.Seeds), logging.Int("units", res.Stats.Units))
	if res.Orphans = course.Corpus.Orphans(g); len(res.Orphans) > 0 {
		logging.WarnWithContext(loadLog, "corpus entries reference unknown units", "corpus_orphans",
			logging.Int("count", len(res.Orphans)),
			logging.Unit(res.Orphans[0]),
			logging.Hint("fix the unit ids in proposals.yaml or presentations.yaml"),
			logging.Impact("orphaned phrases and narration are ignored"),
		)
	}
	if err := loadCtx.Err(); err != nil {
		return err
	}

	tilingCtx, _ := stageLogger(ctx, logger, "tiling")
	skip := make(map[curriculum.SeedID]error)
	res.Tiling = g.CheckTiling()
	for _, violation := range res.Tiling {
		skip[violation.Seed] = violation
		seedLog := logging.WithContext(buildctx.WithSeedID(tilingCtx, string(violation.Seed)), logger)
		logging.WarnWithContext(seedLog, "seed units do not tile the sentence", "tiling_violation",
			logging.String("sentence", violation.Sentence),
			logging.String("tiled", violation.Tiled),
			logging.Hint("make the unit target fragments concatenate to the seed target"),
			logging.Impact("seed is left out of this build"),
		)
	}

	validateCtx, validateLog := stageLogger(ctx, logger, "validate")
	jobs, err := course.Jobs(course.Corpus, skip)
	if err != nil {
		return err
	}
	validator := basket.NewValidator(course.Gate.Normalizer(), Policy(b.cfg))
	if err := validator.EvaluateAll(validateCtx, jobs, workers); err != nil {
		return fmt.Errorf("evaluate baskets: %w", err)
	}
	baskets := make(map[curriculum.UnitID]*basket.Basket, len(jobs))
	for _, job := range jobs {
		bk := job.Basket
		baskets[bk.Unit] = bk
		if bk.Accepted() {
			res.Accepted = append(res.Accepted, bk)
			continue
		}
		res.Rejected = append(res.Rejected, bk)
		unitLog := logging.WithContext(buildctx.WithUnitID(validateCtx, string(bk.Unit)), logger)
		attrs := []logging.Attr{logging.Error(bk.Report.Err())}
		if tokens := untaughtTokens(bk.Report); len(tokens) > 0 {
			attrs = append(attrs, logging.Tokens("untaught", tokens))
		}
		logging.WarnWithContext(unitLog, "practice basket rejected", "basket_rejected", append(attrs,
			logging.Hint("revise the unit's phrases in proposals.yaml"),
			logging.Impact("unit ships without practice phrases"),
		)...)
	}
	res.Stats.Accepted = len(res.Accepted)
	res.Stats.Rejected = len(res.Rejected)
	validateLog.Info("baskets evaluated",
		logging.Event("baskets_evaluated"),
		logging.Int("accepted", res.Stats.Accepted),
		logging.Int("rejected", res.Stats.Rejected),
	)

	registerCtx, registerLog := stageLogger(ctx, logger, "register")
	opts, err := RegistryOptions(b.cfg)
	if err != nil {
		return err
	}
	skipped := make(map[curriculum.SeedID]bool, len(skip))
	for id := range skip {
		skipped[id] = true
	}
	presentations := course.Corpus.Presentations()
	reg, err := registry.Scan(registerCtx, registry.Input{
		Graph:         g,
		Baskets:       baskets,
		Presentations: presentations,
		Skip:          skipped,
	}, opts, workers)
	if err != nil {
		return err
	}
	if b.store != nil {
		durations, err := b.store.Durations(registerCtx)
		if err != nil {
			return err
		}
		applied := reg.ApplyDurations(durations)
		registerLog.Debug("durations merged", logging.Int("applied", applied))
	}
	res.Registry = reg
	res.Stats.Samples = reg.Len()
	registerLog.Info("samples registered",
		logging.Event("samples_registered"),
		logging.Int("samples", reg.Len()),
		logging.Int("pending_render", len(reg.Pending())),
	)

	assembleCtx, _ := stageLogger(ctx, logger, "assemble")
	m, failures := manifest.Assemble(g, baskets, reg, manifest.Options{
		Course: manifest.Course{
			Name:           b.cfg.Course.Name,
			KnownLanguage:  b.cfg.Course.KnownLanguage,
			TargetLanguage: b.cfg.Course.TargetLanguage,
		},
		Skip:           skip,
		RequireBaskets: b.cfg.Basket.RequireBaskets,
		Presentations:  presentations,
		Thresholds:     Thresholds(b.cfg),
	})
	res.Manifest = m
	res.Failures = failures
	res.Stats.FailedSeeds = len(failures)
	for _, failure := range failures {
		seedLog := logging.WithContext(buildctx.WithSeedID(assembleCtx, string(failure.Seed)), logger)
		logging.ErrorWithContext(seedLog, "seed left out of manifest", "seed_failed",
			logging.String("scope", string(buildctx.FailureScope(failure.Err))),
			logging.Error(failure.Err),
		)
	}
	if err := assembleCtx.Err(); err != nil {
		return err
	}

	if !publish {
		return nil
	}
	_, publishLog := stageLogger(ctx, logger, "publish")
	docs, err := res.render()
	if err != nil {
		return err
	}
	outputDir := b.cfg.Paths.OutputDir
	stagingDir, err := stage(outputDir, docs)
	if err != nil {
		return err
	}
	defer func() { _ = os.RemoveAll(stagingDir) }()
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := fileutil.Publish(stagingDir, outputDir, OutputFiles...); err != nil {
		return err
	}
	for _, name := range OutputFiles {
		res.Published = append(res.Published, filepath.Join(outputDir, name))
	}
	publishLog.Info("outputs published",
		logging.Event("outputs_published"),
		logging.String("output_dir", outputDir),
	)
	return b.persist(ctx, logger, res, g, jobs)
}

// persist records the evaluated baskets once outputs are published, so a
// failed or cancelled run leaves the store as the previous run left it.
func (b *Builder) persist(ctx context.Context, logger *slog.Logger, res *Result, g *curriculum.Graph, jobs []basket.Job) error {
	if b.store == nil {
		return nil
	}
	persistCtx, persistLog := stageLogger(ctx, logger, "persist")
	for _, job := range jobs {
		changed, err := b.store.SaveBasket(persistCtx, res.RunID, job.Basket)
		if err != nil {
			return err
		}
		if changed {
			res.Changed++
		}
	}
	if b.cfg.Build.PruneStale {
		keep := make([]curriculum.UnitID, 0, g.Len())
		for _, unit := range g.OrderedUnits() {
			keep = append(keep, unit.ID)
		}
		removed, err := b.store.PruneBaskets(persistCtx, keep)
		if err != nil {
			return err
		}
		if removed > 0 {
			persistLog.Info("stale baskets pruned", logging.Int64("removed", removed))
		}
	}
	persistLog.Debug("baskets persisted", logging.Int("changed", res.Changed))
	return nil
}

// untaughtTokens lists each untaught token of a report once, in first-seen order.
func untaughtTokens(r *basket.Report) []string {
	if r == nil || r.Gate == nil {
		return nil
	}
	seen := make(map[string]struct{})
	var tokens []string
	for _, pv := range r.Gate.Phrases {
		for _, tok := range pv.Tokens {
			if _, ok := seen[tok]; ok {
				continue
			}
			seen[tok] = struct{}{}
			tokens = append(tokens, tok)
		}
	}
	return tokens
}
