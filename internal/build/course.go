package build

import (
	"fmt"

	"phrasebook/internal/basket"
	"phrasebook/internal/buildctx"
	"phrasebook/internal/config"
	"phrasebook/internal/corpus"
	"phrasebook/internal/curriculum"
	"phrasebook/internal/gate"
	"phrasebook/internal/identity"
	"phrasebook/internal/lexis"
	"phrasebook/internal/registry"
)

// Course is a loaded corpus with its graph and gate.
type Course struct {
	Corpus *corpus.Corpus
	Graph  *curriculum.Graph
	Gate   *gate.Gate
}

// LoadCourse reads the corpus directory and builds the graph and gate.
// Structural graph problems abort the load; tiling is checked separately.
func LoadCourse(cfg *config.Config) (*Course, error) {
	c, err := corpus.Load(cfg.Paths.CorpusDir)
	if err != nil {
		return nil, err
	}
	g, err := c.Graph()
	if err != nil {
		return nil, buildctx.Wrap(buildctx.ErrCorpus, "graph", cfg.Paths.CorpusDir, "invalid teaching graph", err)
	}
	return &Course{
		Corpus: c,
		Graph:  g,
		Gate:   gate.Build(g, lexis.NewNormalizer(cfg.Gate.Particles...)),
	}, nil
}

// Policy returns the basket validation policy configured in cfg.
func Policy(cfg *config.Config) basket.Policy {
	return basket.Policy{
		AllowSingleCharacters: cfg.Basket.AllowSingleCharacters,
		RejectDuplicates:      cfg.Basket.RejectDuplicates,
		Thresholds:            Thresholds(cfg),
	}
}

// Thresholds returns the configured length-class thresholds.
func Thresholds(cfg *config.Config) basket.Thresholds {
	return basket.Thresholds{
		Medium:  cfg.Basket.MediumThreshold,
		Longer:  cfg.Basket.LongerThreshold,
		Longest: cfg.Basket.LongestThreshold,
	}
}

// RegistryOptions returns the sample registry options configured in cfg.
func RegistryOptions(cfg *config.Config) (registry.Options, error) {
	cadence, err := identity.ParseCadence(cfg.Identity.Cadence)
	if err != nil {
		return registry.Options{}, buildctx.Wrap(buildctx.ErrConfiguration, "config", "identity.cadence", "invalid cadence", err)
	}
	return registry.Options{
		KnownLanguage:  cfg.Course.KnownLanguage,
		TargetLanguage: cfg.Course.TargetLanguage,
		Cadence:        cadence,
	}, nil
}

// Jobs builds one validation job per unit with authored proposals. Each
// basket is checked against the whitelist that includes its own unit.
// Units of skipped seeds are left out.
func (c *Course) Jobs(proposals basket.ProposalSource, skip map[curriculum.SeedID]error) ([]basket.Job, error) {
	var jobs []basket.Job
	for _, unit := range c.Graph.OrderedUnits() {
		if _, skipped := skip[unit.SeedID]; skipped {
			continue
		}
		phrases := proposals.Proposals(unit.ID)
		if len(phrases) == 0 {
			continue
		}
		seed, ok := c.Graph.Seed(unit.SeedID)
		if !ok {
			return nil, fmt.Errorf("unit %s: unknown seed %s", unit.ID, unit.SeedID)
		}
		wl, err := c.Gate.Whitelist(gate.Including(unit.ID))
		if err != nil {
			return nil, fmt.Errorf("whitelist for %s: %w", unit.ID, err)
		}
		jobs = append(jobs, basket.Job{
			Basket:    basket.New(unit.ID, phrases),
			Unit:      unit,
			Seed:      seed,
			Whitelist: wl,
		})
	}
	return jobs, nil
}
