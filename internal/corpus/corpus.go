package corpus

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"

	"gopkg.in/yaml.v3"

	"phrasebook/internal/basket"
	"phrasebook/internal/buildctx"
	"phrasebook/internal/curriculum"
	"phrasebook/internal/registry"
)

// File names inside a corpus directory.
const (
	SeedsFile         = "seeds.yaml"
	UnitsFile         = "units.yaml"
	ProposalsFile     = "proposals.yaml"
	PresentationsFile = "presentations.yaml"
)

// Corpus is the authored content of one course.
type Corpus struct {
	Dir           string
	Seeds         []curriculum.Seed
	Units         map[curriculum.SeedID][]curriculum.TeachingUnit
	proposals     map[curriculum.UnitID][]basket.Phrase
	presentations []registry.Presentation
}

// Load reads and validates every corpus file in dir. presentations.yaml and
// proposals.yaml may be absent.
func Load(dir string) (*Corpus, error) {
	c := &Corpus{
		Dir:       dir,
		Units:     make(map[curriculum.SeedID][]curriculum.TeachingUnit),
		proposals: make(map[curriculum.UnitID][]basket.Phrase),
	}
	if err := c.loadSeeds(filepath.Join(dir, SeedsFile)); err != nil {
		return nil, err
	}
	if err := c.loadUnits(filepath.Join(dir, UnitsFile)); err != nil {
		return nil, err
	}
	if err := c.loadProposals(filepath.Join(dir, ProposalsFile)); err != nil {
		return nil, err
	}
	if err := c.loadPresentations(filepath.Join(dir, PresentationsFile)); err != nil {
		return nil, err
	}
	return c, nil
}

// LoadSeeds reads only seeds.yaml, for tooling that runs before units exist.
func LoadSeeds(dir string) ([]curriculum.Seed, error) {
	c := &Corpus{Dir: dir}
	if err := c.loadSeeds(filepath.Join(dir, SeedsFile)); err != nil {
		return nil, err
	}
	return c.Seeds, nil
}

func (c *Corpus) loadSeeds(path string) error {
	var file seedFile
	if err := decodeFile(path, &file, true); err != nil {
		return err
	}
	seen := make(map[curriculum.SeedID]bool, len(file.Seeds))
	for i, rec := range file.Seeds {
		seed, err := rec.seed(i + 1)
		if err != nil {
			return corpusError(path, "seed record", err)
		}
		if seen[seed.ID] {
			return corpusError(path, "seed record", fmt.Errorf("duplicate seed id %s", seed.ID))
		}
		seen[seed.ID] = true
		c.Seeds = append(c.Seeds, seed)
	}
	return nil
}

func (c *Corpus) loadUnits(path string) error {
	var file unitFile
	if err := decodeFile(path, &file, true); err != nil {
		return err
	}
	explicitTerminal := make(map[curriculum.SeedID]bool)
	for _, rec := range file.Units {
		unit, err := rec.unit()
		if err != nil {
			return corpusError(path, "unit record", err)
		}
		if rec.Terminal != nil {
			explicitTerminal[unit.SeedID] = true
		}
		c.Units[unit.SeedID] = append(c.Units[unit.SeedID], unit)
	}
	// Seeds whose file never mentions terminal get it on the last position.
	for seedID, units := range c.Units {
		slices.SortFunc(units, func(a, b curriculum.TeachingUnit) int { return a.Position - b.Position })
		if !explicitTerminal[seedID] && len(units) > 0 {
			units[len(units)-1].Terminal = true
		}
	}
	return nil
}

func (c *Corpus) loadProposals(path string) error {
	var file proposalFile
	if err := decodeFile(path, &file, false); err != nil {
		return err
	}
	for unit, phrases := range file.Baskets {
		c.proposals[curriculum.UnitID(unit)] = phrases
	}
	return nil
}

func (c *Corpus) loadPresentations(path string) error {
	var file presentationFile
	if err := decodeFile(path, &file, false); err != nil {
		return err
	}
	for _, rec := range file.Presentations {
		c.presentations = append(c.presentations, rec.presentation())
	}
	return nil
}

// decodeFile strictly decodes and validates one YAML file. Missing optional
// files decode to the zero value.
func decodeFile(path string, out any, required bool) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if !required && errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return corpusError(path, "read", err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return corpusError(path, "decode", err)
	}
	if err := validateRecords(filepath.Base(path), out); err != nil {
		return buildctx.Wrap(buildctx.ErrCorpus, "load", "validate", "", err)
	}
	return nil
}

func corpusError(path, op string, err error) error {
	return buildctx.Wrap(buildctx.ErrCorpus, "load", filepath.Base(path), op, err)
}

// Graph builds the teaching-unit graph of the corpus.
func (c *Corpus) Graph() (*curriculum.Graph, error) {
	return curriculum.NewGraph(c.Seeds, c.Units)
}

// Proposals returns the authored phrases for a unit.
func (c *Corpus) Proposals(unit curriculum.UnitID) []basket.Phrase {
	return slices.Clone(c.proposals[unit])
}

// Presentations returns presentation strings in file order.
func (c *Corpus) Presentations() []registry.Presentation {
	return slices.Clone(c.presentations)
}

// Orphans lists proposal and presentation units that the graph does not
// contain, sorted.
func (c *Corpus) Orphans(g *curriculum.Graph) []curriculum.UnitID {
	set := make(map[curriculum.UnitID]bool)
	for unit := range c.proposals {
		if _, ok := g.Unit(unit); !ok {
			set[unit] = true
		}
	}
	for _, p := range c.presentations {
		if _, ok := g.Unit(p.Unit); !ok {
			set[p.Unit] = true
		}
	}
	out := make([]curriculum.UnitID, 0, len(set))
	for unit := range set {
		out = append(out, unit)
	}
	slices.Sort(out)
	return out
}

var (
	_ basket.ProposalSource       = (*Corpus)(nil)
	_ registry.PresentationSource = (*Corpus)(nil)
)

// EncodeUnits renders units in the units.yaml format.
func EncodeUnits(units []curriculum.TeachingUnit) ([]byte, error) {
	file := unitFile{Units: make([]unitRecord, 0, len(units))}
	for _, u := range units {
		file.Units = append(file.Units, unitToRecord(u))
	}
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(file); err != nil {
		return nil, fmt.Errorf("encode units: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encode units: %w", err)
	}
	return buf.Bytes(), nil
}

// EncodeSeeds renders seeds in the seeds.yaml format.
func EncodeSeeds(seeds []curriculum.Seed) ([]byte, error) {
	file := seedFile{Seeds: make([]seedRecord, 0, len(seeds))}
	for _, s := range seeds {
		file.Seeds = append(file.Seeds, seedRecord{ID: string(s.ID), Known: s.Known, Target: s.Target})
	}
	out, err := yaml.Marshal(file)
	if err != nil {
		return nil, fmt.Errorf("encode seeds: %w", err)
	}
	return out, nil
}

// EncodeProposals renders baskets in the proposals.yaml format.
func EncodeProposals(baskets map[curriculum.UnitID][]basket.Phrase) ([]byte, error) {
	file := proposalFile{Baskets: make(map[string][]basket.Phrase, len(baskets))}
	for unit, phrases := range baskets {
		file.Baskets[string(unit)] = phrases
	}
	out, err := yaml.Marshal(file)
	if err != nil {
		return nil, fmt.Errorf("encode proposals: %w", err)
	}
	return out, nil
}
