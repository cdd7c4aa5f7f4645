package basket

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"phrasebook/internal/curriculum"
	"phrasebook/internal/gate"
	"phrasebook/internal/lexis"
)

// Policy tunes the validator.
type Policy struct {
	// AllowSingleCharacters lets any one-rune token through the gate.
	AllowSingleCharacters bool
	// RejectDuplicates rejects baskets in which two phrases normalize to the
	// same pair. Off by default: repeating the seed pair before #10 is legal.
	RejectDuplicates bool
	Thresholds       Thresholds
}

// DefaultPolicy enables the single-character convention with default
// thresholds.
func DefaultPolicy() Policy {
	return Policy{AllowSingleCharacters: true, Thresholds: DefaultThresholds}
}

// Result is the outcome of validating one phrase.
type Result struct {
	Pass       bool
	Violations []string
}

// Validator checks phrases and baskets against whitelists. It holds no
// mutable state and may be shared across goroutines.
type Validator struct {
	normalizer *lexis.Normalizer
	policy     Policy
}

// NewValidator builds a validator. normalizer supplies the particle set and
// may be nil.
func NewValidator(normalizer *lexis.Normalizer, policy Policy) *Validator {
	if policy.Thresholds == (Thresholds{}) {
		policy.Thresholds = DefaultThresholds
	}
	return &Validator{normalizer: normalizer, policy: policy}
}

// Policy returns the active policy.
func (v *Validator) Policy() Policy { return v.policy }

// Validate tokenizes the phrase's target text and returns every token that is
// neither whitelisted, always allowed, nor an allowed single character. An
// empty whitelist passes everything.
func (v *Validator) Validate(p Phrase, wl gate.Snapshot) Result {
	if wl.Empty() {
		return Result{Pass: true}
	}
	var violations []string
	seen := make(map[lexis.LexicalUnit]struct{})
	for _, token := range v.normalizer.Tokens(p.Target) {
		if v.permitted(token, wl) {
			continue
		}
		if _, dup := seen[token.Unit]; dup {
			continue
		}
		seen[token.Unit] = struct{}{}
		violations = append(violations, string(token.Unit))
	}
	return Result{Pass: len(violations) == 0, Violations: violations}
}

func (v *Validator) permitted(token lexis.Token, wl gate.Snapshot) bool {
	if token.Particle || wl.Allows(token.Unit) {
		return true
	}
	return token.Single && v.policy.AllowSingleCharacters
}

// Evaluate drives a drafting basket to ACCEPTED or REJECTED. The returned
// error reports misuse only (wrong state or unit); validation problems are
// recorded in the basket's Report.
func (v *Validator) Evaluate(b *Basket, unit curriculum.TeachingUnit, seed curriculum.Seed, wl gate.Snapshot) error {
	if b == nil {
		return fmt.Errorf("evaluate: nil basket")
	}
	if b.State != StateDrafting {
		return fmt.Errorf("evaluate basket %s: state %s, want %s", b.Unit, b.State, StateDrafting)
	}
	if b.Unit != unit.ID {
		return fmt.Errorf("evaluate basket %s: unit mismatch %s", b.Unit, unit.ID)
	}
	if unit.SeedID != seed.ID {
		return fmt.Errorf("evaluate basket %s: unit belongs to %s, got seed %s", b.Unit, unit.SeedID, seed.ID)
	}
	b.State = StateValidating

	report := &Report{Unit: b.Unit}
	report.Format = v.formatProblems(b.Phrases)

	var gateViolations []PhraseViolation
	for i, p := range b.Phrases {
		res := v.Validate(p, wl)
		if !res.Pass {
			gateViolations = append(gateViolations, PhraseViolation{Index: i + 1, Phrase: p, Tokens: res.Violations})
		}
	}
	if len(gateViolations) > 0 {
		report.Gate = &GateViolation{Unit: b.Unit, Phrases: gateViolations}
	}

	b.Distribution = v.policy.Thresholds.Tally(b.Phrases)
	dist := &DistributionViolation{
		Unit:  b.Unit,
		Count: len(b.Phrases),
		Got:   b.Distribution,
		Want:  RequiredDistribution,
	}
	if unit.Terminal {
		expected := SeedPhrase(seed)
		if len(b.Phrases) < Size || !b.Phrases[Size-1].Equal(expected) {
			dist.TerminalMismatch = true
			dist.Expected = &expected
			if len(b.Phrases) >= Size {
				actual := b.Phrases[Size-1]
				dist.Actual = &actual
			}
		}
	}
	if dist.Count != Size || dist.Got != dist.Want || dist.TerminalMismatch {
		report.Distribution = dist
	}

	if report.Empty() {
		b.State = StateAccepted
		b.Report = nil
		return nil
	}
	b.State = StateRejected
	b.Report = report
	return nil
}

func (v *Validator) formatProblems(phrases []Phrase) []string {
	var problems []string
	firstSeen := make(map[Phrase]int, len(phrases))
	for i, p := range phrases {
		n := i + 1
		if strings.TrimSpace(p.Known) == "" {
			problems = append(problems, fmt.Sprintf("phrase #%d: empty known text", n))
		}
		if strings.TrimSpace(p.Target) == "" {
			problems = append(problems, fmt.Sprintf("phrase #%d: empty target text", n))
		}
		if !v.policy.RejectDuplicates {
			continue
		}
		key := Phrase{Known: lexis.Key(p.Known), Target: lexis.Key(p.Target)}
		if prev, dup := firstSeen[key]; dup {
			problems = append(problems, fmt.Sprintf("phrase #%d duplicates #%d", n, prev))
			continue
		}
		firstSeen[key] = n
	}
	return problems
}

// Job pairs a drafting basket with everything needed to evaluate it.
type Job struct {
	Basket    *Basket
	Unit      curriculum.TeachingUnit
	Seed      curriculum.Seed
	Whitelist gate.Snapshot
}

// EvaluateAll evaluates independent baskets concurrently. Whitelists must be
// precomputed; each job only mutates its own basket.
func (v *Validator) EvaluateAll(ctx context.Context, jobs []Job, workers int) error {
	if workers <= 0 {
		workers = 1
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, job := range jobs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			return v.Evaluate(job.Basket, job.Unit, job.Seed, job.Whitelist)
		})
	}
	return g.Wait()
}
