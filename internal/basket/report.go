package basket

import (
	"errors"
	"fmt"
	"strings"

	"phrasebook/internal/buildctx"
	"phrasebook/internal/curriculum"
)

// PhraseViolation lists the untaught tokens of one phrase.
type PhraseViolation struct {
	Index  int      `json:"index"`
	Phrase Phrase   `json:"phrase"`
	Tokens []string `json:"tokens"`
}

// GateViolation reports phrases that use vocabulary not yet taught.
type GateViolation struct {
	Unit    curriculum.UnitID `json:"unit_id"`
	Phrases []PhraseViolation `json:"phrases"`
}

func (v *GateViolation) Error() string {
	parts := make([]string, 0, len(v.Phrases))
	for _, p := range v.Phrases {
		parts = append(parts, fmt.Sprintf("#%d [%s]", p.Index, strings.Join(p.Tokens, ", ")))
	}
	return fmt.Sprintf("unit %s: untaught vocabulary in %s", v.Unit, strings.Join(parts, "; "))
}

func (v *GateViolation) ErrorScope() buildctx.Scope { return buildctx.ScopeBasket }

func (v *GateViolation) Unwrap() error { return buildctx.ErrValidation }

// DistributionViolation reports a basket whose shape is wrong: the phrase
// count, the length-class split or the terminal-phrase rule.
type DistributionViolation struct {
	Unit             curriculum.UnitID `json:"unit_id"`
	Count            int               `json:"count"`
	Got              Distribution      `json:"got"`
	Want             Distribution      `json:"want"`
	TerminalMismatch bool              `json:"terminal_mismatch,omitempty"`
	Expected         *Phrase           `json:"expected_final,omitempty"`
	Actual           *Phrase           `json:"actual_final,omitempty"`
}

func (v *DistributionViolation) Error() string {
	var problems []string
	if v.Count != Size {
		problems = append(problems, fmt.Sprintf("%d phrases, want %d", v.Count, Size))
	}
	if v.Got != v.Want {
		problems = append(problems, fmt.Sprintf("length classes %s, want %s", v.Got, v.Want))
	}
	if v.TerminalMismatch {
		problems = append(problems, "phrase #10 must be the seed sentence pair")
	}
	return fmt.Sprintf("unit %s: %s", v.Unit, strings.Join(problems, "; "))
}

func (v *DistributionViolation) ErrorScope() buildctx.Scope { return buildctx.ScopeBasket }

func (v *DistributionViolation) Unwrap() error { return buildctx.ErrValidation }

// Report collects every reason a basket was rejected.
type Report struct {
	Unit         curriculum.UnitID      `json:"unit_id"`
	Gate         *GateViolation         `json:"gate,omitempty"`
	Distribution *DistributionViolation `json:"distribution,omitempty"`
	Format       []string               `json:"format,omitempty"`
}

// Empty reports whether nothing is wrong.
func (r *Report) Empty() bool {
	return r == nil || (r.Gate == nil && r.Distribution == nil && len(r.Format) == 0)
}

// Err joins the report's problems into a single error, or returns nil.
func (r *Report) Err() error {
	if r.Empty() {
		return nil
	}
	var errs []error
	if len(r.Format) > 0 {
		errs = append(errs, buildctx.Wrap(buildctx.ErrValidation, "basket", string(r.Unit), strings.Join(r.Format, "; "), nil))
	}
	if r.Gate != nil {
		errs = append(errs, r.Gate)
	}
	if r.Distribution != nil {
		errs = append(errs, r.Distribution)
	}
	return errors.Join(errs...)
}
