package curriculum

import (
	"fmt"
	"strings"
)

// UnitKind distinguishes single-token units from idioms.
type UnitKind string

const (
	// KindAtomic units introduce exactly one lexical unit.
	KindAtomic UnitKind = "atomic"
	// KindMolecular units introduce an idiom decomposed into sub-pairs.
	KindMolecular UnitKind = "molecular"
)

// ParseKind maps user input onto a UnitKind. Blank input means atomic.
func ParseKind(value string) (UnitKind, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", string(KindAtomic):
		return KindAtomic, nil
	case string(KindMolecular):
		return KindMolecular, nil
	default:
		return "", fmt.Errorf("unknown unit kind %q", value)
	}
}

// Seed is a full sentence pair used as a top-level teaching example.
type Seed struct {
	ID     SeedID `json:"id"`
	Index  int    `json:"index"`
	Known  string `json:"known"`
	Target string `json:"target"`
}

// SubPair is one known/target component of a molecular unit.
type SubPair struct {
	Known  string `json:"known"`
	Target string `json:"target"`
}

// TeachingUnit is a single LEGO.
type TeachingUnit struct {
	ID             UnitID    `json:"id"`
	SeedID         SeedID    `json:"seed_id"`
	Position       int       `json:"position"`
	Kind           UnitKind  `json:"kind"`
	KnownGloss     string    `json:"known"`
	TargetFragment string    `json:"target"`
	Terminal       bool      `json:"is_terminal"`
	SubPairs       []SubPair `json:"sub_pairs,omitempty"`
}

// Molecular reports whether the unit is an idiom with sub-pairs.
func (u TeachingUnit) Molecular() bool {
	return u.Kind == KindMolecular
}
