package manifest

import (
	"bytes"
	"encoding/json"
	"fmt"

	"phrasebook/internal/basket"
	"phrasebook/internal/buildctx"
	"phrasebook/internal/curriculum"
	"phrasebook/internal/identity"
)

// Version is the manifest document format version.
const Version = 1

// Manifest is the assembled course.
type Manifest struct {
	Version int     `json:"version"`
	Course  Course  `json:"course"`
	Seeds   []Seed  `json:"seeds"`
	Stats   Summary `json:"summary"`
}

// Course identifies the language pair.
type Course struct {
	Name           string `json:"name,omitempty"`
	KnownLanguage  string `json:"known_language"`
	TargetLanguage string `json:"target_language"`
}

// Summary counts what the manifest contains.
type Summary struct {
	Seeds   int `json:"seeds"`
	Units   int `json:"units"`
	Baskets int `json:"baskets"`
	Failed  int `json:"failed_seeds"`
}

// Audio points at the samples rendering one text.
type Audio struct {
	Text    string        `json:"text"`
	Samples []identity.ID `json:"samples"`
}

// Seed is one assembled sentence pair.
type Seed struct {
	ID     curriculum.SeedID `json:"id"`
	Known  Audio             `json:"known"`
	Target Audio             `json:"target"`
	Units  []Unit            `json:"units"`
}

// Unit is one assembled teaching unit.
type Unit struct {
	ID           curriculum.UnitID   `json:"id"`
	Kind         curriculum.UnitKind `json:"kind"`
	Terminal     bool                `json:"is_terminal"`
	Known        Audio               `json:"known"`
	Target       Audio               `json:"target"`
	Presentation []Audio             `json:"presentation,omitempty"`
	Basket       *Basket             `json:"basket,omitempty"`
}

// Basket is the accepted practice basket of a unit.
type Basket struct {
	Distribution basket.Distribution `json:"distribution"`
	Phrases      []Phrase            `json:"phrases"`
}

// Phrase is one practice phrase with its audio.
type Phrase struct {
	Class  string `json:"length_class"`
	Known  Audio  `json:"known"`
	Target Audio  `json:"target"`
}

// Encode returns deterministic indented JSON.
func (m *Manifest) Encode() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(m); err != nil {
		return nil, fmt.Errorf("encode manifest: %w", err)
	}
	return buf.Bytes(), nil
}

// DanglingReferenceError reports text the manifest needs but the registry
// lacks.
type DanglingReferenceError struct {
	Seed curriculum.SeedID
	Unit curriculum.UnitID
	Text string
	Role identity.Role
}

func (e *DanglingReferenceError) Error() string {
	where := string(e.Seed)
	if e.Unit != "" {
		where = string(e.Unit)
	}
	return fmt.Sprintf("%s: %q has no %s sample", where, e.Text, e.Role)
}

func (e *DanglingReferenceError) ErrorScope() buildctx.Scope { return buildctx.ScopeSeed }

func (e *DanglingReferenceError) Unwrap() error { return buildctx.ErrDangling }

// SeedFailure records why a seed is missing from the manifest.
type SeedFailure struct {
	Seed curriculum.SeedID
	Err  error
}

func (f *SeedFailure) Error() string {
	return fmt.Sprintf("seed %s: %v", f.Seed, f.Err)
}

func (f *SeedFailure) Unwrap() error { return f.Err }
