package registry

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"

	"phrasebook/internal/buildctx"
	"phrasebook/internal/identity"
)

// Sample is one registered identity of a text.
type Sample struct {
	ID       identity.ID      `json:"id"`
	Role     identity.Role    `json:"role"`
	Language string           `json:"language"`
	Cadence  identity.Cadence `json:"cadence"`
	Duration *float64         `json:"duration"`
}

// Options fixes the languages and cadence samples are registered with.
type Options struct {
	KnownLanguage  string
	TargetLanguage string
	Cadence        identity.Cadence
}

func (o Options) validate() error {
	if o.KnownLanguage == "" || o.TargetLanguage == "" {
		return errors.New("registry requires known and target languages")
	}
	if o.Cadence != identity.CadenceNatural && o.Cadence != identity.CadenceSlow {
		return fmt.Errorf("registry cadence %q is invalid", o.Cadence)
	}
	return nil
}

// CollisionError reports two distinct keys sharing an identifier.
type CollisionError struct {
	ID       identity.ID
	Existing identity.Key
	Incoming identity.Key
}

func (e *CollisionError) Error() string {
	return fmt.Sprintf("identity %s: %q (%s) collides with %q (%s)", e.ID, e.Incoming.Text, e.Incoming.Role, e.Existing.Text, e.Existing.Role)
}

func (e *CollisionError) ErrorScope() buildctx.Scope { return buildctx.ScopeRun }

func (e *CollisionError) Unwrap() error { return buildctx.ErrCollision }

// DurationSource reports durations of samples that have been rendered.
type DurationSource interface {
	Durations(ctx context.Context) (map[identity.ID]float64, error)
}

// Registry is the ordered text → samples map of one build. It is built in a
// single ordered pass and is not safe for concurrent mutation.
type Registry struct {
	opts     Options
	texts    []string
	entries  map[string][]Sample
	keys     map[identity.ID]identity.Key
	identify func(identity.Key) identity.ID
}

// New creates an empty registry.
func New(opts Options) (*Registry, error) {
	if opts.Cadence == "" {
		opts.Cadence = identity.CadenceNatural
	}
	if err := opts.validate(); err != nil {
		return nil, err
	}
	return &Registry{
		opts:     opts,
		entries:  make(map[string][]Sample),
		keys:     make(map[identity.ID]identity.Key),
		identify: identity.Key.ID,
	}, nil
}

// Options returns the registry's languages and cadence.
func (r *Registry) Options() Options { return r.opts }

// Register adds the sample for (text, role) unless one already exists and
// returns the registered sample.
func (r *Registry) Register(text, language string, role identity.Role) (Sample, error) {
	key := identity.Key{Text: text, Language: language, Role: role, Cadence: r.opts.Cadence}
	if err := key.Validate(); err != nil {
		return Sample{}, fmt.Errorf("register %q: %w", text, err)
	}
	return r.insert(key.Canonical(), r.identify(key))
}

func (r *Registry) insert(key identity.Key, id identity.ID) (Sample, error) {
	if existing, ok := r.Sample(key.Text, key.Role); ok {
		return existing, nil
	}
	if prev, taken := r.keys[id]; taken && prev != key {
		return Sample{}, &CollisionError{ID: id, Existing: prev, Incoming: key}
	}
	sample := Sample{ID: id, Role: key.Role, Language: key.Language, Cadence: key.Cadence}
	if _, known := r.entries[key.Text]; !known {
		r.texts = append(r.texts, key.Text)
	}
	r.entries[key.Text] = append(r.entries[key.Text], sample)
	r.keys[id] = key
	return sample, nil
}

// RegisterKnown registers known-language text as a source sample.
func (r *Registry) RegisterKnown(text string) (Sample, error) {
	return r.Register(text, r.opts.KnownLanguage, identity.RoleSource)
}

// RegisterTarget registers both renditions of target-language text.
func (r *Registry) RegisterTarget(text string) ([]Sample, error) {
	a, err := r.Register(text, r.opts.TargetLanguage, identity.RoleTargetA)
	if err != nil {
		return nil, err
	}
	b, err := r.Register(text, r.opts.TargetLanguage, identity.RoleTargetB)
	if err != nil {
		return nil, err
	}
	return []Sample{a, b}, nil
}

// RegisterPresentation registers narration text in the known language.
func (r *Registry) RegisterPresentation(text string) (Sample, error) {
	return r.Register(text, r.opts.KnownLanguage, identity.RolePresentation)
}

// Lookup returns every sample registered for text.
func (r *Registry) Lookup(text string) []Sample {
	return slices.Clone(r.entries[canonicalText(text)])
}

// Sample returns the sample of text in role.
func (r *Registry) Sample(text string, role identity.Role) (Sample, bool) {
	for _, s := range r.entries[canonicalText(text)] {
		if s.Role == role {
			return s, true
		}
	}
	return Sample{}, false
}

// Has reports whether text is registered in role.
func (r *Registry) Has(text string, role identity.Role) bool {
	_, ok := r.Sample(text, role)
	return ok
}

// Key returns the key an identifier was derived from.
func (r *Registry) Key(id identity.ID) (identity.Key, bool) {
	key, ok := r.keys[id]
	return key, ok
}

// Texts returns registered texts in first-registration order.
func (r *Registry) Texts() []string {
	return slices.Clone(r.texts)
}

// Len returns the number of registered samples.
func (r *Registry) Len() int {
	return len(r.keys)
}

// ApplyDurations records rendered durations and returns how many samples were
// updated. Unknown identifiers are ignored.
func (r *Registry) ApplyDurations(durations map[identity.ID]float64) int {
	applied := 0
	for _, text := range r.texts {
		samples := r.entries[text]
		for i := range samples {
			if d, ok := durations[samples[i].ID]; ok {
				v := d
				samples[i].Duration = &v
				applied++
			}
		}
	}
	return applied
}

// Pending returns the identifiers still waiting for a rendered duration, in
// registry order.
func (r *Registry) Pending() []identity.ID {
	var out []identity.ID
	for _, text := range r.texts {
		for _, s := range r.entries[text] {
			if s.Duration == nil {
				out = append(out, s.ID)
			}
		}
	}
	return out
}

// MarshalJSON encodes the registry as an object whose keys keep
// first-registration order.
func (r *Registry) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, text := range r.texts {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(text)
		if err != nil {
			return nil, fmt.Errorf("encode registry key: %w", err)
		}
		value, err := json.Marshal(r.entries[text])
		if err != nil {
			return nil, fmt.Errorf("encode registry samples: %w", err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Encode returns the indented JSON form of the registry.
func (r *Registry) Encode() ([]byte, error) {
	raw, err := r.MarshalJSON()
	if err != nil {
		return nil, err
	}
	var out bytes.Buffer
	if err := json.Indent(&out, raw, "", "  "); err != nil {
		return nil, fmt.Errorf("indent registry: %w", err)
	}
	out.WriteByte('\n')
	return out.Bytes(), nil
}

func canonicalText(text string) string {
	return identity.Key{Text: text}.Canonical().Text
}
