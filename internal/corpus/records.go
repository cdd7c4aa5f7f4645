package corpus

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"phrasebook/internal/basket"
	"phrasebook/internal/curriculum"
	"phrasebook/internal/registry"
)

type seedFile struct {
	Seeds []seedRecord `yaml:"seeds" validate:"required,min=1,dive"`
}

type seedRecord struct {
	ID     string `yaml:"id,omitempty" validate:"omitempty,seedid"`
	Known  string `yaml:"known" validate:"required,notblank"`
	Target string `yaml:"target" validate:"required,notblank"`
}

type unitFile struct {
	Units []unitRecord `yaml:"units" validate:"required,min=1,dive"`
}

type unitRecord struct {
	ID         string          `yaml:"id" validate:"required,unitid"`
	Kind       string          `yaml:"kind,omitempty" validate:"omitempty,oneof=atomic molecular"`
	Known      string          `yaml:"known" validate:"required,notblank"`
	Target     string          `yaml:"target" validate:"required,notblank"`
	Terminal   *bool           `yaml:"terminal,omitempty"`
	Components []subPairRecord `yaml:"components,omitempty" validate:"required_if=Kind molecular,dive"`
}

type subPairRecord struct {
	Known  string `yaml:"known" validate:"required,notblank"`
	Target string `yaml:"target" validate:"required,notblank"`
}

type proposalFile struct {
	Baskets map[string][]basket.Phrase `yaml:"baskets" validate:"omitempty,dive,keys,unitid,endkeys,dive"`
}

type presentationFile struct {
	Presentations []presentationRecord `yaml:"presentations" validate:"omitempty,dive"`
}

type presentationRecord struct {
	Unit string `yaml:"unit" validate:"required,unitid"`
	Text string `yaml:"text" validate:"required,notblank"`
}

var recordValidate *validator.Validate

func init() {
	recordValidate = validator.New(validator.WithRequiredStructEnabled())
	recordValidate.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("yaml"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	_ = recordValidate.RegisterValidation("seedid", func(fl validator.FieldLevel) bool {
		_, err := curriculum.SeedID(fl.Field().String()).Index()
		return err == nil
	})
	_ = recordValidate.RegisterValidation("unitid", func(fl validator.FieldLevel) bool {
		_, _, err := curriculum.UnitID(fl.Field().String()).Parse()
		return err == nil
	})
	_ = recordValidate.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
}

// validateRecords checks a decoded file and flattens field errors into one
// readable message per field.
func validateRecords(name string, v any) error {
	err := recordValidate.Struct(v)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("%s: %w", name, err)
	}
	problems := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		path := fe.Namespace()
		if _, rest, ok := strings.Cut(path, "."); ok {
			path = rest
		}
		problems = append(problems, fmt.Sprintf("%s: failed %q", path, fe.Tag()))
	}
	return fmt.Errorf("%s: %s", name, strings.Join(problems, "; "))
}

func (r seedRecord) seed(position int) (curriculum.Seed, error) {
	id := curriculum.SeedID(r.ID)
	if id == "" {
		id = curriculum.NewSeedID(position)
	}
	index, err := id.Index()
	if err != nil {
		return curriculum.Seed{}, err
	}
	return curriculum.Seed{ID: id, Index: index, Known: strings.TrimSpace(r.Known), Target: strings.TrimSpace(r.Target)}, nil
}

func (r unitRecord) unit() (curriculum.TeachingUnit, error) {
	id := curriculum.UnitID(r.ID)
	_, position, err := id.Parse()
	if err != nil {
		return curriculum.TeachingUnit{}, err
	}
	seedID, err := id.Seed()
	if err != nil {
		return curriculum.TeachingUnit{}, err
	}
	kind, err := curriculum.ParseKind(r.Kind)
	if err != nil {
		return curriculum.TeachingUnit{}, err
	}
	unit := curriculum.TeachingUnit{
		ID:             id,
		SeedID:         seedID,
		Position:       position,
		Kind:           kind,
		KnownGloss:     strings.TrimSpace(r.Known),
		TargetFragment: strings.TrimSpace(r.Target),
	}
	if r.Terminal != nil {
		unit.Terminal = *r.Terminal
	}
	for _, c := range r.Components {
		unit.SubPairs = append(unit.SubPairs, curriculum.SubPair{Known: strings.TrimSpace(c.Known), Target: strings.TrimSpace(c.Target)})
	}
	return unit, nil
}

func unitToRecord(u curriculum.TeachingUnit) unitRecord {
	rec := unitRecord{ID: string(u.ID), Known: u.KnownGloss, Target: u.TargetFragment}
	if u.Molecular() {
		rec.Kind = string(curriculum.KindMolecular)
	}
	if u.Terminal {
		terminal := true
		rec.Terminal = &terminal
	}
	for _, sp := range u.SubPairs {
		rec.Components = append(rec.Components, subPairRecord(sp))
	}
	return rec
}

func (r presentationRecord) presentation() registry.Presentation {
	return registry.Presentation{Unit: curriculum.UnitID(r.Unit), Text: strings.TrimSpace(r.Text)}
}
