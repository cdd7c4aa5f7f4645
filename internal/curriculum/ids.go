package curriculum

import (
	"fmt"
	"regexp"
	"strconv"
)

// SeedID identifies a seed, formatted as S followed by a four digit index.
type SeedID string

// UnitID identifies a teaching unit by seed index and local position.
type UnitID string

var (
	seedIDPattern = regexp.MustCompile(`^S(\d{4,})$`)
	unitIDPattern = regexp.MustCompile(`^S(\d{4,})L(\d{2,})$`)
)

// NewSeedID formats a 1-based seed index.
func NewSeedID(index int) SeedID {
	return SeedID(fmt.Sprintf("S%04d", index))
}

// NewUnitID formats a 1-based seed index and 1-based local position.
func NewUnitID(seedIndex, position int) UnitID {
	return UnitID(fmt.Sprintf("S%04dL%02d", seedIndex, position))
}

// Index parses the seed index encoded in the id.
func (id SeedID) Index() (int, error) {
	m := seedIDPattern.FindStringSubmatch(string(id))
	if m == nil {
		return 0, fmt.Errorf("malformed seed id %q", id)
	}
	return strconv.Atoi(m[1])
}

// Parse returns the seed index and local position encoded in the id.
func (id UnitID) Parse() (seedIndex, position int, err error) {
	m := unitIDPattern.FindStringSubmatch(string(id))
	if m == nil {
		return 0, 0, fmt.Errorf("malformed unit id %q", id)
	}
	if seedIndex, err = strconv.Atoi(m[1]); err != nil {
		return 0, 0, fmt.Errorf("unit id %q seed index: %w", id, err)
	}
	if position, err = strconv.Atoi(m[2]); err != nil {
		return 0, 0, fmt.Errorf("unit id %q position: %w", id, err)
	}
	return seedIndex, position, nil
}

// Seed returns the seed the unit id belongs to.
func (id UnitID) Seed() (SeedID, error) {
	seedIndex, _, err := id.Parse()
	if err != nil {
		return "", err
	}
	return NewSeedID(seedIndex), nil
}
