package basket

import (
	"slices"

	"phrasebook/internal/curriculum"
)

// State is a basket's position in the validation lifecycle.
type State string

const (
	StateDrafting   State = "drafting"
	StateValidating State = "validating"
	StateAccepted   State = "accepted"
	StateRejected   State = "rejected"
)

// Basket is the practice basket of one teaching unit.
type Basket struct {
	Unit         curriculum.UnitID `json:"unit_id"`
	Phrases      []Phrase          `json:"phrases"`
	State        State             `json:"state"`
	Distribution Distribution      `json:"distribution"`
	Report       *Report           `json:"report,omitempty"`
}

// New starts a drafting basket.
func New(unit curriculum.UnitID, phrases []Phrase) *Basket {
	return &Basket{Unit: unit, Phrases: slices.Clone(phrases), State: StateDrafting}
}

// Accepted reports whether the basket passed validation.
func (b *Basket) Accepted() bool {
	return b != nil && b.State == StateAccepted
}

// ProposalSource supplies authored candidate phrases per unit.
type ProposalSource interface {
	Proposals(unit curriculum.UnitID) []Phrase
}
