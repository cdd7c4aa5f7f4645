package identity

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// keyVersion is mixed into every digest; bumping it invalidates all rendered
// samples.
const keyVersion = "phrasebook/sample/v1"

// Role is the part a sample plays in the course.
type Role string

const (
	RoleSource       Role = "source"
	RoleTargetA      Role = "target-rendition-A"
	RoleTargetB      Role = "target-rendition-B"
	RolePresentation Role = "presentation"
)

// Roles lists every role in registration order.
var Roles = []Role{RoleSource, RoleTargetA, RoleTargetB, RolePresentation}

var discriminators = map[Role]string{
	RoleSource:       "50C0-E001",
	RoleTargetA:      "7A46-E00A",
	RoleTargetB:      "7A46-E00B",
	RolePresentation: "9E5E-E00C",
}

// ParseRole maps user input onto a Role.
func ParseRole(value string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "source", "known":
		return RoleSource, nil
	case "target-rendition-a", "target-a", "target_a", "target1":
		return RoleTargetA, nil
	case "target-rendition-b", "target-b", "target_b", "target2":
		return RoleTargetB, nil
	case "presentation":
		return RolePresentation, nil
	default:
		return "", fmt.Errorf("unknown sample role %q", value)
	}
}

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	_, ok := discriminators[r]
	return ok
}

// Cadence is the delivery speed a sample is rendered at.
type Cadence string

const (
	CadenceNatural Cadence = "natural"
	CadenceSlow    Cadence = "slow"
)

// ParseCadence maps user input onto a Cadence. Blank input means natural.
func ParseCadence(value string) (Cadence, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", string(CadenceNatural):
		return CadenceNatural, nil
	case string(CadenceSlow):
		return CadenceSlow, nil
	default:
		return "", fmt.Errorf("unknown cadence %q", value)
	}
}

// ID is a sample identifier.
type ID string

func (id ID) String() string { return string(id) }

// Key is the full input of an identifier.
type Key struct {
	Text     string  `json:"text"`
	Language string  `json:"language"`
	Role     Role    `json:"role"`
	Cadence  Cadence `json:"cadence"`
}

// Canonical returns the key in the form that is hashed.
func (k Key) Canonical() Key {
	return Key{
		Text:     norm.NFC.String(strings.TrimSpace(k.Text)),
		Language: strings.ToLower(strings.TrimSpace(k.Language)),
		Role:     k.Role,
		Cadence:  k.Cadence,
	}
}

// Validate reports why a key cannot be identified.
func (k Key) Validate() error {
	c := k.Canonical()
	if c.Text == "" {
		return errors.New("sample text is empty")
	}
	if c.Language == "" {
		return errors.New("sample language is empty")
	}
	if !c.Role.Valid() {
		return fmt.Errorf("unknown sample role %q", k.Role)
	}
	if c.Cadence != CadenceNatural && c.Cadence != CadenceSlow {
		return fmt.Errorf("unknown cadence %q", k.Cadence)
	}
	return nil
}

// ID derives the identifier. The key must be valid.
func (k Key) ID() ID {
	c := k.Canonical()
	h := sha256.New()
	for _, part := range []string{keyVersion, c.Text, c.Language, string(c.Role), string(c.Cadence)} {
		_, _ = h.Write([]byte(part))
		_, _ = h.Write([]byte{0})
	}
	sum := strings.ToUpper(hex.EncodeToString(h.Sum(nil)))
	return ID(sum[0:8] + "-" + discriminators[c.Role] + "-" + sum[8:12] + "-" + sum[12:24])
}

// Identify validates the inputs and returns the sample identifier.
func Identify(text, language string, role Role, cadence Cadence) (ID, error) {
	key := Key{Text: text, Language: language, Role: role, Cadence: cadence}
	if err := key.Validate(); err != nil {
		return "", fmt.Errorf("identify: %w", err)
	}
	return key.ID(), nil
}

// RoleOf recovers the role from an identifier's discriminator groups.
func RoleOf(id ID) (Role, bool) {
	s := string(id)
	if len(s) != 36 {
		return "", false
	}
	disc := s[9:18]
	for role, d := range discriminators {
		if d == disc {
			return role, true
		}
	}
	return "", false
}
