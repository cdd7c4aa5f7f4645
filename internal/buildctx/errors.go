package buildctx

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrConfiguration = errors.New("configuration error")
	ErrCorpus        = errors.New("corpus error")
	ErrIntegrity     = errors.New("data integrity error")
	ErrValidation    = errors.New("validation error")
	ErrCollision     = errors.New("identity collision")
	ErrDangling      = errors.New("dangling reference")
)

// Scope describes how much of a build a failure invalidates.
type Scope string

const (
	ScopeRun    Scope = "run"
	ScopeSeed   Scope = "seed"
	ScopeBasket Scope = "basket"
)

// ErrorClassifier allows typed errors to declare their scope directly.
type ErrorClassifier interface {
	// ErrorScope returns the reach of the failure.
	ErrorScope() Scope
}

// Wrap builds an error message that includes stage context while tagging it
// with the provided marker for later classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrCorpus
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// FailureScope maps an error onto the part of the build it invalidates.
// Unknown errors abort the run.
func FailureScope(err error) Scope {
	if err == nil {
		return ""
	}
	var classifier ErrorClassifier
	if errors.As(err, &classifier) {
		return classifier.ErrorScope()
	}
	switch {
	case errors.Is(err, ErrValidation):
		return ScopeBasket
	case errors.Is(err, ErrIntegrity), errors.Is(err, ErrDangling):
		return ScopeSeed
	default:
		return ScopeRun
	}
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "build failure"
	}
	return strings.Join(parts, ": ")
}
