package buildctx_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"phrasebook/internal/buildctx"
)

type scopedError struct{ scope buildctx.Scope }

func (e scopedError) Error() string { return "scoped" }

func (e scopedError) ErrorScope() buildctx.Scope { return e.scope }

func TestWrapKeepsMarkerAndCause(t *testing.T) {
	cause := errors.New("boom")
	err := buildctx.Wrap(buildctx.ErrIntegrity, "tiling", "check", "seed S0001", cause)
	if !errors.Is(err, buildctx.ErrIntegrity) {
		t.Fatalf("expected integrity marker, got %v", err)
	}
	if !errors.Is(err, cause) {
		t.Fatalf("expected cause to be wrapped, got %v", err)
	}
	if !strings.Contains(err.Error(), "tiling: check: seed S0001") {
		t.Fatalf("unexpected message %q", err.Error())
	}
}

func TestWrapDefaultsMarkerAndDetail(t *testing.T) {
	err := buildctx.Wrap(nil, "", "", "", nil)
	if !errors.Is(err, buildctx.ErrCorpus) {
		t.Fatalf("expected corpus marker, got %v", err)
	}
	if !strings.Contains(err.Error(), "build failure") {
		t.Fatalf("unexpected message %q", err.Error())
	}
}

func TestFailureScope(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want buildctx.Scope
	}{
		{"nil", nil, ""},
		{"validation", buildctx.Wrap(buildctx.ErrValidation, "gate", "", "", nil), buildctx.ScopeBasket},
		{"integrity", buildctx.Wrap(buildctx.ErrIntegrity, "tiling", "", "", nil), buildctx.ScopeSeed},
		{"dangling", fmt.Errorf("assemble: %w", buildctx.ErrDangling), buildctx.ScopeSeed},
		{"collision", buildctx.ErrCollision, buildctx.ScopeRun},
		{"unknown", errors.New("disk full"), buildctx.ScopeRun},
		{"classifier wins", fmt.Errorf("wrapped: %w", scopedError{scope: buildctx.ScopeBasket}), buildctx.ScopeBasket},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := buildctx.FailureScope(tc.err); got != tc.want {
				t.Fatalf("FailureScope() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestContextRoundTrip(t *testing.T) {
	ctx := buildctx.WithRunID(context.Background(), "run-1")
	ctx = buildctx.WithStage(ctx, "gate")
	ctx = buildctx.WithSeedID(ctx, "S0001")
	ctx = buildctx.WithUnitID(ctx, "S0001L01")
	ctx = buildctx.WithStage(ctx, "")

	if v, ok := buildctx.RunIDFromContext(ctx); !ok || v != "run-1" {
		t.Fatalf("run id = %q, %v", v, ok)
	}
	if v, ok := buildctx.StageFromContext(ctx); !ok || v != "gate" {
		t.Fatalf("stage = %q, %v", v, ok)
	}
	if v, ok := buildctx.SeedIDFromContext(ctx); !ok || v != "S0001" {
		t.Fatalf("seed id = %q, %v", v, ok)
	}
	if v, ok := buildctx.UnitIDFromContext(ctx); !ok || v != "S0001L01" {
		t.Fatalf("unit id = %q, %v", v, ok)
	}
	if _, ok := buildctx.RunIDFromContext(context.Background()); ok {
		t.Fatal("expected no run id on empty context")
	}
}
