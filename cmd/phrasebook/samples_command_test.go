package main

import (
	"encoding/json"
	"testing"

	"phrasebook/internal/identity"
)

func listSamples(t *testing.T, env *cliTestEnv, extra ...string) []sampleView {
	t.Helper()
	out, _, err := runCLI(t, append([]string{"--json", "samples", "list"}, extra...), env.configPath)
	if err != nil {
		t.Fatalf("samples list: %v", err)
	}
	var views []sampleView
	if err := json.Unmarshal([]byte(out), &views); err != nil {
		t.Fatalf("decode samples: %v\n%s", err, out)
	}
	return views
}

func TestSamplesDurationLifecycle(t *testing.T) {
	env := setupCLITestEnv(t)

	all := listSamples(t, env)
	if len(all) == 0 {
		t.Fatal("expected registered samples")
	}
	pending := listSamples(t, env, "--pending")
	if len(pending) != len(all) {
		t.Fatalf("expected every sample pending, got %d of %d", len(pending), len(all))
	}

	id, err := identity.Identify("quiero café", "es", identity.RoleTargetA, identity.CadenceNatural)
	if err != nil {
		t.Fatalf("Identify: %v", err)
	}
	out, _, err := runCLI(t, []string{"samples", "set-duration", string(id), "1.25"}, env.configPath)
	if err != nil {
		t.Fatalf("set-duration: %v", err)
	}
	requireContains(t, out, "Recorded 1.25s")

	pending = listSamples(t, env, "--pending")
	if len(pending) != len(all)-1 {
		t.Fatalf("expected one fewer pending sample, got %d of %d", len(pending), len(all))
	}
	for _, s := range pending {
		if s.ID == id {
			t.Fatalf("sample %s still pending after recording its duration", id)
		}
	}

	out, _, err = runCLI(t, []string{"samples", "forget", string(id)}, env.configPath)
	if err != nil {
		t.Fatalf("forget: %v", err)
	}
	requireContains(t, out, "Forgot duration")

	out, _, err = runCLI(t, []string{"samples", "forget", string(id)}, env.configPath)
	if err != nil {
		t.Fatalf("forget again: %v", err)
	}
	requireContains(t, out, "No duration recorded")
}

func TestSamplesListFiltersByRole(t *testing.T) {
	env := setupCLITestEnv(t)

	views := listSamples(t, env, "--role", "presentation")
	if len(views) != 1 {
		t.Fatalf("expected one presentation sample, got %d", len(views))
	}
	if views[0].Role != identity.RolePresentation {
		t.Fatalf("unexpected role %s", views[0].Role)
	}
}

func TestSamplesSetDurationRejectsBadSeconds(t *testing.T) {
	env := setupCLITestEnv(t)
	if _, _, err := runCLI(t, []string{"samples", "set-duration", "ABC", "soon"}, env.configPath); err == nil {
		t.Fatal("expected invalid seconds to fail")
	}
}
