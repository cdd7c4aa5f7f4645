package store_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"phrasebook/internal/basket"
	"phrasebook/internal/curriculum"
	"phrasebook/internal/identity"
	"phrasebook/internal/store"
	"phrasebook/internal/testsupport"
)

func acceptedBasket(unit curriculum.UnitID) *basket.Basket {
	b := basket.New(unit, []basket.Phrase{
		{Known: "coffee", Target: "café"},
		{Known: "I want coffee", Target: "quiero café"},
	})
	b.State = basket.StateAccepted
	b.Distribution = basket.Distribution{1, 1, 0, 0}
	return b
}

func TestOpenCreatesDatabaseInStateDir(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	want := filepath.Join(cfg.Paths.StateDir, store.DatabaseFile)
	if st.Path() != want {
		t.Fatalf("expected db path %q, got %q", want, st.Path())
	}
}

func TestReopenKeepsSchema(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st, err := store.Open(cfg)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, err := st.SaveBasket(context.Background(), "", acceptedBasket("S0001L01")); err != nil {
		t.Fatalf("save basket: %v", err)
	}
	if err := st.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reopened := testsupport.MustOpenStore(t, cfg)
	got, err := reopened.GetBasket(context.Background(), "S0001L01")
	if err != nil {
		t.Fatalf("get basket: %v", err)
	}
	if got == nil {
		t.Fatal("expected basket to survive reopen")
	}
}

func TestSaveBasketRoundTripAndChangeDetection(t *testing.T) {
	ctx := context.Background()
	st := testsupport.MustOpenStore(t, testsupport.NewConfig(t))

	b := acceptedBasket("S0001L02")
	changed, err := st.SaveBasket(ctx, "run-1", b)
	if err != nil {
		t.Fatalf("save basket: %v", err)
	}
	if !changed {
		t.Fatal("expected first save to report a change")
	}

	changed, err = st.SaveBasket(ctx, "run-2", b)
	if err != nil {
		t.Fatalf("resave basket: %v", err)
	}
	if changed {
		t.Fatal("expected identical resave to report no change")
	}

	stored, err := st.GetBasket(ctx, "S0001L02")
	if err != nil {
		t.Fatalf("get basket: %v", err)
	}
	if stored.RunID != "run-2" {
		t.Fatalf("expected run id to follow latest save, got %q", stored.RunID)
	}
	if stored.State != basket.StateAccepted || len(stored.Phrases) != 2 || stored.Phrases[1].Target != "quiero café" {
		t.Fatalf("unexpected stored basket %+v", stored.Basket)
	}
	if stored.Distribution != b.Distribution {
		t.Fatalf("expected distribution %v, got %v", b.Distribution, stored.Distribution)
	}
	if stored.UpdatedAt.IsZero() {
		t.Fatal("expected updated_at to be parsed")
	}

	b.State = basket.StateRejected
	b.Report = &basket.Report{Unit: b.Unit, Format: []string{"phrase #2 duplicates #1"}}
	changed, err = st.SaveBasket(ctx, "run-3", b)
	if err != nil {
		t.Fatalf("save rejected basket: %v", err)
	}
	if !changed {
		t.Fatal("expected state change to be detected")
	}
	stored, err = st.GetBasket(ctx, "S0001L02")
	if err != nil {
		t.Fatalf("get basket: %v", err)
	}
	if stored.Report == nil || len(stored.Report.Format) != 1 {
		t.Fatalf("expected report to round trip, got %+v", stored.Report)
	}
}

func TestGetBasketMissing(t *testing.T) {
	st := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	got, err := st.GetBasket(context.Background(), "S0009L01")
	if err != nil {
		t.Fatalf("get basket: %v", err)
	}
	if got != nil {
		t.Fatalf("expected nil for unknown unit, got %+v", got)
	}
}

func TestListBasketsFiltersAndPrunes(t *testing.T) {
	ctx := context.Background()
	st := testsupport.MustOpenStore(t, testsupport.NewConfig(t))

	rejected := acceptedBasket("S0002L01")
	rejected.State = basket.StateRejected
	for _, b := range []*basket.Basket{acceptedBasket("S0001L02"), rejected, acceptedBasket("S0001L01")} {
		if _, err := st.SaveBasket(ctx, "", b); err != nil {
			t.Fatalf("save %s: %v", b.Unit, err)
		}
	}

	all, err := st.ListBaskets(ctx)
	if err != nil {
		t.Fatalf("list baskets: %v", err)
	}
	if len(all) != 3 || all[0].Unit != "S0001L01" || all[2].Unit != "S0002L01" {
		t.Fatalf("expected three baskets ordered by unit, got %d", len(all))
	}

	accepted, err := st.ListBaskets(ctx, basket.StateAccepted)
	if err != nil {
		t.Fatalf("list accepted: %v", err)
	}
	if len(accepted) != 2 {
		t.Fatalf("expected 2 accepted baskets, got %d", len(accepted))
	}

	stats, err := st.BasketStats(ctx)
	if err != nil {
		t.Fatalf("basket stats: %v", err)
	}
	if stats[basket.StateAccepted] != 2 || stats[basket.StateRejected] != 1 {
		t.Fatalf("unexpected stats %v", stats)
	}

	removed, err := st.PruneBaskets(ctx, []curriculum.UnitID{"S0001L01", "S0001L02"})
	if err != nil {
		t.Fatalf("prune: %v", err)
	}
	if removed != 1 {
		t.Fatalf("expected one pruned basket, got %d", removed)
	}
	if got, _ := st.GetBasket(ctx, "S0002L01"); got != nil {
		t.Fatal("expected pruned basket to be gone")
	}
}

func TestDurations(t *testing.T) {
	ctx := context.Background()
	st := testsupport.MustOpenStore(t, testsupport.NewConfig(t))

	id, err := identity.Identify("quiero café", "es", identity.RoleTargetA, identity.CadenceNatural)
	if err != nil {
		t.Fatalf("identify: %v", err)
	}
	if err := st.RecordDuration(ctx, id, 1.25); err != nil {
		t.Fatalf("record duration: %v", err)
	}
	if err := st.RecordDuration(ctx, id, 1.5); err != nil {
		t.Fatalf("overwrite duration: %v", err)
	}

	durations, err := st.Durations(ctx)
	if err != nil {
		t.Fatalf("durations: %v", err)
	}
	if durations[id] != 1.5 || len(durations) != 1 {
		t.Fatalf("unexpected durations %v", durations)
	}

	removed, err := st.ForgetDuration(ctx, id)
	if err != nil || !removed {
		t.Fatalf("forget duration: removed=%v err=%v", removed, err)
	}
	removed, err = st.ForgetDuration(ctx, id)
	if err != nil || removed {
		t.Fatalf("second forget should be a no-op: removed=%v err=%v", removed, err)
	}
}

func TestRecordDurationRejectsBadInput(t *testing.T) {
	ctx := context.Background()
	st := testsupport.MustOpenStore(t, testsupport.NewConfig(t))

	if err := st.RecordDuration(ctx, "not-an-id", 1); err == nil {
		t.Fatal("expected malformed id to be rejected")
	}
	id, err := identity.Identify("café", "es", identity.RoleTargetB, identity.CadenceNatural)
	if err != nil {
		t.Fatalf("identify: %v", err)
	}
	for _, seconds := range []float64{0, -1} {
		if err := st.RecordDuration(ctx, id, seconds); err == nil {
			t.Fatalf("expected duration %v to be rejected", seconds)
		}
	}
}

func TestRunLifecycle(t *testing.T) {
	ctx := context.Background()
	st := testsupport.MustOpenStore(t, testsupport.NewConfig(t))

	run, err := st.StartRun(ctx)
	if err != nil {
		t.Fatalf("start run: %v", err)
	}
	if run.ID == "" || run.Status != store.RunRunning {
		t.Fatalf("unexpected new run %+v", run)
	}

	run.Stats = store.RunStats{Seeds: 2, Units: 4, Accepted: 1, Samples: 17, FailedSeeds: 1}
	if err := st.FinishRun(ctx, run, nil); err != nil {
		t.Fatalf("finish run: %v", err)
	}

	got, err := st.GetRun(ctx, run.ID)
	if err != nil {
		t.Fatalf("get run: %v", err)
	}
	if got.Status != store.RunSucceeded || got.FinishedAt == nil || got.Stats != run.Stats {
		t.Fatalf("unexpected stored run %+v", got)
	}
}

func TestFinishRunClassifiesErrors(t *testing.T) {
	st := testsupport.MustOpenStore(t, testsupport.NewConfig(t))

	cancelled, cancel := context.WithCancel(context.Background())
	run, err := st.StartRun(cancelled)
	if err != nil {
		t.Fatalf("start run: %v", err)
	}
	cancel()
	if err := st.FinishRun(cancelled, run, context.Canceled); err != nil {
		t.Fatalf("finish cancelled run: %v", err)
	}
	if run.Status != store.RunCancelled {
		t.Fatalf("expected cancelled status, got %s", run.Status)
	}

	failed, err := st.StartRun(context.Background())
	if err != nil {
		t.Fatalf("start run: %v", err)
	}
	if err := st.FinishRun(context.Background(), failed, errors.New("write manifest: disk full")); err != nil {
		t.Fatalf("finish failed run: %v", err)
	}
	got, err := st.GetRun(context.Background(), failed.ID)
	if err != nil {
		t.Fatalf("get run: %v", err)
	}
	if got.Status != store.RunFailed || got.Error != "write manifest: disk full" {
		t.Fatalf("unexpected failed run %+v", got)
	}
}

func TestResetStaleRuns(t *testing.T) {
	ctx := context.Background()
	st := testsupport.MustOpenStore(t, testsupport.NewConfig(t))

	if _, err := st.StartRun(ctx); err != nil {
		t.Fatalf("start run: %v", err)
	}
	done, err := st.StartRun(ctx)
	if err != nil {
		t.Fatalf("start run: %v", err)
	}
	if err := st.FinishRun(ctx, done, nil); err != nil {
		t.Fatalf("finish run: %v", err)
	}

	n, err := st.ResetStaleRuns(ctx)
	if err != nil {
		t.Fatalf("reset stale runs: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected one stale run, got %d", n)
	}

	runs, err := st.RecentRuns(ctx, 10)
	if err != nil {
		t.Fatalf("recent runs: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(runs))
	}
	for _, run := range runs {
		if run.Status == store.RunRunning {
			t.Fatalf("run %s still marked running", run.ID)
		}
	}
}
