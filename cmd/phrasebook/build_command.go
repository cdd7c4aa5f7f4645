package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"phrasebook/internal/basket"
	"phrasebook/internal/build"
	"phrasebook/internal/curriculum"
)

func newBuildCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "build",
		Short: "Validate baskets, register samples and publish the course",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			st, err := ctx.openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			builder, err := build.New(cfg, st, logger)
			if err != nil {
				return err
			}
			res, err := builder.Run(cmd.Context())
			if err != nil {
				return err
			}
			if err := printResult(cmd, ctx, res); err != nil {
				return err
			}
			if n := len(res.Failures); n > 0 {
				return fmt.Errorf("%d seed(s) left out of the manifest", n)
			}
			return nil
		},
	}
}

func newValidateCommand(ctx *commandContext) *cobra.Command {
	var strict bool

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check the corpus and every practice basket without writing anything",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			builder, err := build.New(cfg, nil, logger)
			if err != nil {
				return err
			}
			res, err := builder.Check(cmd.Context())
			if err != nil {
				return err
			}
			if err := printResult(cmd, ctx, res); err != nil {
				return err
			}
			if n := len(res.Failures); n > 0 {
				return fmt.Errorf("%d seed(s) would be left out of the manifest", n)
			}
			if strict && len(res.Rejected) > 0 {
				return fmt.Errorf("%d practice basket(s) rejected", len(res.Rejected))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&strict, "strict", false, "Fail when any practice basket is rejected")
	return cmd
}

type resultView struct {
	RunID     string          `json:"run_id"`
	Stats     any             `json:"stats"`
	Pending   int             `json:"pending_samples"`
	Rejected  []rejectionView `json:"rejected,omitempty"`
	Tiling    []tilingView    `json:"tiling,omitempty"`
	Failures  []failureView   `json:"failures,omitempty"`
	Orphans   []string        `json:"orphans,omitempty"`
	Published []string        `json:"published,omitempty"`
}

type rejectionView struct {
	Unit     curriculum.UnitID `json:"unit_id"`
	Problems []string          `json:"problems"`
}

type tilingView struct {
	Seed     curriculum.SeedID `json:"seed_id"`
	Sentence string            `json:"sentence"`
	Tiled    string            `json:"tiled"`
}

type failureView struct {
	Seed  curriculum.SeedID `json:"seed_id"`
	Error string            `json:"error"`
}

func newResultView(res *build.Result) resultView {
	view := resultView{RunID: res.RunID, Stats: res.Stats, Published: res.Published}
	if res.Registry != nil {
		view.Pending = len(res.Registry.Pending())
	}
	for _, b := range res.Rejected {
		view.Rejected = append(view.Rejected, rejectionView{Unit: b.Unit, Problems: reportProblems(b.Report)})
	}
	for _, v := range res.Tiling {
		view.Tiling = append(view.Tiling, tilingView{Seed: v.Seed, Sentence: v.Sentence, Tiled: v.Tiled})
	}
	for _, f := range res.Failures {
		view.Failures = append(view.Failures, failureView{Seed: f.Seed, Error: f.Err.Error()})
	}
	for _, id := range res.Orphans {
		view.Orphans = append(view.Orphans, string(id))
	}
	return view
}

// reportProblems flattens a basket report into one line per problem.
func reportProblems(r *basket.Report) []string {
	if r.Empty() {
		return nil
	}
	problems := append([]string(nil), r.Format...)
	if r.Gate != nil {
		for _, pv := range r.Gate.Phrases {
			problems = append(problems, fmt.Sprintf("phrase #%d %q: untaught %s", pv.Index, pv.Phrase.Target, strings.Join(pv.Tokens, ", ")))
		}
	}
	if r.Distribution != nil {
		problems = append(problems, r.Distribution.Error())
	}
	return problems
}

func printResult(cmd *cobra.Command, ctx *commandContext, res *build.Result) error {
	view := newResultView(res)
	if ctx.jsonOutput() {
		return writeJSON(cmd, view)
	}
	out := cmd.OutOrStdout()

	stats := res.Stats
	rows := [][]string{
		{"Seeds", strconv.Itoa(stats.Seeds)},
		{"Teaching units", strconv.Itoa(stats.Units)},
		{"Accepted baskets", strconv.Itoa(stats.Accepted)},
		{"Rejected baskets", strconv.Itoa(stats.Rejected)},
		{"Samples", strconv.Itoa(stats.Samples)},
		{"Awaiting render", strconv.Itoa(view.Pending)},
		{"Failed seeds", strconv.Itoa(stats.FailedSeeds)},
	}
	fmt.Fprintln(out, renderTable([]string{"Metric", "Value"}, rows, []columnAlignment{alignLeft, alignRight}))

	if len(view.Tiling) > 0 {
		fmt.Fprintln(out, paint(out, "Tiling violations", text.FgRed, text.Bold))
		tilingRows := make([][]string, 0, len(view.Tiling))
		for _, v := range view.Tiling {
			tilingRows = append(tilingRows, []string{string(v.Seed), v.Sentence, v.Tiled})
		}
		fmt.Fprintln(out, renderTable([]string{"Seed", "Sentence", "Units"}, tilingRows, nil))
	}
	printRejections(out, view.Rejected)
	if len(view.Failures) > 0 {
		fmt.Fprintln(out, paint(out, "Seeds left out", text.FgRed, text.Bold))
		failRows := make([][]string, 0, len(view.Failures))
		for _, f := range view.Failures {
			failRows = append(failRows, []string{string(f.Seed), f.Error})
		}
		fmt.Fprintln(out, renderTable([]string{"Seed", "Reason"}, failRows, nil))
	}
	if len(view.Orphans) > 0 {
		fmt.Fprintf(out, "Ignored entries for unknown units: %s\n", strings.Join(view.Orphans, ", "))
	}
	if len(view.Published) > 0 {
		fmt.Fprintln(out, paint(out, "Published:", text.FgGreen))
		for _, path := range view.Published {
			fmt.Fprintf(out, "  %s\n", path)
		}
	}
	return nil
}

func printRejections(out io.Writer, rejected []rejectionView) {
	if len(rejected) == 0 {
		return
	}
	fmt.Fprintln(out, paint(out, "Rejected baskets", text.FgYellow, text.Bold))
	rows := make([][]string, 0, len(rejected))
	for _, r := range rejected {
		for i, problem := range r.Problems {
			unit := string(r.Unit)
			if i > 0 {
				unit = ""
			}
			rows = append(rows, []string{unit, problem})
		}
	}
	fmt.Fprintln(out, renderTable([]string{"Unit", "Problem"}, rows, nil))
}
