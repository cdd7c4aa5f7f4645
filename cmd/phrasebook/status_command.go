package main

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"phrasebook/internal/basket"
	"phrasebook/internal/store"
)

type statusView struct {
	Database string               `json:"database"`
	Baskets  map[basket.State]int `json:"baskets"`
	Runs     []*store.Run         `json:"runs"`
}

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show stored basket states and recent build runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := ctx.openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			stats, err := st.BasketStats(cmd.Context())
			if err != nil {
				return err
			}
			runs, err := st.RecentRuns(cmd.Context(), limit)
			if err != nil {
				return err
			}
			view := statusView{Database: st.Path(), Baskets: stats, Runs: runs}
			if ctx.jsonOutput() {
				return writeJSON(cmd, view)
			}
			printStatus(cmd, view)
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "Number of recent runs to show")
	return cmd
}

func printStatus(cmd *cobra.Command, view statusView) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Database: %s\n", view.Database)

	states := []basket.State{basket.StateAccepted, basket.StateRejected, basket.StateValidating, basket.StateDrafting}
	basketRows := make([][]string, 0, len(states))
	for _, state := range states {
		basketRows = append(basketRows, []string{string(state), strconv.Itoa(view.Baskets[state])})
	}
	fmt.Fprintln(out, renderTable([]string{"Basket state", "Count"}, basketRows, []columnAlignment{alignLeft, alignRight}))

	if len(view.Runs) == 0 {
		fmt.Fprintln(out, "No build runs recorded")
		return
	}
	runRows := make([][]string, 0, len(view.Runs))
	for _, run := range view.Runs {
		runRows = append(runRows, []string{
			run.ID,
			runStatusLabel(out, run.Status),
			run.StartedAt.Local().Format(time.DateTime),
			runDuration(run),
			strconv.Itoa(run.Stats.Accepted),
			strconv.Itoa(run.Stats.Rejected),
			strconv.Itoa(run.Stats.Samples),
			run.Error,
		})
	}
	fmt.Fprintln(out, renderTable(
		[]string{"Run", "Status", "Started", "Took", "Accepted", "Rejected", "Samples", "Error"},
		runRows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignRight, alignRight},
	))
}

func runStatusLabel(w io.Writer, status store.RunStatus) string {
	label := string(status)
	switch status {
	case store.RunSucceeded:
		return paint(w, label, text.FgGreen)
	case store.RunFailed:
		return paint(w, label, text.FgRed)
	case store.RunCancelled:
		return paint(w, label, text.FgYellow)
	default:
		return label
	}
}

func runDuration(run *store.Run) string {
	if run.FinishedAt == nil {
		return "-"
	}
	return run.FinishedAt.Sub(run.StartedAt).Round(time.Millisecond).String()
}
