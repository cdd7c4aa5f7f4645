package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"phrasebook/internal/build"
	"phrasebook/internal/curriculum"
	"phrasebook/internal/gate"
	"phrasebook/internal/lexis"
)

type whitelistEntry struct {
	Unit         lexis.LexicalUnit `json:"unit"`
	IntroducedBy curriculum.UnitID `json:"introduced_by"`
}

type whitelistView struct {
	Cursor        string                `json:"cursor"`
	Units         []whitelistEntry      `json:"units"`
	Idioms        [][]lexis.LexicalUnit `json:"idioms,omitempty"`
	AlwaysAllowed []lexis.LexicalUnit   `json:"always_allowed,omitempty"`
}

func newWhitelistCommand(ctx *commandContext) *cobra.Command {
	var before bool

	cmd := &cobra.Command{
		Use:   "whitelist <unit-id>",
		Short: "Show the vocabulary taught up to a teaching unit",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			course, err := build.LoadCourse(cfg)
			if err != nil {
				return err
			}
			id := curriculum.UnitID(strings.TrimSpace(args[0]))
			cursor := gate.Including(id)
			if before {
				cursor = gate.Before(id)
			}
			snap, err := course.Gate.Whitelist(cursor)
			if err != nil {
				return err
			}

			view := whitelistView{
				Cursor:        cursor.String(),
				Units:         make([]whitelistEntry, 0, snap.Len()),
				Idioms:        snap.Idioms(),
				AlwaysAllowed: course.Gate.AlwaysAllowed(),
			}
			for _, unit := range snap.Units() {
				introduced, _ := course.Gate.IntroducedBy(unit)
				view.Units = append(view.Units, whitelistEntry{Unit: unit, IntroducedBy: introduced})
			}
			if ctx.jsonOutput() {
				return writeJSON(cmd, view)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Whitelist %s: %d taught\n", view.Cursor, len(view.Units))
			rows := make([][]string, 0, len(view.Units))
			for i, entry := range view.Units {
				rows = append(rows, []string{strconv.Itoa(i + 1), string(entry.Unit), string(entry.IntroducedBy)})
			}
			fmt.Fprintln(out, renderTable([]string{"#", "Unit", "Introduced by"}, rows, []columnAlignment{alignRight}))
			if len(view.AlwaysAllowed) > 0 {
				parts := make([]string, len(view.AlwaysAllowed))
				for i, p := range view.AlwaysAllowed {
					parts[i] = string(p)
				}
				fmt.Fprintf(out, "Always allowed: %s\n", strings.Join(parts, ", "))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&before, "before", false, "Exclude the unit's own vocabulary")
	return cmd
}
