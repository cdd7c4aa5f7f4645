package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"phrasebook/internal/build"
	"phrasebook/internal/identity"
	"phrasebook/internal/registry"
)

type sampleView struct {
	Text string `json:"text"`
	registry.Sample
}

func newSamplesCommand(ctx *commandContext) *cobra.Command {
	samplesCmd := &cobra.Command{
		Use:   "samples",
		Short: "Inspect registered samples and record rendered durations",
	}

	samplesCmd.AddCommand(newSamplesListCommand(ctx))
	samplesCmd.AddCommand(newSamplesSetDurationCommand(ctx))
	samplesCmd.AddCommand(newSamplesForgetCommand(ctx))

	return samplesCmd
}

func newSamplesListCommand(ctx *commandContext) *cobra.Command {
	var pendingOnly bool
	var roleFlag string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List every sample the course needs",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			var role identity.Role
			if strings.TrimSpace(roleFlag) != "" {
				if role, err = identity.ParseRole(roleFlag); err != nil {
					return err
				}
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
			res, err := builder.Check(cmd.Context())
			if err != nil {
				return err
			}

			var views []sampleView
			for _, text := range res.Registry.Texts() {
				for _, s := range res.Registry.Lookup(text) {
					if pendingOnly && s.Duration != nil {
						continue
					}
					if role != "" && s.Role != role {
						continue
					}
					views = append(views, sampleView{Text: text, Sample: s})
				}
			}
			if ctx.jsonOutput() {
				return writeJSON(cmd, views)
			}
			rows := make([][]string, 0, len(views))
			for _, v := range views {
				duration := "-"
				if v.Duration != nil {
					duration = strconv.FormatFloat(*v.Duration, 'f', 2, 64)
				}
				rows = append(rows, []string{string(v.ID), string(v.Role), v.Language, duration, v.Text})
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderTable([]string{"ID", "Role", "Lang", "Seconds", "Text"}, rows, []columnAlignment{alignLeft, alignLeft, alignLeft, alignRight}))
			fmt.Fprintf(out, "%d sample(s)\n", len(views))
			return nil
		},
	}

	cmd.Flags().BoolVar(&pendingOnly, "pending", false, "Only show samples without a recorded duration")
	cmd.Flags().StringVar(&roleFlag, "role", "", "Only show samples of this role")
	return cmd
}

func newSamplesSetDurationCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "set-duration <sample-id> <seconds>",
		Short: "Record the rendered duration of a sample",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			seconds, err := strconv.ParseFloat(strings.TrimSpace(args[1]), 64)
			if err != nil {
				return fmt.Errorf("invalid duration %q: %w", args[1], err)
			}
			st, err := ctx.openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			id := identity.ID(strings.ToUpper(strings.TrimSpace(args[0])))
			if err := st.RecordDuration(cmd.Context(), id, seconds); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Recorded %.2fs for %s\n", seconds, id)
			return nil
		},
	}
}

func newSamplesForgetCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "forget <sample-id>",
		Short: "Drop a recorded duration so the sample is rendered again",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := ctx.openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			id := identity.ID(strings.ToUpper(strings.TrimSpace(args[0])))
			removed, err := st.ForgetDuration(cmd.Context(), id)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if !removed {
				fmt.Fprintf(out, "No duration recorded for %s\n", id)
				return nil
			}
			fmt.Fprintf(out, "Forgot duration of %s\n", id)
			return nil
		},
	}
}
