package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"phrasebook/internal/basket"
	"phrasebook/internal/chunking"
	"phrasebook/internal/config"
	"phrasebook/internal/corpus"
	"phrasebook/internal/curriculum"
)

func newDecomposeCommand(ctx *commandContext) *cobra.Command {
	var sentence string
	var showRules bool
	var proposals bool

	cmd := &cobra.Command{
		Use:   "decompose [seed-id...]",
		Short: "Propose teaching units for seeds in units.yaml format",
		Long: "Propose teaching units for the given seeds (all seeds when none are named)\n" +
			"using the [chunking] word lists. Known glosses are left blank for the author.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			chunker := chunking.New(chunking.ListsFromConfig(cfg.Chunking))
			out := cmd.OutOrStdout()

			if strings.TrimSpace(sentence) != "" {
				chunks := chunker.Split(sentence)
				if ctx.jsonOutput() {
					return writeJSON(cmd, chunks)
				}
				rows := make([][]string, 0, len(chunks))
				for _, c := range chunks {
					rows = append(rows, []string{c.Text, string(c.Kind), c.Rule})
				}
				fmt.Fprintln(out, renderTable([]string{"Chunk", "Kind", "Rule"}, rows, nil))
				return nil
			}

			seeds, err := selectSeeds(cfg, args)
			if err != nil {
				return err
			}
			var units []curriculum.TeachingUnit
			for _, seed := range seeds {
				proposed := chunker.Propose(seed)
				if showRules {
					for _, c := range chunker.Split(seed.Target) {
						fmt.Fprintf(cmd.ErrOrStderr(), "%s: %q via %s\n", seed.ID, c.Text, c.Rule)
					}
				}
				units = append(units, proposed...)
			}
			if proposals {
				return writeProposalSkeleton(cmd, ctx, units)
			}
			if ctx.jsonOutput() {
				return writeJSON(cmd, units)
			}
			body, err := corpus.EncodeUnits(units)
			if err != nil {
				return err
			}
			_, err = out.Write(body)
			return err
		},
	}

	cmd.Flags().StringVar(&sentence, "text", "", "Split an ad hoc sentence instead of corpus seeds")
	cmd.Flags().BoolVar(&showRules, "rules", false, "Report which rule produced each unit on stderr")
	cmd.Flags().BoolVar(&proposals, "proposals", false, "Emit a proposals.yaml skeleton with an empty basket per proposed unit")
	return cmd
}

func writeProposalSkeleton(cmd *cobra.Command, ctx *commandContext, units []curriculum.TeachingUnit) error {
	skeleton := make(map[curriculum.UnitID][]basket.Phrase, len(units))
	for _, unit := range units {
		skeleton[unit.ID] = []basket.Phrase{}
	}
	if ctx.jsonOutput() {
		return writeJSON(cmd, skeleton)
	}
	body, err := corpus.EncodeProposals(skeleton)
	if err != nil {
		return err
	}
	_, err = cmd.OutOrStdout().Write(body)
	return err
}

func selectSeeds(cfg *config.Config, ids []string) ([]curriculum.Seed, error) {
	seeds, err := corpus.LoadSeeds(cfg.Paths.CorpusDir)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return seeds, nil
	}
	byID := make(map[curriculum.SeedID]curriculum.Seed, len(seeds))
	for _, s := range seeds {
		byID[s.ID] = s
	}
	selected := make([]curriculum.Seed, 0, len(ids))
	for _, raw := range ids {
		seed, ok := byID[curriculum.SeedID(strings.TrimSpace(raw))]
		if !ok {
			return nil, fmt.Errorf("unknown seed %q", raw)
		}
		selected = append(selected, seed)
	}
	return selected, nil
}
