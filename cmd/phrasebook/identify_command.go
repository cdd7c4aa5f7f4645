package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"phrasebook/internal/identity"
)

type identityView struct {
	Text     string           `json:"text"`
	Role     identity.Role    `json:"role"`
	Language string           `json:"language"`
	Cadence  identity.Cadence `json:"cadence"`
	ID       identity.ID      `json:"id"`
}

func newIdentifyCommand(ctx *commandContext) *cobra.Command {
	var roleFlag string
	var languageFlag string
	var cadenceFlag string

	cmd := &cobra.Command{
		Use:   "identify <text>",
		Short: "Compute the sample identifiers of a text",
		Long: "Compute the deterministic sample identifiers of a text. Without --role the\n" +
			"text is identified as known-language source audio and as both target renditions.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			cadence, err := identity.ParseCadence(firstNonEmpty(cadenceFlag, cfg.Identity.Cadence))
			if err != nil {
				return err
			}

			type request struct {
				role     identity.Role
				language string
			}
			var requests []request
			if strings.TrimSpace(roleFlag) != "" {
				role, err := identity.ParseRole(roleFlag)
				if err != nil {
					return err
				}
				language := cfg.Course.TargetLanguage
				if role == identity.RoleSource || role == identity.RolePresentation {
					language = cfg.Course.KnownLanguage
				}
				requests = append(requests, request{role: role, language: language})
			} else {
				requests = []request{
					{identity.RoleSource, cfg.Course.KnownLanguage},
					{identity.RoleTargetA, cfg.Course.TargetLanguage},
					{identity.RoleTargetB, cfg.Course.TargetLanguage},
				}
			}

			views := make([]identityView, 0, len(requests))
			for _, req := range requests {
				language := firstNonEmpty(languageFlag, req.language)
				id, err := identity.Identify(args[0], language, req.role, cadence)
				if err != nil {
					return err
				}
				views = append(views, identityView{Text: args[0], Role: req.role, Language: language, Cadence: cadence, ID: id})
			}
			if ctx.jsonOutput() {
				return writeJSON(cmd, views)
			}
			rows := make([][]string, 0, len(views))
			for _, v := range views {
				rows = append(rows, []string{string(v.Role), v.Language, string(v.Cadence), string(v.ID)})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Role", "Language", "Cadence", "ID"}, rows, nil))
			return nil
		},
	}

	cmd.Flags().StringVar(&roleFlag, "role", "", "Sample role: source, target-rendition-A, target-rendition-B or presentation")
	cmd.Flags().StringVar(&languageFlag, "language", "", "Language code (defaults to the course language for the role)")
	cmd.Flags().StringVar(&cadenceFlag, "cadence", "", "natural or slow (defaults to identity.cadence)")
	return cmd
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			return trimmed
		}
	}
	return ""
}
