package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/jonathan/proposal-builder/internal/config"
	"github.com/jonathan/proposal-builder/internal/observability"
	"github.com/jonathan/proposal-builder/internal/rendering"
	"github.com/jonathan/proposal-builder/internal/schemas"
	"github.com/jonathan/proposal-builder/internal/sections"
	"github.com/jonathan/proposal-builder/internal/types"
)

var (
	sectionsProposal string
	sectionsProfile  string
	sectionsRender   string
	sectionsFont     string
	sectionsPretty   bool
)

var sectionsCmd = &cobra.Command{
	Use:   "sections",
	Short: "Rebuild the seed sections of a saved proposal",
	Long: `Rebuild the proposal sections from a proposal JSON written by run --dump-json,
using the company profile, without calling a model. With --render the rebuilt
proposal is also rendered to a PDF.`,
	RunE: runSections,
}

func init() {
	sectionsCmd.Flags().StringVarP(&sectionsProposal, "proposal", "p", "", "Path to proposal JSON")
	sectionsCmd.Flags().StringVar(&sectionsProfile, "profile", "", "Company profile YAML")
	sectionsCmd.Flags().StringVar(&sectionsRender, "render", "", "Render the rebuilt proposal to this PDF path")
	sectionsCmd.Flags().StringVar(&sectionsFont, "font", "", "TrueType font for --render")
	sectionsCmd.Flags().BoolVar(&sectionsPretty, "pretty", false, "Print a section overview instead of JSON")
	_ = sectionsCmd.MarkFlagRequired("proposal")
	rootCmd.AddCommand(sectionsCmd)
}

// proposalSchema is the published schema for run --dump-json output.
var proposalSchema = filepath.Join("schemas", "proposal.schema.json")

func runSections(cmd *cobra.Command, _ []string) error {
	if schemaPath := schemas.ResolveSchemaPath(proposalSchema); schemaPath != "" {
		if err := schemas.ValidateJSON(schemaPath, sectionsProposal); err != nil {
			return fmt.Errorf("proposal %s does not match %s: %w", sectionsProposal, proposalSchema, err)
		}
	}

	data, err := os.ReadFile(sectionsProposal)
	if err != nil {
		return fmt.Errorf("failed to read proposal: %w", err)
	}
	var proposal types.Proposal
	if err := json.Unmarshal(data, &proposal); err != nil {
		return fmt.Errorf("failed to parse proposal JSON: %w", err)
	}

	profile, err := config.LoadCompanyProfile(sectionsProfile)
	if err != nil {
		return err
	}
	proposal.Sections = sections.NewBuilder(*profile).Build(&proposal)

	if sectionsRender != "" {
		renderer := rendering.NewRenderer(rendering.Options{
			FontPath:  sectionsFont,
			LogoPath:  envOr("PROPOSAL_LOGO", "logo.png"),
			ChartPath: envOr("PROPOSAL_CHART", "chart.png"),
		})
		if err := renderer.RenderToFile(&proposal, sectionsRender); err != nil {
			return err
		}
	}

	if sectionsPretty {
		observability.NewPrinter(cmd.OutOrStdout()).PrintSections(proposal.Sections)
		return nil
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(proposal.Sections)
}
