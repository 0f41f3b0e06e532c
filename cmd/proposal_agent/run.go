package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/jonathan/proposal-builder/internal/config"
	"github.com/jonathan/proposal-builder/internal/observability"
	"github.com/jonathan/proposal-builder/internal/pipeline"
	"github.com/jonathan/proposal-builder/internal/pipeline/steps"
	"github.com/jonathan/proposal-builder/internal/types"
	"github.com/jonathan/proposal-builder/internal/validation"
)

var runCommand = &cobra.Command{
	Use:   "run",
	Short: "Generate a proposal PDF from an RFP end-to-end",
	Long: `Runs the whole pipeline: text extraction -> requirement extraction -> service
mapping and pricing -> validation -> section assembly -> narrative expansion -> PDF rendering.

Configuration can be loaded from a JSON file using --config. Command-line arguments
override config file values, which override environment variables.`,
	RunE: runPipelineCmd,
}

var (
	runConfigPath   string
	runInput        string
	runOutput       string
	runFont         string
	runLogo         string
	runChart        string
	runProfile      string
	runProvider     string
	runModel        string
	runAPIKey       string
	runRate         float64
	runProductivity float64
	runWorkers      int
	runRedisAddr    string
	runDumpJSON     string
	runVerbose      bool
)

func init() {
	runCommand.Flags().StringVar(&runConfigPath, "config", "", "Path to config.json file (values can be overridden by other flags)")

	runCommand.Flags().StringVarP(&runInput, "input", "i", "", "Path to the RFP (PDF or text)")
	runCommand.Flags().StringVarP(&runOutput, "output", "o", "", "Path of the proposal PDF (default proposal_<input>.pdf)")
	runCommand.Flags().StringVar(&runFont, "font", "", "TrueType font for the proposal (defaults to PROPOSAL_FONT or a built-in font)")
	runCommand.Flags().StringVar(&runLogo, "logo", "", "Logo image for the title page")
	runCommand.Flags().StringVar(&runChart, "chart", "", "Chart image for the solution section")
	runCommand.Flags().StringVar(&runProfile, "profile", "", "Company profile YAML")
	runCommand.Flags().StringVar(&runProvider, "provider", "", "LLM provider: gemini or openai")
	runCommand.Flags().StringVar(&runModel, "model", "", "Model name used for every tier")
	runCommand.Flags().StringVar(&runAPIKey, "api-key", "", "API key (defaults to GEMINI_API_KEY or OPENAI_API_KEY)")
	runCommand.Flags().Float64Var(&runRate, "rate", 0, "Hourly rate in dollars")
	runCommand.Flags().Float64Var(&runProductivity, "productivity", 0, "Productivity factor applied to hour estimates")
	runCommand.Flags().IntVar(&runWorkers, "workers", 0, "Concurrent requirement mappings")
	runCommand.Flags().StringVar(&runRedisAddr, "redis-addr", "", "Redis address for the response cache (defaults to REDIS_ADDR)")
	runCommand.Flags().StringVar(&runDumpJSON, "dump-json", "", "Also write the proposal as JSON to this path")
	runCommand.Flags().BoolVarP(&runVerbose, "verbose", "v", false, "Print detailed debug information")

	rootCmd.AddCommand(runCommand)
}

// resolveRunConfig merges flags over the config file over the environment.
func resolveRunConfig(cmd *cobra.Command) (config.Config, error) {
	cfg, err := loadConfigFile(runConfigPath)
	if err != nil {
		return config.Config{}, err
	}

	flags := cmd.Flags()
	for _, o := range []struct {
		flag string
		dst  *string
		val  string
	}{
		{"input", &cfg.Input, runInput},
		{"output", &cfg.Output, runOutput},
		{"font", &cfg.Font, runFont},
		{"logo", &cfg.Logo, runLogo},
		{"chart", &cfg.Chart, runChart},
		{"profile", &cfg.Profile, runProfile},
		{"provider", &cfg.Provider, runProvider},
		{"model", &cfg.Model, runModel},
		{"api-key", &cfg.APIKey, runAPIKey},
		{"redis-addr", &cfg.RedisAddr, runRedisAddr},
	} {
		if flags.Changed(o.flag) {
			*o.dst = o.val
		}
	}
	if flags.Changed("rate") {
		cfg.RatePerHour = runRate
	}
	if flags.Changed("productivity") {
		cfg.ProductivityFactor = runProductivity
	}
	if flags.Changed("workers") {
		cfg.Workers = runWorkers
	}
	if flags.Changed("verbose") {
		cfg.Verbose = runVerbose
	}

	cfg = cfg.MergeWithDefaults(envDefaults())

	if cfg.Input == "" {
		return config.Config{}, fmt.Errorf("--input is required (or set \"input\" in --config)")
	}
	if cfg.Output == "" {
		cfg.Output = defaultOutputPath(cfg.Input)
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

func runPipelineCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := resolveRunConfig(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := newLogger(cfg.Verbose)
	client, err := newLLMClient(ctx, cfg, logger)
	if err != nil {
		return err
	}
	if client != nil {
		defer client.Close() //nolint:errcheck
	}

	orchestrator, err := newOrchestrator(cfg, client, logger)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	bar := newStepBar(cmd.ErrOrStderr())
	proposal, runErr := orchestrator.RunAndExport(ctx, cfg.Input, cfg.Output,
		pipeline.WithProgress(bar.onProgress),
	)
	_ = bar.bar.Finish()

	if proposal != nil && runDumpJSON != "" {
		if err := writeProposalJSON(proposal, runDumpJSON); err != nil {
			return err
		}
	}
	if runErr != nil {
		return runErr
	}

	printer := observability.NewPrinter(out)
	if err := validation.CheckStructure(proposal); err != nil {
		printer.Warning("Proposal structure: %v", err)
	}
	if cfg.Verbose {
		printRunDetails(printer, proposal)
	}
	if pages, err := validation.CountPDFPages(cfg.Output); err == nil {
		printer.Success("Proposal for %s written to %s (%d pages)", proposal.Client, cfg.Output, pages)
	} else {
		printer.Success("Proposal for %s written to %s", proposal.Client, cfg.Output)
	}
	if n := len(proposal.ValidationIssues); n > 0 {
		printer.Warning("%d validation issues, see --verbose", n)
	}
	return nil
}

// stepBar advances a progress bar as pipeline steps report in.
type stepBar struct {
	bar *progressbar.ProgressBar
	pos int
}

func newStepBar(w io.Writer) *stepBar {
	return &stepBar{bar: progressbar.NewOptions(len(steps.Order()),
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetWidth(30),
		progressbar.OptionSetDescription("Starting"),
		progressbar.OptionShowCount(),
		progressbar.OptionSetRenderBlankState(true),
		progressbar.OptionOnCompletion(func() { _, _ = fmt.Fprintln(w) }),
	)}
}

func (s *stepBar) onProgress(event pipeline.ProgressEvent) {
	if pos, _ := steps.Position(event.Step); pos > s.pos {
		s.pos = pos
		_ = s.bar.Set(pos)
	}
	s.bar.Describe(event.Message)
}

// printRunDetails prints the intermediate results of a run.
func printRunDetails(printer *observability.Printer, p *types.Proposal) {
	printer.PrintSummary(&types.StructuredSummary{
		Client:       p.Client,
		Summary:      p.Summary,
		Requirements: p.Requirements,
	})
	printer.PrintMappings(p.TechnicalMapping)
	printer.PrintPricing(p.Pricing)
	printer.PrintIssues(p.ValidationIssues)
	printer.PrintSections(p.Sections)
}

// writeProposalJSON writes p as indented JSON.
func writeProposalJSON(p *types.Proposal, path string) error {
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal proposal: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
