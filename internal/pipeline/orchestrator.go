// Package pipeline provides the high-level orchestration for turning an RFP
// into a proposal: extraction, mapping and pricing, validation, section
// assembly and narrative expansion.
package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/jonathan/proposal-builder/internal/config"
	"github.com/jonathan/proposal-builder/internal/ingestion"
	"github.com/jonathan/proposal-builder/internal/llm"
	"github.com/jonathan/proposal-builder/internal/mapping"
	"github.com/jonathan/proposal-builder/internal/narrative"
	"github.com/jonathan/proposal-builder/internal/parsing"
	"github.com/jonathan/proposal-builder/internal/pipeline/steps"
	"github.com/jonathan/proposal-builder/internal/pricing"
	"github.com/jonathan/proposal-builder/internal/retrieval"
	"github.com/jonathan/proposal-builder/internal/sections"
	"github.com/jonathan/proposal-builder/internal/types"
	"github.com/jonathan/proposal-builder/internal/validation"
)

// UnknownClient names the client when extraction found none.
const UnknownClient = "Unknown Client"

// DocumentRenderer writes a finished proposal to disk.
type DocumentRenderer interface {
	RenderToFile(p *types.Proposal, path string) error
}

// Options holds the collaborators of an Orchestrator. Zero values select
// defaults: the built-in company profile, the default estimator, a
// FileSource and the default chunker.
type Options struct {
	Client    llm.Client
	Profile   *config.CompanyProfile
	Estimator *pricing.Estimator
	Workers   int
	Source    ingestion.TextSource
	Splitter  *retrieval.Splitter
	Renderer  DocumentRenderer
	Logger    *zerolog.Logger
}

// Orchestrator runs every stage of proposal generation. A run always
// produces a proposal; stage failures are replaced by fallbacks.
type Orchestrator struct {
	extractor *parsing.Extractor
	mapper    *mapping.Mapper
	estimator *pricing.Estimator
	builder   *sections.Builder
	expander  *narrative.Expander
	source    ingestion.TextSource
	splitter  *retrieval.Splitter
	renderer  DocumentRenderer
	logger    zerolog.Logger
}

// New creates an Orchestrator from opts.
func New(opts Options) *Orchestrator {
	logger := zerolog.Nop()
	if opts.Logger != nil {
		logger = *opts.Logger
	}

	profile := config.DefaultCompanyProfile()
	if opts.Profile != nil {
		profile = *opts.Profile
	}

	estimator := opts.Estimator
	if estimator == nil {
		estimator = pricing.NewEstimator()
	}

	source := opts.Source
	if source == nil {
		source = ingestion.NewFileSource(logger)
	}

	splitter := opts.Splitter
	if splitter == nil {
		splitter = retrieval.NewSplitter()
	}

	mapperOpts := []mapping.Option{mapping.WithWorkers(opts.Workers), mapping.WithLogger(logger)}
	if profile.Catalog != nil {
		mapperOpts = append(mapperOpts, mapping.WithCatalog(profile.Catalog))
	}

	return &Orchestrator{
		extractor: parsing.NewExtractor(opts.Client, parsing.WithLogger(logger)),
		mapper:    mapping.NewMapper(opts.Client, mapperOpts...),
		estimator: estimator,
		builder:   sections.NewBuilder(profile),
		expander:  narrative.NewExpander(opts.Client, logger),
		source:    source,
		splitter:  splitter,
		renderer:  opts.Renderer,
		logger:    logger,
	}
}

// Run builds a proposal from raw RFP text. provider supplies the passages
// that ground extraction and mapping; a nil provider makes both fall back.
// Run never fails.
func (o *Orchestrator) Run(ctx context.Context, rawText string, provider retrieval.ContextProvider, opts ...RunOption) *types.Proposal {
	rc := newRunConfig(opts)
	log := o.logger.With().Str("run_id", rc.runID).Logger()

	rc.emitProgress(steps.StepExtract, "[1/4] Extracting and summarizing the RFP...", nil)
	summary := o.extractor.Extract(ctx, rawText, provider)
	reqs := summary.Requirements
	rc.emitProgress(steps.StepExtract,
		fmt.Sprintf("Extracted %d requirements", len(reqs)), summary)

	var (
		mappings []types.ServiceMapping
		report   *types.PricingReport
	)

	rc.emitProgress(steps.StepMap, "[2/4] Mapping requirements to services...", nil)
	rc.emitProgress(steps.StepEstimate, "[3/4] Estimating costs...", nil)

	// Neither stage returns an error; the group only joins them.
	var g errgroup.Group
	g.Go(func() error {
		mappings = o.mapper.Map(ctx, reqs, provider)
		return nil
	})
	g.Go(func() error {
		report = o.estimator.Estimate(reqs)
		return nil
	})
	_ = g.Wait()
	rc.emitProgress(steps.StepMap, fmt.Sprintf("Mapped %d requirements", len(mappings)), mappings)
	rc.emitProgress(steps.StepEstimate,
		fmt.Sprintf("Estimated %d hours, baseline %s", report.TotalHoursOrZero(), types.FormatCurrency(report.Baseline())), report)

	client := strings.TrimSpace(summary.Client)
	if client == "" {
		client = UnknownClient
	}

	proposal := &types.Proposal{
		Client:           client,
		Summary:          summary.Summary,
		Requirements:     reqs,
		TechnicalMapping: mappings,
		Pricing:          report,
		SourceName:       rc.sourceName,
	}

	proposal.ValidationIssues = validation.Validate(proposal)
	if err := validation.CheckStructure(proposal); err != nil {
		log.Warn().Err(err).Msg("Proposal failed structural checks")
	}
	for _, issue := range proposal.ValidationIssues {
		log.Warn().Str("issue", issue).Msg("Validation issue")
	}
	rc.emitProgress(steps.StepValidate,
		fmt.Sprintf("Validation found %d issues", len(proposal.ValidationIssues)), proposal.ValidationIssues)

	seeds := o.builder.Build(proposal)
	rc.emitProgress(steps.StepBuildSections, fmt.Sprintf("Built %d sections", len(seeds)), nil)

	proposal.Sections = o.expander.ExpandAll(ctx, seeds, func(i int, s types.Section) {
		rc.emitProgress(steps.StepExpandSections,
			fmt.Sprintf("Expanded section %d/%d: %s", i+1, len(seeds), s.Title), nil)
	})

	log.Info().
		Str("client", proposal.Client).
		Int("requirements", len(reqs)).
		Int("sections", len(proposal.Sections)).
		Int("issues", len(proposal.ValidationIssues)).
		Msg("Proposal assembled")

	return proposal
}

// RunFromPDF extracts the text of the document at path, indexes it for
// retrieval and runs the pipeline. Only an unreadable document fails.
func (o *Orchestrator) RunFromPDF(ctx context.Context, path string, opts ...RunOption) (*types.Proposal, error) {
	rc := newRunConfig(opts)
	rc.emitProgress(steps.StepIngest, "Reading "+filepath.Base(path), nil)

	text, meta, err := o.source.ExtractText(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("reading RFP failed: %w", err)
	}
	if meta != nil && meta.Incomplete() {
		o.logger.Warn().
			Str("run_id", rc.runID).
			Ints("empty_pages", meta.EmptyPages).
			Ints("error_pages", meta.ErrorPages).
			Msg("Some RFP pages had no extractable text")
	}

	index := retrieval.BuildIndex(text, o.splitter)
	rc.emitProgress(steps.StepIngest, fmt.Sprintf("Indexed %d passages", index.Len()), meta)

	opts = append([]RunOption{WithSourceName(path)}, opts...)
	return o.Run(ctx, text, index, opts...), nil
}

// RunAndExport runs the pipeline on the document at pdfPath and renders the
// proposal to outputPath. The proposal is returned even when rendering fails.
func (o *Orchestrator) RunAndExport(ctx context.Context, pdfPath, outputPath string, opts ...RunOption) (*types.Proposal, error) {
	if o.renderer == nil {
		return nil, fmt.Errorf("no document renderer configured")
	}

	proposal, err := o.RunFromPDF(ctx, pdfPath, opts...)
	if err != nil {
		return nil, err
	}

	rc := newRunConfig(opts)
	rc.emitProgress(steps.StepRender, "[4/4] Creating proposal PDF...", nil)
	if err := o.renderer.RenderToFile(proposal, outputPath); err != nil {
		return proposal, fmt.Errorf("rendering proposal failed: %w", err)
	}
	rc.emitProgress(steps.StepRender, "Wrote "+filepath.Base(outputPath), nil)

	return proposal, nil
}
