// Package parsing extracts the structure of an RFP (client, deadline,
// summary and requirements) from raw text with one model request.
package parsing

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/rs/zerolog"

	"github.com/jonathan/proposal-builder/internal/llm"
	"github.com/jonathan/proposal-builder/internal/prompts"
	"github.com/jonathan/proposal-builder/internal/retrieval"
	"github.com/jonathan/proposal-builder/internal/schemas"
	"github.com/jonathan/proposal-builder/internal/types"
)

const (
	// RetrievalQuery grounds the extraction request.
	RetrievalQuery = "Extract RFP structure"
	// RetrievalK is the number of passages retrieved for extraction.
	RetrievalK = 4

	fallbackSummaryChars     = 400
	fallbackRequirementChars = 300
)

// Extractor turns raw RFP text into a StructuredSummary.
type Extractor struct {
	client llm.Client
	logger zerolog.Logger
}

// Option configures an Extractor
type Option func(*Extractor)

// WithLogger sets the logger used to report fallbacks
func WithLogger(logger zerolog.Logger) Option {
	return func(e *Extractor) {
		e.logger = logger
	}
}

// NewExtractor creates an Extractor backed by client.
func NewExtractor(client llm.Client, opts ...Option) *Extractor {
	e := &Extractor{client: client, logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract never fails: any retrieval, request or parse error yields
// FallbackSummary(rawText, err) with Degraded set.
func (e *Extractor) Extract(ctx context.Context, rawText string, provider retrieval.ContextProvider) *types.StructuredSummary {
	summary, err := e.extract(ctx, provider)
	if err != nil {
		e.logger.Warn().Err(err).Msg("Requirement extraction failed, using fallback summary")
		return FallbackSummary(rawText, err)
	}

	e.logger.Debug().
		Str("client", summary.Client).
		Int("requirements", len(summary.Requirements)).
		Msg("Extracted RFP structure")
	return summary
}

func (e *Extractor) extract(ctx context.Context, provider retrieval.ContextProvider) (*types.StructuredSummary, error) {
	if e.client == nil {
		return nil, requestError("no LLM client configured", nil)
	}
	if provider == nil {
		return nil, requestError("no context provider configured", nil)
	}

	passages, err := provider.Retrieve(ctx, RetrievalQuery, RetrievalK)
	if err != nil {
		return nil, requestError("failed to retrieve context", err)
	}

	prompt, err := prompts.Render(prompts.ProposalFile, prompts.KeyExtractRFP, map[string]string{
		"Context": retrieval.JoinPassages(passages),
	})
	if err != nil {
		return nil, requestError("failed to build prompt", err)
	}

	responseText, err := e.client.GenerateJSON(ctx, prompt, llm.TierStandard)
	if err != nil {
		return nil, requestError("failed to generate content from LLM", err)
	}

	return parseSummary(responseText)
}

// rawSummary mirrors the model response before normalization.
type rawSummary struct {
	Client             *string          `json:"client"`
	SubmissionDeadline *string          `json:"submission_deadline"`
	Summary            *string          `json:"summary"`
	Requirements       []rawRequirement `json:"requirements"`
}

// parseSummary parses a model response from its first '{' to the end,
// checks it against the RFP summary schema and normalizes requirement ids.
func parseSummary(responseText string) (*types.StructuredSummary, error) {
	jsonText, err := llm.ExtractJSONObject(responseText)
	if err != nil {
		return nil, responseError("no JSON object in response", err)
	}

	var raw rawSummary
	if err := json.Unmarshal([]byte(jsonText), &raw); err != nil {
		return nil, responseError("failed to parse JSON response", err)
	}

	if err := schemas.ValidateResponse(schemas.RFPSummary, jsonText); err != nil {
		return nil, responseError("response does not match RFP summary schema", err)
	}

	return &types.StructuredSummary{
		Client:             strings.TrimSpace(deref(raw.Client)),
		SubmissionDeadline: strings.TrimSpace(deref(raw.SubmissionDeadline)),
		Summary:            strings.TrimSpace(deref(raw.Summary)),
		Requirements:       NormalizeRequirements(raw.Requirements),
	}, nil
}

// FallbackSummary builds the degraded summary used when extraction fails:
// the first 400 characters of the text with newlines flattened, and one
// requirement REQ-1 holding the first 300 characters.
func FallbackSummary(rawText string, cause error) *types.StructuredSummary {
	message := "extraction failed"
	if cause != nil {
		message = cause.Error()
	}

	return &types.StructuredSummary{
		Summary: strings.ReplaceAll(llm.Truncate(rawText, fallbackSummaryChars), "\n", " "),
		Requirements: []types.Requirement{
			{ID: "REQ-1", Text: llm.Truncate(rawText, fallbackRequirementChars)},
		},
		Degraded: true,
		Error:    message,
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
