// Package mapping links each extracted requirement to services from the
// company catalog, with an approach, a compliance score and evidence.
package mapping

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/rs/zerolog"

	"github.com/jonathan/proposal-builder/internal/config"
	"github.com/jonathan/proposal-builder/internal/llm"
	"github.com/jonathan/proposal-builder/internal/parallel"
	"github.com/jonathan/proposal-builder/internal/prompts"
	"github.com/jonathan/proposal-builder/internal/retrieval"
	"github.com/jonathan/proposal-builder/internal/schemas"
	"github.com/jonathan/proposal-builder/internal/types"
)

const (
	// RetrievalK is the number of evidence passages per requirement.
	RetrievalK = 5

	// FallbackApproach is used when a requirement could not be mapped.
	FallbackApproach = "We propose a standard approach using the selected service."
	// FallbackScore is the compliance score of a fallback mapping.
	FallbackScore = 50.0

	requirementChars = 800
	evidenceChars    = 500
)

// Mapper maps requirements to catalog services, one model request per requirement.
type Mapper struct {
	client  llm.Client
	catalog []string
	workers int
	logger  zerolog.Logger
}

// Option configures a Mapper
type Option func(*Mapper)

// WithCatalog replaces the default catalog. An empty catalog is allowed.
func WithCatalog(catalog []string) Option {
	return func(m *Mapper) {
		m.catalog = append([]string(nil), catalog...)
	}
}

// WithWorkers bounds the number of requirements mapped concurrently.
func WithWorkers(n int) Option {
	return func(m *Mapper) {
		m.workers = n
	}
}

// WithLogger sets the logger
func WithLogger(logger zerolog.Logger) Option {
	return func(m *Mapper) {
		m.logger = logger
	}
}

// NewMapper creates a Mapper backed by client.
func NewMapper(client llm.Client, opts ...Option) *Mapper {
	m := &Mapper{
		client:  client,
		catalog: append([]string(nil), config.DefaultCatalog...),
		workers: parallel.DefaultWorkers,
		logger:  zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Catalog returns a copy of the configured catalog.
func (m *Mapper) Catalog() []string {
	return append([]string(nil), m.catalog...)
}

// mapped carries evidence alongside the result so the fallback can use it.
type mapped struct {
	mapping  types.ServiceMapping
	evidence string
}

// Map returns one mapping per requirement, in input order. A failure for one
// requirement yields its fallback mapping and never affects the others.
func (m *Mapper) Map(ctx context.Context, reqs []types.Requirement, provider retrieval.ContextProvider) []types.ServiceMapping {
	results := parallel.MapWithFallback(ctx, reqs, m.workers,
		func(ctx context.Context, req types.Requirement) (mapped, error) {
			evidence, err := m.evidence(ctx, req, provider)
			if err != nil {
				return mapped{}, err
			}
			mapping, err := m.mapOne(ctx, req, evidence)
			if err != nil {
				// Keep the evidence for the fallback excerpt.
				return mapped{}, &evidenceError{evidence: evidence, cause: err}
			}
			return mapped{mapping: *mapping, evidence: evidence}, nil
		},
		func(req types.Requirement, err error) mapped {
			evidence := ""
			var ee *evidenceError
			if errors.As(err, &ee) {
				evidence = ee.evidence
				err = ee.cause
			}
			m.logger.Warn().
				Err(err).
				Str("requirement_id", req.ID).
				Msg("Requirement mapping failed, using fallback mapping")
			return mapped{mapping: m.Fallback(req, evidence)}
		},
	)

	mappings := make([]types.ServiceMapping, len(results))
	for i, r := range results {
		mappings[i] = r.mapping
	}
	return mappings
}

// Fallback builds the default mapping for req: the first catalog service,
// a generic approach, score 50 and the first 500 characters of evidence.
func (m *Mapper) Fallback(req types.Requirement, evidence string) types.ServiceMapping {
	services := []string{}
	if len(m.catalog) > 0 {
		services = []string{m.catalog[0]}
	}
	return types.ServiceMapping{
		RequirementID:   req.ID,
		Services:        services,
		Approach:        FallbackApproach,
		ComplianceScore: FallbackScore,
		Evidence:        llm.Truncate(evidence, evidenceChars),
	}
}

func (m *Mapper) evidence(ctx context.Context, req types.Requirement, provider retrieval.ContextProvider) (string, error) {
	if provider == nil {
		return "", &MappingError{RequirementID: req.ID, Stage: "retrieval", Cause: errors.New("no context provider configured")}
	}
	passages, err := provider.Retrieve(ctx, req.Text, RetrievalK)
	if err != nil {
		return "", &MappingError{RequirementID: req.ID, Stage: "retrieval", Cause: err}
	}
	return retrieval.JoinPassages(passages), nil
}

func (m *Mapper) mapOne(ctx context.Context, req types.Requirement, evidence string) (*types.ServiceMapping, error) {
	if m.client == nil {
		return nil, &MappingError{RequirementID: req.ID, Stage: "request", Cause: errors.New("no LLM client configured")}
	}

	prompt, err := prompts.Render(prompts.ProposalFile, prompts.KeyMapRequirement, map[string]string{
		"Catalog":       strings.Join(m.catalog, ", "),
		"RequirementID": req.ID,
		"Requirement":   llm.Truncate(req.Text, requirementChars),
		"Evidence":      evidence,
	})
	if err != nil {
		return nil, &MappingError{RequirementID: req.ID, Stage: "prompt", Cause: err}
	}

	responseText, err := m.client.GenerateJSON(ctx, prompt, llm.TierStandard)
	if err != nil {
		return nil, &MappingError{RequirementID: req.ID, Stage: "request", Cause: err}
	}

	mapping, err := parseMapping(responseText)
	if err != nil {
		return nil, &MappingError{RequirementID: req.ID, Stage: "parse", Cause: err}
	}
	if mapping.RequirementID == "" {
		mapping.RequirementID = req.ID
	}
	return mapping, nil
}

type rawMapping struct {
	RequirementID   json.RawMessage `json:"requirement_id"`
	Services        []string        `json:"services"`
	Approach        string          `json:"approach"`
	ComplianceScore *float64        `json:"compliance_score"`
	Evidence        string          `json:"evidence"`
}

func parseMapping(responseText string) (*types.ServiceMapping, error) {
	jsonText, err := llm.ExtractJSONObject(responseText)
	if err != nil {
		return nil, err
	}

	var raw rawMapping
	if err := json.Unmarshal([]byte(jsonText), &raw); err != nil {
		return nil, err
	}
	if err := schemas.ValidateResponse(schemas.ServiceMapping, jsonText); err != nil {
		return nil, err
	}

	services := raw.Services
	if services == nil {
		services = []string{}
	}

	score := FallbackScore
	if raw.ComplianceScore != nil {
		score = clampScore(*raw.ComplianceScore)
	}

	return &types.ServiceMapping{
		RequirementID:   idString(raw.RequirementID),
		Services:        services,
		Approach:        strings.TrimSpace(raw.Approach),
		ComplianceScore: score,
		Evidence:        strings.TrimSpace(raw.Evidence),
	}, nil
}

func clampScore(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 100:
		return 100
	default:
		return v
	}
}

func idString(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	return strings.TrimSpace(string(raw))
}

// evidenceError keeps retrieved evidence available to the fallback.
type evidenceError struct {
	evidence string
	cause    error
}

func (e *evidenceError) Error() string { return e.cause.Error() }

func (e *evidenceError) Unwrap() error { return e.cause }
