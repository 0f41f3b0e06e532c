package pipeline

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/proposal-builder/internal/config"
	"github.com/jonathan/proposal-builder/internal/ingestion"
	"github.com/jonathan/proposal-builder/internal/llm"
	"github.com/jonathan/proposal-builder/internal/pipeline/steps"
	"github.com/jonathan/proposal-builder/internal/pricing"
	"github.com/jonathan/proposal-builder/internal/retrieval"
	"github.com/jonathan/proposal-builder/internal/sections"
	"github.com/jonathan/proposal-builder/internal/types"
	"github.com/jonathan/proposal-builder/internal/validation"
)

// MockLLMClient implements llm.Client for testing
type MockLLMClient struct {
	GenerateContentFunc func(ctx context.Context, prompt string, tier llm.ModelTier) (string, error)
	GenerateJSONFunc    func(ctx context.Context, prompt string, tier llm.ModelTier) (string, error)
}

func (m *MockLLMClient) GenerateContent(ctx context.Context, prompt string, tier llm.ModelTier) (string, error) {
	if m.GenerateContentFunc != nil {
		return m.GenerateContentFunc(ctx, prompt, tier)
	}
	return "", nil
}

func (m *MockLLMClient) GenerateJSON(ctx context.Context, prompt string, tier llm.ModelTier) (string, error) {
	if m.GenerateJSONFunc != nil {
		return m.GenerateJSONFunc(ctx, prompt, tier)
	}
	return "{}", nil
}

func (m *MockLLMClient) GetModel(_ llm.ModelTier) string {
	return "mock-model"
}

func (m *MockLLMClient) Close() error {
	return nil
}

const extractionResponse = `{
	"client": "City of Springfield",
	"submission_deadline": "2025-06-30",
	"summary": "Springfield seeks a partner to modernize its IT estate.",
	"requirements": [
		{"id": "R1", "text": "Migrate the ERP system to the cloud"},
		{"id": "R2", "text": "Provide 24/7 managed security monitoring"}
	]
}`

func workingClient() *MockLLMClient {
	return &MockLLMClient{
		GenerateJSONFunc: func(_ context.Context, prompt string, _ llm.ModelTier) (string, error) {
			if strings.Contains(prompt, "extracts structured fields") {
				return extractionResponse, nil
			}
			id := "R1"
			if strings.Contains(prompt, "Requirement ID: R2") {
				id = "R2"
			}
			return `{"requirement_id":"` + id + `","services":["Cloud Migration"],"approach":"Phased.","compliance_score":90,"evidence":"ERP"}`, nil
		},
		GenerateContentFunc: func(_ context.Context, prompt string, _ llm.ModelTier) (string, error) {
			return "  Polished prose.  ", nil
		},
	}
}

func failingClient() *MockLLMClient {
	fail := func(context.Context, string, llm.ModelTier) (string, error) {
		return "", errors.New("service unavailable")
	}
	return &MockLLMClient{GenerateJSONFunc: fail, GenerateContentFunc: fail}
}

func staticProvider() retrieval.ProviderFunc {
	return func(context.Context, string, int) ([]string, error) {
		return []string{"The city runs an on-premises ERP."}, nil
	}
}

func TestRun_HappyPath(t *testing.T) {
	o := New(Options{Client: workingClient()})

	p := o.Run(context.Background(), "raw rfp text", staticProvider())

	require.NotNil(t, p)
	assert.Equal(t, "City of Springfield", p.Client)
	assert.Equal(t, "Springfield seeks a partner to modernize its IT estate.", p.Summary)
	require.Len(t, p.Requirements, 2)
	require.Len(t, p.TechnicalMapping, 2)
	assert.Equal(t, "R1", p.TechnicalMapping[0].RequirementID)
	assert.Equal(t, "R2", p.TechnicalMapping[1].RequirementID)
	require.NotNil(t, p.Pricing)
	assert.Len(t, p.Pricing.LineItems, 2)
	assert.Empty(t, p.ValidationIssues)

	require.Len(t, p.Sections, 7)
	assert.Equal(t, sections.TitleExecutiveSummary, p.Sections[0].Title)
	assert.Equal(t, sections.TitleTerms, p.Sections[6].Title)
	for _, s := range p.Sections {
		assert.Equal(t, "Polished prose.", s.Content)
	}
}

func TestRun_AllModelCallsFail(t *testing.T) {
	rawText := "Line one of the RFP\nLine two of the RFP"
	o := New(Options{Client: failingClient()})

	p := o.Run(context.Background(), rawText, staticProvider())

	require.NotNil(t, p)
	assert.Equal(t, UnknownClient, p.Client)
	assert.Equal(t, "Line one of the RFP Line two of the RFP", p.Summary)
	require.Len(t, p.Requirements, 1)
	assert.Equal(t, "REQ-1", p.Requirements[0].ID)

	require.Len(t, p.TechnicalMapping, 1)
	assert.Equal(t, "REQ-1", p.TechnicalMapping[0].RequirementID)
	assert.Equal(t, 50.0, p.TechnicalMapping[0].ComplianceScore)

	require.NotNil(t, p.Pricing)
	assert.Len(t, p.Pricing.LineItems, 1)
	assert.Empty(t, p.ValidationIssues)

	seeds := sections.NewBuilder(config.DefaultCompanyProfile()).Build(p)
	assert.Equal(t, seeds, p.Sections, "failed expansion keeps seed content")
}

func TestRun_NilClientAndProvider(t *testing.T) {
	p := New(Options{}).Run(context.Background(), "some text", nil)

	require.NotNil(t, p)
	assert.Equal(t, "REQ-1", p.Requirements[0].ID)
	assert.Len(t, p.TechnicalMapping, 1)
	assert.Len(t, p.Sections, 7)
}

func TestRun_EmptyRequirementsReportsIssues(t *testing.T) {
	client := workingClient()
	client.GenerateJSONFunc = func(context.Context, string, llm.ModelTier) (string, error) {
		return `{"client":"Acme","submission_deadline":"","summary":"","requirements":[]}`, nil
	}

	p := New(Options{Client: client}).Run(context.Background(), "text", staticProvider())

	assert.Equal(t, "Acme", p.Client)
	assert.Empty(t, p.Requirements)
	assert.Equal(t, []string{
		validation.IssueNoRequirements,
		validation.IssueNoMapping,
		validation.IssueNoPricing,
	}, p.ValidationIssues)
	assert.Len(t, p.Sections, 7, "a proposal is still produced")
}

func TestRun_CustomEstimatorAndProfile(t *testing.T) {
	profile := config.DefaultCompanyProfile()
	profile.Catalog = []string{"Only Service"}

	o := New(Options{
		Client:    failingClient(),
		Profile:   &profile,
		Estimator: &pricing.Estimator{RatePerHour: 100, ProductivityFactor: 1},
	})
	p := o.Run(context.Background(), "short", staticProvider())

	assert.Equal(t, []string{"Only Service"}, p.TechnicalMapping[0].Services)
	assert.Equal(t, 100.0, p.Pricing.RatePerHour)
}

func TestRun_ProgressEvents(t *testing.T) {
	var (
		mu     sync.Mutex
		events []ProgressEvent
	)
	record := func(e ProgressEvent) {
		mu.Lock()
		defer mu.Unlock()
		events = append(events, e)
	}

	New(Options{Client: workingClient()}).Run(context.Background(), "text", staticProvider(),
		WithProgress(record), WithRunID("run-42"))

	require.NotEmpty(t, events)
	assert.Equal(t, steps.StepExtract, events[0].Step)
	assert.True(t, strings.HasPrefix(events[0].Message, "[1/4]"))

	seen := map[string]bool{}
	for _, e := range events {
		assert.Equal(t, "run-42", e.RunID)
		assert.Equal(t, steps.CategoryOf(e.Step), e.Category)
		seen[e.Step] = true
	}
	for _, step := range []string{steps.StepExtract, steps.StepMap, steps.StepEstimate,
		steps.StepValidate, steps.StepBuildSections, steps.StepExpandSections} {
		assert.True(t, seen[step], "missing progress for %s", step)
	}

	last := events[len(events)-1]
	assert.Equal(t, steps.StepExpandSections, last.Step)
	assert.Equal(t, "Expanded section 7/7: "+sections.TitleTerms, last.Message)
}

type fakeSource struct {
	text string
	err  error
	path string
}

func (f *fakeSource) ExtractText(_ context.Context, path string) (string, *ingestion.Metadata, error) {
	f.path = path
	if f.err != nil {
		return "", nil, f.err
	}
	return f.text, ingestion.NewMetadata(f.text, path), nil
}

type fakeRenderer struct {
	err      error
	rendered *types.Proposal
	path     string
}

func (f *fakeRenderer) RenderToFile(p *types.Proposal, path string) error {
	f.rendered, f.path = p, path
	return f.err
}

func TestRunFromPDF(t *testing.T) {
	source := &fakeSource{text: "The city runs an on-premises ERP.\n\nSecurity monitoring is required."}
	o := New(Options{Client: workingClient(), Source: source})

	p, err := o.RunFromPDF(context.Background(), "/uploads/springfield.pdf")

	require.NoError(t, err)
	assert.Equal(t, "/uploads/springfield.pdf", source.path)
	assert.Equal(t, "/uploads/springfield.pdf", p.SourceName)
	assert.Equal(t, "City of Springfield", p.Client)
}

func TestRunFromPDF_SourceError(t *testing.T) {
	o := New(Options{Source: &fakeSource{err: &ingestion.ExtractionError{Path: "x.pdf", Message: "file not found"}}})

	p, err := o.RunFromPDF(context.Background(), "x.pdf")

	assert.Nil(t, p)
	var extractErr *ingestion.ExtractionError
	assert.ErrorAs(t, err, &extractErr)
}

func TestRunAndExport(t *testing.T) {
	renderer := &fakeRenderer{}
	var messages []string
	o := New(Options{Client: workingClient(), Source: &fakeSource{text: "rfp"}, Renderer: renderer})

	p, err := o.RunAndExport(context.Background(), "rfp.pdf", "out/proposal_rfp.pdf",
		WithProgress(func(e ProgressEvent) { messages = append(messages, e.Message) }))

	require.NoError(t, err)
	assert.Same(t, p, renderer.rendered)
	assert.Equal(t, "out/proposal_rfp.pdf", renderer.path)
	assert.Contains(t, messages, "[4/4] Creating proposal PDF...")
}

func TestRunAndExport_Errors(t *testing.T) {
	_, err := New(Options{Source: &fakeSource{text: "rfp"}}).RunAndExport(context.Background(), "rfp.pdf", "out.pdf")
	assert.Error(t, err, "no renderer")

	renderErr := errors.New("font missing")
	o := New(Options{Source: &fakeSource{text: "rfp"}, Renderer: &fakeRenderer{err: renderErr}})
	p, err := o.RunAndExport(context.Background(), "rfp.pdf", "out.pdf")
	assert.NotNil(t, p)
	assert.ErrorIs(t, err, renderErr)
}
