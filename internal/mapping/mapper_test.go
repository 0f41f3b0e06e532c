package mapping

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/proposal-builder/internal/llm"
	"github.com/jonathan/proposal-builder/internal/retrieval"
	"github.com/jonathan/proposal-builder/internal/types"
)

// MockLLMClient implements llm.Client for testing
type MockLLMClient struct {
	GenerateJSONFunc func(ctx context.Context, prompt string, tier llm.ModelTier) (string, error)

	mu      sync.Mutex
	prompts []string
}

func (m *MockLLMClient) GenerateContent(_ context.Context, _ string, _ llm.ModelTier) (string, error) {
	return "", nil
}

func (m *MockLLMClient) GenerateJSON(ctx context.Context, prompt string, tier llm.ModelTier) (string, error) {
	m.mu.Lock()
	m.prompts = append(m.prompts, prompt)
	m.mu.Unlock()
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

func evidenceProvider() retrieval.ProviderFunc {
	return func(_ context.Context, query string, k int) ([]string, error) {
		return []string{"evidence for " + query, fmt.Sprintf("k=%d", k)}, nil
	}
}

func requirements(n int) []types.Requirement {
	reqs := make([]types.Requirement, n)
	for i := range reqs {
		reqs[i] = types.Requirement{ID: fmt.Sprintf("R%d", i+1), Text: fmt.Sprintf("requirement %d", i+1)}
	}
	return reqs
}

func TestMap_ParsesResponses(t *testing.T) {
	client := &MockLLMClient{
		GenerateJSONFunc: func(_ context.Context, prompt string, _ llm.ModelTier) (string, error) {
			if strings.Contains(prompt, "Requirement ID: R1") {
				return `{"requirement_id":"R1","services":["Cloud Migration","Managed Services"],` +
					`"approach":"Lift and shift.","compliance_score":85,"evidence":"ERP on-prem"}`, nil
			}
			return `{"services":["Data Engineering"],"approach":"Pipelines.","compliance_score":70}`, nil
		},
	}

	mappings := NewMapper(client).Map(context.Background(), requirements(2), evidenceProvider())

	require.Len(t, mappings, 2)
	assert.Equal(t, "R1", mappings[0].RequirementID)
	assert.Equal(t, []string{"Cloud Migration", "Managed Services"}, mappings[0].Services)
	assert.Equal(t, 85.0, mappings[0].ComplianceScore)
	assert.Equal(t, "ERP on-prem", mappings[0].Evidence)

	assert.Equal(t, "R2", mappings[1].RequirementID, "missing id stamped from requirement")
	assert.Equal(t, []string{"Data Engineering"}, mappings[1].Services)
}

func TestMap_PromptContents(t *testing.T) {
	client := &MockLLMClient{}
	longText := strings.Repeat("x", 1000)

	NewMapper(client, WithCatalog([]string{"A", "B"})).
		Map(context.Background(), []types.Requirement{{ID: "R9", Text: longText}}, evidenceProvider())

	require.Len(t, client.prompts, 1)
	prompt := client.prompts[0]
	assert.Contains(t, prompt, "Catalog: A, B")
	assert.Contains(t, prompt, "Requirement ID: R9")
	assert.Contains(t, prompt, "'"+strings.Repeat("x", 800)+"'")
	assert.NotContains(t, prompt, strings.Repeat("x", 801))
	assert.Contains(t, prompt, "k=5")
}

func TestMap_FallbackPerRequirement(t *testing.T) {
	client := &MockLLMClient{
		GenerateJSONFunc: func(_ context.Context, prompt string, _ llm.ModelTier) (string, error) {
			switch {
			case strings.Contains(prompt, "Requirement ID: R2"):
				return "", errors.New("rate limited")
			case strings.Contains(prompt, "Requirement ID: R3"):
				return "not json at all", nil
			default:
				return `{"services":["Managed Services"],"approach":"Run it.","compliance_score":90}`, nil
			}
		},
	}

	mappings := NewMapper(client).Map(context.Background(), requirements(4), evidenceProvider())

	require.Len(t, mappings, 4)
	for i, m := range mappings {
		assert.Equal(t, fmt.Sprintf("R%d", i+1), m.RequirementID)
	}

	assert.Equal(t, "Run it.", mappings[0].Approach)
	assert.Equal(t, "Run it.", mappings[3].Approach)

	for _, m := range mappings[1:3] {
		assert.Equal(t, []string{"Cloud Migration"}, m.Services)
		assert.Equal(t, FallbackApproach, m.Approach)
		assert.Equal(t, FallbackScore, m.ComplianceScore)
		assert.True(t, strings.HasPrefix(m.Evidence, "evidence for requirement"))
	}
}

func TestMap_RetrievalFailureFallsBackWithoutEvidence(t *testing.T) {
	provider := retrieval.ProviderFunc(func(_ context.Context, _ string, _ int) ([]string, error) {
		return nil, errors.New("index gone")
	})

	mappings := NewMapper(&MockLLMClient{}).Map(context.Background(), requirements(1), provider)

	require.Len(t, mappings, 1)
	assert.Equal(t, FallbackApproach, mappings[0].Approach)
	assert.Empty(t, mappings[0].Evidence)
}

func TestMap_EmptyCatalogFallback(t *testing.T) {
	client := &MockLLMClient{
		GenerateJSONFunc: func(_ context.Context, _ string, _ llm.ModelTier) (string, error) {
			return "", errors.New("down")
		},
	}

	mappings := NewMapper(client, WithCatalog(nil)).Map(context.Background(), requirements(1), evidenceProvider())

	require.Len(t, mappings, 1)
	assert.NotNil(t, mappings[0].Services)
	assert.Empty(t, mappings[0].Services)
}

func TestMap_BoundedConcurrency(t *testing.T) {
	var inFlight, peak int32
	client := &MockLLMClient{
		GenerateJSONFunc: func(_ context.Context, _ string, _ llm.ModelTier) (string, error) {
			n := atomic.AddInt32(&inFlight, 1)
			for {
				p := atomic.LoadInt32(&peak)
				if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			atomic.AddInt32(&inFlight, -1)
			return `{"services":[]}`, nil
		},
	}

	mappings := NewMapper(client, WithWorkers(2)).Map(context.Background(), requirements(10), evidenceProvider())

	assert.Len(t, mappings, 10)
	assert.LessOrEqual(t, atomic.LoadInt32(&peak), int32(2))
}

func TestMap_Empty(t *testing.T) {
	mappings := NewMapper(&MockLLMClient{}).Map(context.Background(), nil, evidenceProvider())
	assert.Empty(t, mappings)
}

func TestParseMapping(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantErr   bool
		wantID    string
		wantScore float64
	}{
		{name: "numeric id", input: `{"requirement_id": 3, "services": [], "compliance_score": 40}`, wantID: "3", wantScore: 40},
		{name: "score clamped high", input: `{"compliance_score": 140}`, wantScore: 100},
		{name: "score clamped low", input: `{"compliance_score": -3}`, wantScore: 0},
		{name: "missing score", input: `{"services": ["A"]}`, wantScore: FallbackScore},
		{name: "services wrong type", input: `{"services": "A"}`, wantErr: true},
		{name: "no object", input: `[]`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseMapping(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantID, got.RequirementID)
			assert.Equal(t, tt.wantScore, got.ComplianceScore)
			assert.NotNil(t, got.Services)
		})
	}
}

func TestMappingError(t *testing.T) {
	cause := errors.New("boom")
	err := &MappingError{RequirementID: "R1", Stage: "parse", Cause: cause}

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "mapping requirement R1 failed at parse: boom", err.Error())
}
