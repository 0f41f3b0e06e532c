package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/proposal-builder/internal/config"
	"github.com/jonathan/proposal-builder/internal/llm"
	"github.com/jonathan/proposal-builder/internal/pipeline"
	"github.com/jonathan/proposal-builder/internal/sections"
	"github.com/jonathan/proposal-builder/internal/server"
	"github.com/jonathan/proposal-builder/internal/types"
)

// execute runs the root command with args and returns stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})
	err := rootCmd.Execute()
	return out.String(), err
}

// clearModelEnv makes sure no real provider is reachable from a test.
func clearModelEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"GEMINI_API_KEY", "OPENAI_API_KEY", "LLM_PROVIDER", "LLM_MODEL", "REDIS_ADDR", "COMPANY_PROFILE", "PROPOSAL_FONT"} {
		t.Setenv(key, "")
	}
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadRequirements(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		content string
		wantIDs []string
		wantErr bool
	}{
		{name: "array", content: `[{"id":"R1","text":"a"},{"id":"R2","text":"b"}]`, wantIDs: []string{"R1", "R2"}},
		{name: "wrapped", content: "  \n{\"client\":\"Acme\",\"requirements\":[{\"id\":\"R9\",\"text\":\"c\"}]}", wantIDs: []string{"R9"}},
		{name: "empty object", content: `{}`, wantIDs: nil},
		{name: "invalid", content: `[{"id":`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, dir, strings.ReplaceAll(tt.name, " ", "_")+".json", tt.content)
			reqs, err := loadRequirements(path)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			var ids []string
			for _, r := range reqs {
				ids = append(ids, r.ID)
			}
			assert.Equal(t, tt.wantIDs, ids)
		})
	}

	_, err := loadRequirements(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)
}

func TestEstimateCommand(t *testing.T) {
	path := writeFile(t, t.TempDir(), "reqs.json", `[{"id":"R1","text":"Migrate the ERP"},{"id":"R2","text":"Run the help desk"}]`)

	out, err := execute(t, "estimate", "--requirements", path, "--rate", "100", "--productivity", "1", "--pretty=false")
	require.NoError(t, err)

	var report types.PricingReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	require.Len(t, report.LineItems, 2)
	assert.Equal(t, 40, report.LineItems[0].Hours)
	assert.Equal(t, 4000.0, report.LineItems[0].Cost)
	assert.Equal(t, 80, report.TotalHours)
	assert.Equal(t, 8000.0, report.Scenarios.Baseline)
	assert.Equal(t, 100.0, report.RatePerHour)
}

func TestSectionsCommand(t *testing.T) {
	clearModelEnv(t)
	proposal := types.Proposal{
		Client:       "Acme Corp",
		Summary:      "Acme needs a managed services partner.",
		Requirements: []types.Requirement{{ID: "R1", Text: "24x7 help desk"}},
		TechnicalMapping: []types.ServiceMapping{
			{RequirementID: "R1", Services: []string{"Managed Services"}, Approach: "Staffed NOC.", ComplianceScore: 90},
		},
		Pricing: &types.PricingReport{TotalHours: 40, Scenarios: types.Scenarios{Baseline: 4800}},
	}
	data, err := json.Marshal(proposal)
	require.NoError(t, err)
	dir := t.TempDir()
	path := writeFile(t, dir, "proposal.json", string(data))
	pdfPath := filepath.Join(dir, "rebuilt.pdf")

	out, err := execute(t, "sections", "--proposal", path, "--render", pdfPath, "--pretty=false")
	require.NoError(t, err)

	var got []types.Section
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.Len(t, got, 7)
	assert.Equal(t, sections.TitleExecutiveSummary, got[0].Title)
	assert.Contains(t, got[0].Content, "Acme Corp")

	info, err := os.Stat(pdfPath)
	require.NoError(t, err)
	assert.Positive(t, info.Size())
}

func TestExtractTextCommand(t *testing.T) {
	dir := t.TempDir()
	input := writeFile(t, dir, "rfp.txt", "Request for Proposal\nThe county seeks a managed IT partner.")
	metaPath := filepath.Join(dir, "meta.json")

	out, err := execute(t, "extract-text", input, "--meta", metaPath, "--out", "")
	require.NoError(t, err)
	assert.Contains(t, out, "managed IT partner")

	data, err := os.ReadFile(metaPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"source": "rfp.txt"`)

	_, err = execute(t, "extract-text", filepath.Join(dir, "missing.pdf"), "--meta", "")
	assert.Error(t, err)
}

func TestTokenCommand(t *testing.T) {
	t.Setenv("JWT_SECRET", "a-test-secret-of-sufficient-length")
	t.Setenv("JWT_ISSUER", "")
	t.Setenv("JWT_EXPIRATION_HOURS", "2")

	out, err := execute(t, "token", "--subject", "bid-desk")
	require.NoError(t, err)

	jwtCfg, err := config.LoadJWTConfig()
	require.NoError(t, err)
	claims, err := server.NewJWTService(jwtCfg).ValidateToken(strings.TrimSpace(out))
	require.NoError(t, err)
	assert.Equal(t, "bid-desk", claims.Subject)
}

func TestTokenCommand_RequiresSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	_, err := execute(t, "token", "--subject", "bid-desk")
	assert.ErrorContains(t, err, "JWT_SECRET")
}

func TestRunCommand_WithoutModel(t *testing.T) {
	clearModelEnv(t)
	dir := t.TempDir()
	input := writeFile(t, dir, "county_rfp.txt",
		"Request for Proposal: Managed IT Services\nThe county requires help desk support for 112 PCs.")
	output := filepath.Join(dir, "out.pdf")
	dump := filepath.Join(dir, "proposal.json")

	_, err := execute(t, "run", "--input", input, "--output", output, "--dump-json", dump, "--verbose=false")
	require.NoError(t, err)

	info, err := os.Stat(output)
	require.NoError(t, err)
	assert.Positive(t, info.Size())

	data, err := os.ReadFile(dump)
	require.NoError(t, err)
	var proposal types.Proposal
	require.NoError(t, json.Unmarshal(data, &proposal))
	assert.Equal(t, pipeline.UnknownClient, proposal.Client)
	require.Len(t, proposal.Requirements, 1)
	assert.Equal(t, "REQ-1", proposal.Requirements[0].ID)
	assert.Len(t, proposal.Sections, 7)
	assert.Equal(t, input, proposal.SourceName)
}

func TestRunCommand_RequiresInput(t *testing.T) {
	clearModelEnv(t)
	require.NoError(t, runCommand.Flags().Set("input", ""))

	_, err := execute(t, "run", "--input", "")
	assert.ErrorContains(t, err, "--input is required")
}

func TestDefaultOutputPath(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "rfp.pdf", want: "proposal_rfp.pdf"},
		{in: "docs/county.txt", want: filepath.Join("docs", "proposal_county.pdf")},
		{in: "/tmp/a.b.pdf", want: "/tmp/proposal_a.b.pdf"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, defaultOutputPath(tt.in))
		})
	}
}

func TestLLMConfig(t *testing.T) {
	t.Setenv("OPENAI_BASE_URL", "https://api.groq.com/openai/v1")

	cfg := llmConfig(config.Config{Provider: "openai", Model: "llama-3.3-70b-versatile"})
	assert.Equal(t, llm.ProviderOpenAI, cfg.Provider)
	assert.Equal(t, "https://api.groq.com/openai/v1", cfg.BaseURL)
	for _, tier := range []llm.ModelTier{llm.TierLite, llm.TierStandard, llm.TierAdvanced} {
		assert.Equal(t, "llama-3.3-70b-versatile", cfg.GetModel(tier))
	}

	gemini := llmConfig(config.Config{})
	assert.Equal(t, llm.ProviderGemini, gemini.Provider)
	assert.Empty(t, gemini.BaseURL)
}

func TestAPIKeyFor(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "g-key")
	t.Setenv("OPENAI_API_KEY", "o-key")

	assert.Equal(t, "explicit", apiKeyFor(llm.ProviderGemini, "explicit"))
	assert.Equal(t, "g-key", apiKeyFor(llm.ProviderGemini, ""))
	assert.Equal(t, "o-key", apiKeyFor(llm.ProviderOpenAI, ""))
}

func TestNewLLMClient_NoKey(t *testing.T) {
	clearModelEnv(t)

	client, err := newLLMClient(context.Background(), config.Config{}, zerolog.Nop())
	require.NoError(t, err)
	assert.Nil(t, client)
}

func TestNewEstimator(t *testing.T) {
	def := newEstimator(config.Config{})
	assert.Equal(t, 120.0, def.RatePerHour)
	assert.Equal(t, 0.8, def.ProductivityFactor)

	custom := newEstimator(config.Config{RatePerHour: 95, ProductivityFactor: 1.1})
	assert.Equal(t, 95.0, custom.RatePerHour)
	assert.Equal(t, 1.1, custom.ProductivityFactor)
}

func TestNewCache_FallsBackToMemory(t *testing.T) {
	store := newCache(context.Background(), "", zerolog.Nop())
	require.NotNil(t, store)
	defer store.Close() //nolint:errcheck

	require.NoError(t, store.Set(context.Background(), "k", []byte("v"), 0))
	got, err := store.Get(context.Background(), "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), got)
}

func TestSectionsCommand_RejectsInvalidProposal(t *testing.T) {
	clearModelEnv(t)
	path := writeFile(t, t.TempDir(), "proposal.json",
		`{"client":"","summary":"","requirements":[],"technical_mapping":[],"pricing":null,"validation_issues":[],"sections":[]}`)

	_, err := execute(t, "sections", "--proposal", path, "--render", "", "--pretty=false")
	assert.ErrorContains(t, err, "does not match")
}
