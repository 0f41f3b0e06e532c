package observability

import (
	"bytes"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"

	"github.com/jonathan/proposal-builder/internal/types"
)

func init() {
	color.NoColor = true
}

func TestPrintSummary(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	reqs := make([]types.Requirement, 7)
	for i := range reqs {
		reqs[i] = types.Requirement{ID: "R", Text: "requirement"}
	}
	p.PrintSummary(&types.StructuredSummary{Client: "ACME", Requirements: reqs, Degraded: true})

	out := buf.String()
	assert.Contains(t, out, "EXTRACTED RFP STRUCTURE")
	assert.Contains(t, out, "Client:   ACME")
	assert.Contains(t, out, "Deadline: -")
	assert.Contains(t, out, "fallback")
	assert.Contains(t, out, "... and 2 more")
}

func TestPrintSummary_Nil(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).PrintSummary(nil)
	assert.Empty(t, buf.String())
}

func TestPrintBox_ClipsLongLines(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).printBox("T", strings.Repeat("é", 100))

	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		assert.Equal(t, boxWidth, len([]rune(line)), "line %q", line)
	}
	assert.Contains(t, buf.String(), "...")
}

func TestPrintPricing(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).PrintPricing(&types.PricingReport{
		LineItems:  []types.PricingLineItem{{RequirementID: "R1", Hours: 32, Cost: 3840}},
		TotalHours: 32,
		Scenarios:  types.Scenarios{Baseline: 3840, Competitive: 3532.8, Premium: 4800},
	})

	out := buf.String()
	assert.Contains(t, out, "R1")
	assert.Contains(t, out, "$3,840.00")
	assert.Contains(t, out, "competitive")
	assert.Contains(t, out, "$3,532.80")
	assert.Contains(t, out, "Total hours: 32")
}

func TestPrintIssues(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintIssues(nil)
	assert.Contains(t, buf.String(), "NO VALIDATION ISSUES")

	buf.Reset()
	p.PrintIssues([]string{"No requirements extracted"})
	assert.Contains(t, buf.String(), "Found 1 issues")
	assert.Contains(t, buf.String(), "⚠ No requirements extracted")
}

func TestPrintMappingsAndSections(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintMappings([]types.ServiceMapping{{RequirementID: "R1", Services: []string{"A", "B"}, ComplianceScore: 70}})
	p.PrintSections([]types.Section{{Title: "I. Executive Summary", Content: "abc"}})

	out := buf.String()
	assert.Contains(t, out, "R1  (score 70)")
	assert.Contains(t, out, "Services: A, B")
	assert.Contains(t, out, "I. Executive Summary")
}

func TestStatusLines(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.Success("done %d", 1)
	p.Warning("careful")
	p.Step("next")

	assert.Equal(t, "✓ done 1\n⚠ careful\n→ next\n", buf.String())
}
