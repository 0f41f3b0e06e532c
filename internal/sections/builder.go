// Package sections assembles the fixed proposal outline from a Proposal and
// the company profile. Building is pure and deterministic.
package sections

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/jonathan/proposal-builder/internal/config"
	"github.com/jonathan/proposal-builder/internal/llm"
	"github.com/jonathan/proposal-builder/internal/types"
)

// Section titles, in document order.
const (
	TitleExecutiveSummary = "I. Executive Summary"
	TitleProblem          = "II. The Problem"
	TitleSolution         = "III. Our Hi-Tech Solution"
	TitleWhoWeAre         = "IV. Who We Are"
	TitleTimelinePricing  = "V. Timeline and Pricing"
	TitleROI              = "VI. Your Return on Investment"
	TitleTerms            = "VII. Terms and Conditions"
	TitleReferences       = "VIII. References"
)

// CitationMarker in any section enables the References section.
const CitationMarker = "[cite:"

const (
	requirementChars = 600
	hoursPerWeek     = 40
	benefitFactor    = 1.5
)

// Builder renders sections using a company profile.
type Builder struct {
	profile config.CompanyProfile
}

// NewBuilder creates a Builder for profile.
func NewBuilder(profile config.CompanyProfile) *Builder {
	return &Builder{profile: profile}
}

// Build returns sections I to VII, plus VIII when a citation marker appears
// in earlier content. A nil pricing report counts as zero totals.
func (b *Builder) Build(p *types.Proposal) []types.Section {
	if p == nil {
		p = &types.Proposal{}
	}

	sections := []types.Section{
		{Title: TitleExecutiveSummary, Content: b.executiveSummary(p)},
		{Title: TitleProblem, Content: problem(p.Requirements)},
		{Title: TitleSolution, Content: solution(p.TechnicalMapping)},
		{Title: TitleWhoWeAre, Content: b.whoWeAre()},
		{Title: TitleTimelinePricing, Content: timelineAndPricing(p.Pricing)},
		{Title: TitleROI, Content: returnOnInvestment(p.Pricing.Baseline())},
		{Title: TitleTerms, Content: termsAndConditions},
	}

	if HasCitations(sections) {
		sections = append(sections, types.Section{Title: TitleReferences, Content: b.profile.References})
	}
	return sections
}

// HasCitations reports whether any section content contains a citation marker.
func HasCitations(sections []types.Section) bool {
	for _, s := range sections {
		if strings.Contains(s.Content, CitationMarker) {
			return true
		}
	}
	return false
}

func (b *Builder) executiveSummary(p *types.Proposal) string {
	summary := p.Summary
	if summary == "" {
		summary = "We propose a tailored IT solution to meet the client's objectives."
	}
	return summary + "\n\n" +
		"**Mission Statement**\n" + b.profile.Mission + "\n\n" +
		"**Vision Statement**\n" + b.profile.Vision + "\n\n" +
		"**Client-Centric Approach**\n" + b.profile.Approach + "\n\n" +
		"**Proven Results**\n" + b.profile.Results
}

func problem(reqs []types.Requirement) string {
	if len(reqs) == 0 {
		return "The RFP highlights key needs and constraints that will be addressed by our solution.\n\n" + problemBoilerplate
	}

	lines := make([]string, len(reqs))
	for i, r := range reqs {
		lines[i] = "- " + llm.Truncate(r.Text, requirementChars)
	}
	return "The RFP identifies the following objectives and constraints:\n" +
		strings.Join(lines, "\n") + "\n\n" + problemBoilerplate
}

func solution(mappings []types.ServiceMapping) string {
	if len(mappings) == 0 {
		return "We propose a proven technical approach leveraging cloud, automation, and security best practices.\n\n" + solutionBoilerplate
	}

	blocks := make([]string, len(mappings))
	for i, m := range mappings {
		blocks[i] = fmt.Sprintf("**Requirement %s**\n- Services: %s\n- Approach: %s\n- Compliance Score: %s\n",
			m.RequirementID,
			strings.Join(m.Services, ", "),
			m.Approach,
			strconv.FormatFloat(m.ComplianceScore, 'f', -1, 64),
		)
	}
	return "Our solution leverages the latest advancements in cloud, automation, and security.\n\n" +
		strings.Join(blocks, "\n\n") + "\n\n" + solutionBoilerplate
}

func (b *Builder) whoWeAre() string {
	return b.profile.Name + " is a seasoned IT services provider with deep experience in cloud migration, managed services, and security. " +
		"We combine engineering excellence with delivery discipline to meet aggressive timelines and quality targets.\n\n" +
		"**Our Heritage & Mission**\n" + b.profile.Heritage + "\n\n" +
		"**Engineering Excellence**\n" + b.profile.Engineering + "\n\n" +
		"**Delivery Discipline**\n" + b.profile.Delivery + "\n\n" +
		"**Our Security-First Culture**\n" + b.profile.Security + "\n\n" +
		"**Strategic Partnership Philosophy**\n" + b.profile.Partnership
}

// DeliveryWeeks returns max(1, round(totalHours/40)).
func DeliveryWeeks(totalHours int) int {
	weeks := int(math.Round(float64(totalHours) / hoursPerWeek))
	if weeks < 1 {
		return 1
	}
	return weeks
}

func timelineAndPricing(report *types.PricingReport) string {
	totalHours := report.TotalHoursOrZero()
	var scenarios types.Scenarios
	if report != nil {
		scenarios = report.Scenarios
	}

	timeline := fmt.Sprintf("Estimated delivery timeline: approximately %d weeks (based on %d total hours).",
		DeliveryWeeks(totalHours), totalHours)
	pricingLines := fmt.Sprintf("Scenarios - Baseline: $%.2f, Competitive: $%.2f, Premium: $%.2f",
		scenarios.Baseline, scenarios.Competitive, scenarios.Premium)

	return timeline + "\n\n" +
		"**Pricing Methodology**\n" +
		"Our pricing is based on a transparent, activity-based costing model. Each requirement is carefully estimated for effort, complexity, and risk. " +
		"We offer three pricing scenarios—baseline, competitive, and premium—so you can select the best fit for your budget and risk profile.\n\n" +
		pricingLines + "\n\n" +
		"**What’s Included**\n" +
		"All scenarios include project management, technical implementation, documentation, and post-go-live support. Optional services such as advanced security, training, and extended support are available upon request."
}

// PaybackMonths returns the annual benefit (baseline x 1.5) and the payback
// period in months rounded to one decimal. ok is false when baseline <= 0.
func PaybackMonths(baseline float64) (annual, months float64, ok bool) {
	if baseline <= 0 {
		return 0, 0, false
	}
	annual = baseline * benefitFactor
	months = math.Round(baseline/(annual/12)*10) / 10
	return annual, months, true
}

func returnOnInvestment(baseline float64) string {
	var opening string
	if annual, months, ok := PaybackMonths(baseline); ok {
		opening = fmt.Sprintf("Estimated annual benefit: $%.2f. Estimated payback period: %s months.",
			annual, strconv.FormatFloat(months, 'f', 1, 64))
	} else {
		opening = "Estimated ROI to be determined during scoping; we will provide a detailed financial model during Phase 1."
	}
	return opening + "\n\n" + roiBoilerplate
}
