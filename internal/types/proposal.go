// Package types provides type definitions for structured data used throughout the proposal builder.
//
//nolint:revive // types is a standard Go package name pattern
package types

// Requirement is a single need stated by the RFP.
type Requirement struct {
	ID   string `json:"id" validate:"required"`
	Text string `json:"text"`
}

// StructuredSummary is the result of extracting structure from raw RFP text
type StructuredSummary struct {
	Client             string        `json:"client"`
	SubmissionDeadline string        `json:"submission_deadline"`
	Summary            string        `json:"summary"`
	Requirements       []Requirement `json:"requirements"`
	// Degraded is set when the summary was produced by the fallback path.
	Degraded bool   `json:"degraded,omitempty"`
	Error    string `json:"error,omitempty"`
}

// ServiceMapping links one requirement to services from the catalog.
// Mappings are keyed by RequirementID, not by position.
type ServiceMapping struct {
	RequirementID   string   `json:"requirement_id"`
	Services        []string `json:"services"`
	Approach        string   `json:"approach"`
	ComplianceScore float64  `json:"compliance_score"`
	Evidence        string   `json:"evidence"`
}

// PricingLineItem is the effort and cost estimate for one requirement
type PricingLineItem struct {
	RequirementID string  `json:"requirement_id"`
	Hours         int     `json:"hours" validate:"gte=8"`
	Cost          float64 `json:"cost"`
	Notes         string  `json:"notes"`
}

// Scenarios holds the three priced scenarios of a report
type Scenarios struct {
	Baseline    float64 `json:"baseline"`
	Competitive float64 `json:"competitive"`
	Premium     float64 `json:"premium"`
}

// Scenario is a labelled total used for rendering
type Scenario struct {
	Name  string
	Total float64
}

// Ordered returns the scenarios in display order: baseline, competitive, premium.
func (s Scenarios) Ordered() []Scenario {
	return []Scenario{
		{Name: "baseline", Total: s.Baseline},
		{Name: "competitive", Total: s.Competitive},
		{Name: "premium", Total: s.Premium},
	}
}

// Sensitivity holds the baseline total shifted down and up by 15%.
type Sensitivity struct {
	Low  float64 `json:"-15%"`
	High float64 `json:"+15%"`
}

// PricingReport aggregates the line items of every requirement
type PricingReport struct {
	LineItems   []PricingLineItem `json:"line_items"`
	TotalHours  int               `json:"total_hours"`
	Scenarios   Scenarios         `json:"scenarios"`
	Sensitivity Sensitivity       `json:"sensitivity"`
	RatePerHour float64           `json:"rate_per_hour"`
}

// Section is a titled block of proposal prose
type Section struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// Proposal is the in-memory result of one pipeline run.
type Proposal struct {
	Client           string           `json:"client"`
	Summary          string           `json:"summary"`
	Requirements     []Requirement    `json:"requirements"`
	TechnicalMapping []ServiceMapping `json:"technical_mapping"`
	Pricing          *PricingReport   `json:"pricing"`
	ValidationIssues []string         `json:"validation_issues"`
	Sections         []Section        `json:"sections"`
	SourceName       string           `json:"source_name,omitempty"`
}

// TotalHoursOrZero returns the report's total hours, or zero for a nil report.
func (p *PricingReport) TotalHoursOrZero() int {
	if p == nil {
		return 0
	}
	return p.TotalHours
}

// Baseline returns the baseline scenario total, or zero for a nil report.
func (p *PricingReport) Baseline() float64 {
	if p == nil {
		return 0
	}
	return p.Scenarios.Baseline
}
