// Package observability provides structured logging and formatted output
// utilities for verbose CLI mode.
package observability

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/jonathan/proposal-builder/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// clip shortens s to at most n runes, ending in "..." when cut.
func clip(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	for _, line := range strings.Split(content, "\n") {
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, clip(line, boxWidth-4))
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// Success prints a green check line.
func (p *Printer) Success(format string, args ...any) {
	_, _ = color.New(color.FgGreen).Fprintf(p.out, "✓ %s\n", fmt.Sprintf(format, args...))
}

// Warning prints a yellow warning line.
func (p *Printer) Warning(format string, args ...any) {
	_, _ = color.New(color.FgYellow).Fprintf(p.out, "⚠ %s\n", fmt.Sprintf(format, args...))
}

// Step prints a cyan progress line.
func (p *Printer) Step(format string, args ...any) {
	_, _ = color.New(color.FgCyan).Fprintf(p.out, "→ %s\n", fmt.Sprintf(format, args...))
}

// PrintSummary outputs a human-readable view of the extracted RFP structure.
func (p *Printer) PrintSummary(summary *types.StructuredSummary) {
	if summary == nil {
		return
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Client:   %s\n", orDash(summary.Client))
	fmt.Fprintf(&sb, "Deadline: %s\n", orDash(summary.SubmissionDeadline))
	if summary.Degraded {
		sb.WriteString("Status:   fallback (extraction failed)\n")
	}
	sb.WriteString("\n")

	if len(summary.Requirements) > 0 {
		sb.WriteString("Requirements:\n")
		count := min(len(summary.Requirements), maxItemsToShow)
		for i := 0; i < count; i++ {
			req := summary.Requirements[i]
			fmt.Fprintf(&sb, "  • %s %s\n", req.ID, req.Text)
		}
		if len(summary.Requirements) > maxItemsToShow {
			fmt.Fprintf(&sb, "  ... and %d more\n", len(summary.Requirements)-maxItemsToShow)
		}
	}

	p.printBox("EXTRACTED RFP STRUCTURE", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintMappings outputs the service mapping of the first few requirements.
func (p *Printer) PrintMappings(mappings []types.ServiceMapping) {
	if len(mappings) == 0 {
		return
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Mapped %d requirements:\n\n", len(mappings))

	count := min(len(mappings), maxItemsToShow)
	for i := 0; i < count; i++ {
		m := mappings[i]
		fmt.Fprintf(&sb, "%s  (score %.0f)\n", m.RequirementID, m.ComplianceScore)
		fmt.Fprintf(&sb, "    Services: %s\n", strings.Join(m.Services, ", "))
		if i < count-1 {
			sb.WriteString("\n")
		}
	}

	if len(mappings) > maxItemsToShow {
		fmt.Fprintf(&sb, "\n... and %d more mappings", len(mappings)-maxItemsToShow)
	}

	p.printBox("TECHNICAL MAPPING", sb.String())
}

// PrintPricing outputs line items and scenario totals.
func (p *Printer) PrintPricing(report *types.PricingReport) {
	if report == nil {
		return
	}

	var sb strings.Builder
	count := min(len(report.LineItems), maxItemsToShow)
	for i := 0; i < count; i++ {
		item := report.LineItems[i]
		fmt.Fprintf(&sb, "%-12s %4d h  %s\n", clip(item.RequirementID, 12), item.Hours, types.FormatCurrency(item.Cost))
	}
	if len(report.LineItems) > maxItemsToShow {
		fmt.Fprintf(&sb, "... and %d more line items\n", len(report.LineItems)-maxItemsToShow)
	}

	fmt.Fprintf(&sb, "\nTotal hours: %d\n", report.TotalHours)
	for _, s := range report.Scenarios.Ordered() {
		fmt.Fprintf(&sb, "%-12s %s\n", s.Name, types.FormatCurrency(s.Total))
	}

	p.printBox("PRICING", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintIssues outputs validation issues, or a clean bill of health.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) PrintIssues(issues []string) {
	if len(issues) == 0 {
		fmt.Fprintf(p.out, "┌%s┐\n", strings.Repeat("─", boxWidth-2))
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, "✅ NO VALIDATION ISSUES")
		fmt.Fprintf(p.out, "└%s┘\n", strings.Repeat("─", boxWidth-2))
		return
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Found %d issues:\n\n", len(issues))
	for _, issue := range issues {
		fmt.Fprintf(&sb, "⚠ %s\n", issue)
	}

	p.printBox("VALIDATION ISSUES", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintSections outputs section titles with their content length.
func (p *Printer) PrintSections(sections []types.Section) {
	if len(sections) == 0 {
		return
	}

	var sb strings.Builder
	for _, s := range sections {
		fmt.Fprintf(&sb, "%-40s %6d chars\n", clip(s.Title, 40), len([]rune(s.Content)))
	}
	p.printBox("SECTIONS", strings.TrimSuffix(sb.String(), "\n"))
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
