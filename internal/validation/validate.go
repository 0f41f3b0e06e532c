// Package validation checks an assembled proposal for missing stages and
// structural problems, and inspects rendered documents.
package validation

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/jonathan/proposal-builder/internal/types"
)

// Issue messages reported by Validate.
const (
	IssueNoRequirements = "No requirements extracted"
	IssueNoMapping      = "No technical mapping available"
	IssueNoPricing      = "No pricing estimates available"
)

// Validate returns the issues found in p, in a fixed order. It never fails;
// an empty result means every stage produced output.
func Validate(p *types.Proposal) []string {
	issues := []string{}
	if p == nil {
		return append(issues, IssueNoRequirements, IssueNoMapping, IssueNoPricing)
	}

	if len(p.Requirements) == 0 {
		issues = append(issues, IssueNoRequirements)
	}
	if len(p.TechnicalMapping) == 0 {
		issues = append(issues, IssueNoMapping)
	}
	if p.Pricing == nil || len(p.Pricing.LineItems) == 0 {
		issues = append(issues, IssueNoPricing)
	}
	return issues
}

var structValidator = validator.New()

// CheckStructure validates field constraints on requirements and pricing
// line items (non-empty ids, hours at or above the floor).
func CheckStructure(p *types.Proposal) error {
	if p == nil {
		return &StructureError{Problems: []string{"proposal is nil"}}
	}

	var problems []string
	for i := range p.Requirements {
		problems = append(problems, fieldProblems(fmt.Sprintf("requirements[%d]", i), &p.Requirements[i])...)
	}
	if p.Pricing != nil {
		for i := range p.Pricing.LineItems {
			problems = append(problems, fieldProblems(fmt.Sprintf("line_items[%d]", i), &p.Pricing.LineItems[i])...)
		}
	}

	if len(problems) > 0 {
		return &StructureError{Problems: problems}
	}
	return nil
}

func fieldProblems(prefix string, v any) []string {
	err := structValidator.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []string{fmt.Sprintf("%s: %v", prefix, err)}
	}
	out := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, fmt.Sprintf("%s.%s failed %s", prefix, fe.Field(), fe.Tag()))
	}
	return out
}
