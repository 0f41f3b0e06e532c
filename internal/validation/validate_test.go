package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/proposal-builder/internal/types"
)

func TestValidate(t *testing.T) {
	complete := &types.Proposal{
		Requirements:     []types.Requirement{{ID: "R1", Text: "x"}},
		TechnicalMapping: []types.ServiceMapping{{RequirementID: "R1"}},
		Pricing:          &types.PricingReport{LineItems: []types.PricingLineItem{{RequirementID: "R1", Hours: 32}}},
	}

	tests := []struct {
		name     string
		proposal *types.Proposal
		want     []string
	}{
		{name: "complete", proposal: complete, want: []string{}},
		{name: "nil proposal", proposal: nil, want: []string{IssueNoRequirements, IssueNoMapping, IssueNoPricing}},
		{name: "empty proposal", proposal: &types.Proposal{}, want: []string{IssueNoRequirements, IssueNoMapping, IssueNoPricing}},
		{
			name: "pricing without line items",
			proposal: &types.Proposal{
				Requirements:     complete.Requirements,
				TechnicalMapping: complete.TechnicalMapping,
				Pricing:          &types.PricingReport{},
			},
			want: []string{IssueNoPricing},
		},
		{
			name: "mapping missing",
			proposal: &types.Proposal{
				Requirements: complete.Requirements,
				Pricing:      complete.Pricing,
			},
			want: []string{"No technical mapping available"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Validate(tt.proposal))
		})
	}
}

func TestCheckStructure(t *testing.T) {
	valid := &types.Proposal{
		Requirements: []types.Requirement{{ID: "R1"}},
		Pricing:      &types.PricingReport{LineItems: []types.PricingLineItem{{RequirementID: "R1", Hours: 8}}},
	}
	assert.NoError(t, CheckStructure(valid))

	invalid := &types.Proposal{
		Requirements: []types.Requirement{{ID: "R1"}, {ID: ""}},
		Pricing:      &types.PricingReport{LineItems: []types.PricingLineItem{{RequirementID: "R1", Hours: 4}}},
	}
	err := CheckStructure(invalid)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "requirements[1].ID failed required")
	assert.Contains(t, err.Error(), "line_items[0].Hours failed gte")
	var structErr *StructureError
	require.ErrorAs(t, err, &structErr)
	assert.Len(t, structErr.Problems, 2)

	assert.Error(t, CheckStructure(nil))
}
