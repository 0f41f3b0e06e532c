// Package pricing estimates effort and cost for requirements with a
// word-count heuristic and derives pricing scenarios from the baseline.
package pricing

import (
	"math"
	"strings"

	"github.com/jonathan/proposal-builder/internal/types"
)

const (
	// DefaultRatePerHour is the blended hourly rate in dollars.
	DefaultRatePerHour = 120.0
	// DefaultProductivityFactor scales the raw hour estimate.
	DefaultProductivityFactor = 0.8
	// MinHours is the floor for any line item.
	MinHours = 8

	// EstimateNotes is attached to every line item.
	EstimateNotes = "Heuristic estimate; replace with historical ML model if available."

	baseHours     = 40
	hoursPerBlock = 10
	wordsPerBlock = 100

	competitiveMultiplier = 0.92
	premiumMultiplier     = 1.25
	sensitivityDown       = 0.85
	sensitivityUp         = 1.15
)

// Estimator prices requirements. The zero value is not usable; use NewEstimator.
type Estimator struct {
	RatePerHour        float64
	ProductivityFactor float64
}

// NewEstimator returns an Estimator with the default rate and productivity.
func NewEstimator() *Estimator {
	return &Estimator{
		RatePerHour:        DefaultRatePerHour,
		ProductivityFactor: DefaultProductivityFactor,
	}
}

// EstimateHours returns max(8, floor((40 + 10*floor(words/100)) * productivity)).
func (e *Estimator) EstimateHours(text string) int {
	words := len(strings.Fields(text))
	raw := float64(baseHours+hoursPerBlock*(words/wordsPerBlock)) * e.ProductivityFactor

	hours := int(math.Floor(raw))
	if hours < MinHours {
		return MinHours
	}
	return hours
}

// Estimate prices every requirement and aggregates the totals. It never fails;
// an empty requirement list yields an empty report with zero totals.
func (e *Estimator) Estimate(reqs []types.Requirement) *types.PricingReport {
	items := make([]types.PricingLineItem, 0, len(reqs))
	totalHours := 0
	baseline := 0.0

	for _, req := range reqs {
		hours := e.EstimateHours(req.Text)
		cost := Round2(float64(hours) * e.RatePerHour)

		items = append(items, types.PricingLineItem{
			RequirementID: req.ID,
			Hours:         hours,
			Cost:          cost,
			Notes:         EstimateNotes,
		})
		totalHours += hours
		baseline += cost
	}
	baseline = Round2(baseline)

	return &types.PricingReport{
		LineItems:  items,
		TotalHours: totalHours,
		Scenarios: types.Scenarios{
			Baseline:    baseline,
			Competitive: Round2(baseline * competitiveMultiplier),
			Premium:     Round2(baseline * premiumMultiplier),
		},
		Sensitivity: types.Sensitivity{
			Low:  Round2(baseline * sensitivityDown),
			High: Round2(baseline * sensitivityUp),
		},
		RatePerHour: e.RatePerHour,
	}
}

// Round2 rounds to cents, half away from zero.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
