package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/proposal-builder/internal/config"
	"github.com/jonathan/proposal-builder/internal/observability"
	"github.com/jonathan/proposal-builder/internal/types"
)

var (
	estimateRequirements string
	estimateRate         float64
	estimateProductivity float64
	estimatePretty       bool
)

var estimateCmd = &cobra.Command{
	Use:   "estimate",
	Short: "Price a list of requirements",
	Long: `Estimate hours and cost for requirements read from a JSON file. The file holds
either an array of {"id","text"} objects or an object with a "requirements" array,
such as a proposal written by run --dump-json.`,
	RunE: runEstimate,
}

func init() {
	estimateCmd.Flags().StringVarP(&estimateRequirements, "requirements", "r", "", "Path to requirements JSON")
	estimateCmd.Flags().Float64Var(&estimateRate, "rate", 0, "Hourly rate in dollars")
	estimateCmd.Flags().Float64Var(&estimateProductivity, "productivity", 0, "Productivity factor applied to hour estimates")
	estimateCmd.Flags().BoolVar(&estimatePretty, "pretty", false, "Print a table instead of JSON")
	_ = estimateCmd.MarkFlagRequired("requirements")
	rootCmd.AddCommand(estimateCmd)
}

func runEstimate(cmd *cobra.Command, _ []string) error {
	reqs, err := loadRequirements(estimateRequirements)
	if err != nil {
		return err
	}

	estimator := newEstimator(config.Config{RatePerHour: estimateRate, ProductivityFactor: estimateProductivity})
	report := estimator.Estimate(reqs)

	if estimatePretty {
		observability.NewPrinter(cmd.OutOrStdout()).PrintPricing(report)
		return nil
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

// loadRequirements reads requirements from a bare array or from an object
// with a "requirements" field.
func loadRequirements(path string) ([]types.Requirement, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read requirements: %w", err)
	}

	data = bytes.TrimSpace(data)
	var reqs []types.Requirement
	if bytes.HasPrefix(data, []byte("[")) {
		err = json.Unmarshal(data, &reqs)
	} else {
		var wrapper struct {
			Requirements []types.Requirement `json:"requirements"`
		}
		err = json.Unmarshal(data, &wrapper)
		reqs = wrapper.Requirements
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse requirements JSON: %w", err)
	}
	return reqs, nil
}
