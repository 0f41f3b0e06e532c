// Package steps defines the stages of a proposal run, their categories and
// the order their dependencies impose.
package steps

import (
	"fmt"
	"sort"
)

// Step names
const (
	StepIngest         = "ingest_rfp"
	StepExtract        = "extract_requirements"
	StepMap            = "map_services"
	StepEstimate       = "estimate_costs"
	StepValidate       = "validate_proposal"
	StepBuildSections  = "build_sections"
	StepExpandSections = "expand_sections"
	StepRender         = "render_pdf"
)

// Step categories
const (
	CategoryIngestion = "ingestion"
	CategoryAnalysis  = "analysis"
	CategoryWriting   = "writing"
	CategoryOutput    = "output"
)

// StepDefinition defines metadata for a pipeline step
type StepDefinition struct {
	Name         string
	Category     string
	Dependencies []string
}

// StepRegistry holds all step definitions
var StepRegistry = map[string]StepDefinition{
	StepIngest: {
		Name:     StepIngest,
		Category: CategoryIngestion,
	},
	StepExtract: {
		Name:         StepExtract,
		Category:     CategoryIngestion,
		Dependencies: []string{StepIngest},
	},
	StepMap: {
		Name:         StepMap,
		Category:     CategoryAnalysis,
		Dependencies: []string{StepExtract},
	},
	StepEstimate: {
		Name:         StepEstimate,
		Category:     CategoryAnalysis,
		Dependencies: []string{StepExtract},
	},
	StepValidate: {
		Name:         StepValidate,
		Category:     CategoryAnalysis,
		Dependencies: []string{StepMap, StepEstimate},
	},
	StepBuildSections: {
		Name:         StepBuildSections,
		Category:     CategoryWriting,
		Dependencies: []string{StepValidate},
	},
	StepExpandSections: {
		Name:         StepExpandSections,
		Category:     CategoryWriting,
		Dependencies: []string{StepBuildSections},
	},
	StepRender: {
		Name:         StepRender,
		Category:     CategoryOutput,
		Dependencies: []string{StepExpandSections},
	},
}

// DependencyError represents a dependency validation error
type DependencyError struct {
	Step                string
	MissingDependencies []string
}

func (e *DependencyError) Error() string {
	return fmt.Sprintf("step %s: missing dependencies: %v", e.Step, e.MissingDependencies)
}

// CategoryOf returns the category of a step, or "" for an unknown step.
func CategoryOf(name string) string {
	return StepRegistry[name].Category
}

// ValidateDependencies checks that every dependency of stepName is in completed.
func ValidateDependencies(stepName string, completed map[string]bool) error {
	def, ok := StepRegistry[stepName]
	if !ok {
		return fmt.Errorf("unknown step: %s", stepName)
	}

	var missing []string
	for _, dep := range def.Dependencies {
		if !completed[dep] {
			missing = append(missing, dep)
		}
	}
	if len(missing) > 0 {
		return &DependencyError{Step: stepName, MissingDependencies: missing}
	}
	return nil
}

// GetAvailableSteps returns the steps not yet completed whose dependencies
// are all completed, sorted by name.
func GetAvailableSteps(completed map[string]bool) []string {
	var available []string
	for name := range StepRegistry {
		if completed[name] {
			continue
		}
		if ValidateDependencies(name, completed) == nil {
			available = append(available, name)
		}
	}
	sort.Strings(available)
	return available
}

// Order returns every step in an order that satisfies all dependencies.
// Steps that become available together are ordered by name.
func Order() []string {
	completed := make(map[string]bool, len(StepRegistry))
	order := make([]string, 0, len(StepRegistry))
	for len(order) < len(StepRegistry) {
		available := GetAvailableSteps(completed)
		if len(available) == 0 {
			// unreachable while the registry has no cycles
			break
		}
		for _, name := range available {
			completed[name] = true
			order = append(order, name)
		}
	}
	return order
}

// Position returns the 1-based position of a step in Order and the number
// of steps, for progress reporting. Unknown steps report position 0.
func Position(name string) (int, int) {
	order := Order()
	for i, step := range order {
		if step == name {
			return i + 1, len(order)
		}
	}
	return 0, len(order)
}
