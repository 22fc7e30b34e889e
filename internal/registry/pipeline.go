// Package registry implements the Step Registry (spec §4.5): a declarative,
// ordered catalog of pipeline steps, with the two load-time ordering
// invariants the original Python orchestrator enforced defensively against
// PIPELINE_SEQUENCE at import time (original_source's backend/orchestrator.py,
// the "PROTOCOL 1000" block, lines ~22-44).
package registry

import (
	"fmt"

	"github.com/runforge/arc/internal/models"
)

// Kind classifies a step for eligibility/criticality defaults.
type Kind string

const (
	KindFoundational Kind = "foundational"
	KindAnalytic     Kind = "analytic"
	KindNarrative    Kind = "narrative"
	KindGovernance   Kind = "governance"
)

// StepDefinition is one catalog entry (spec §4.5).
type StepDefinition struct {
	Name              models.StepName
	Description       string
	Critical          bool
	TimeBudgetSeconds int
	Kind              Kind
}

// FinalReportStep and GovernanceStep name the two steps the ordering
// invariants care about.
const (
	FinalReportStep models.StepName = "expositor"
	GovernanceStep  models.StepName = "trust_evaluation"
)

// defaultSequence is the pipeline sequence named in spec §4.5, in order.
func defaultSequence() []StepDefinition {
	return []StepDefinition{
		{Name: "ingestion", Description: "load and sanitize the input dataset", Critical: true, TimeBudgetSeconds: 120, Kind: KindFoundational},
		{Name: "scanner", Description: "build a statistical profile of the dataset", Critical: false, TimeBudgetSeconds: 120, Kind: KindFoundational},
		{Name: "type_identifier", Description: "classify column types and dataset shape", Critical: false, TimeBudgetSeconds: 90, Kind: KindFoundational},
		{Name: "validator", Description: "validate data quality and compute guardrail signals", Critical: true, TimeBudgetSeconds: 120, Kind: KindFoundational},
		{Name: "interpreter", Description: "produce an initial data interpretation", Critical: false, TimeBudgetSeconds: 180, Kind: KindAnalytic},
		{Name: "clustering", Description: "cluster-like grouping analysis", Critical: false, TimeBudgetSeconds: 300, Kind: KindAnalytic},
		{Name: "regression", Description: "regression-like modeling analysis", Critical: false, TimeBudgetSeconds: 420, Kind: KindAnalytic},
		{Name: "time_series", Description: "time-series analysis, if a datetime column exists", Critical: false, TimeBudgetSeconds: 180, Kind: KindAnalytic},
		{Name: "anomalies", Description: "anomaly/outlier detection", Critical: false, TimeBudgetSeconds: 180, Kind: KindAnalytic},
		{Name: "personas", Description: "persona/strategy generation", Critical: false, TimeBudgetSeconds: 300, Kind: KindNarrative},
		{Name: FinalReportStep, Description: "narrative/report generation", Critical: true, TimeBudgetSeconds: 180, Kind: KindNarrative},
		{Name: GovernanceStep, Description: "trust evaluation of the completed run", Critical: false, TimeBudgetSeconds: 90, Kind: KindGovernance},
	}
}

// AlwaysEligible are steps exempt from eligibility gating (spec §4.7 step 2).
var AlwaysEligible = map[models.StepName]bool{
	FinalReportStep: true,
	"anomalies":     true,
	GovernanceStep:  true,
}

// Registry is the loaded, order-validated catalog.
type Registry struct {
	steps []StepDefinition
}

// Load builds the default sequence and enforces the two ordering
// invariants, returning a load-time error (never a panic mid-run) on
// violation, per spec §4.5.
func Load() (*Registry, error) {
	return LoadFrom(defaultSequence())
}

// LoadFrom runs the ordering invariants over an explicit sequence, so an
// optional YAML overlay can retune budgets/criticality without altering
// step order outside this function (SPEC_FULL.md §5.5).
func LoadFrom(steps []StepDefinition) (*Registry, error) {
	steps = ensureFinalReportPresent(steps)
	if err := enforceGovernanceOrFinalReportLast(steps); err != nil {
		return nil, err
	}
	return &Registry{steps: steps}, nil
}

// ensureFinalReportPresent injects the final-report step if it is missing
// (invariant 1, spec §4.5).
func ensureFinalReportPresent(steps []StepDefinition) []StepDefinition {
	for _, s := range steps {
		if s.Name == FinalReportStep {
			return steps
		}
	}
	injected := StepDefinition{
		Name: FinalReportStep, Description: "narrative/report generation (injected)",
		Critical: true, TimeBudgetSeconds: 180, Kind: KindNarrative,
	}
	return append(steps, injected)
}

// enforceGovernanceOrFinalReportLast implements invariant 2: the governance
// step, if present, must be last; otherwise the final-report step must be
// last.
func enforceGovernanceOrFinalReportLast(steps []StepDefinition) error {
	if len(steps) == 0 {
		return fmt.Errorf("error step registry is empty")
	}
	hasGovernance := false
	for _, s := range steps {
		if s.Name == GovernanceStep {
			hasGovernance = true
			break
		}
	}
	last := steps[len(steps)-1].Name
	if hasGovernance {
		if last != GovernanceStep {
			return fmt.Errorf("error governance step %q must be last in the step registry, found %q last", GovernanceStep, last)
		}
		return nil
	}
	if last != FinalReportStep {
		return fmt.Errorf("error final-report step %q must be last in the step registry when no governance step is present, found %q last", FinalReportStep, last)
	}
	return nil
}

// Steps returns the ordered catalog.
func (r *Registry) Steps() []StepDefinition {
	return r.steps
}

// Names returns just the ordered step names.
func (r *Registry) Names() []models.StepName {
	names := make([]models.StepName, len(r.steps))
	for i, s := range r.steps {
		names[i] = s.Name
	}
	return names
}

// Get returns the definition for name, or (nil, false) if unknown.
func (r *Registry) Get(name models.StepName) (*StepDefinition, bool) {
	for i := range r.steps {
		if r.steps[i].Name == name {
			return &r.steps[i], true
		}
	}
	return nil, false
}
