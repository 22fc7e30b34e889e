package orchestrator

import (
	"github.com/runforge/arc/internal/models"
	"github.com/runforge/arc/internal/registry"
)

const (
	baseTimeoutSeconds = 900
	cappedTimeoutSeconds = 1800
	intensiveMultiplier  = 3
	normalMultiplier     = 2
)

// intensiveSteps mirrors original_source's backend/orchestrator.py
// `intensive_agents` list (overseer, regression, sentry, personas),
// adapted to this module's step names.
var intensiveSteps = map[models.StepName]bool{
	"regression": true,
	"clustering": true,
	"personas":   true,
}

// datasetDerivedTimeout computes the dataset-size-derived timeout budget
// (spec.md §4.6): base 900s + k*size_mb, k=3 for compute-intensive steps
// and 2 otherwise, capped at 1800s.
func datasetDerivedTimeout(step models.StepName, sizeBytes int64) int {
	sizeMB := float64(sizeBytes) / (1024 * 1024)
	k := normalMultiplier
	if intensiveSteps[step] {
		k = intensiveMultiplier
	}
	total := baseTimeoutSeconds + int(float64(k)*sizeMB)
	if total > cappedTimeoutSeconds {
		total = cappedTimeoutSeconds
	}
	return total
}

// effectiveTimeoutSeconds is min(dataset_derived_timeout, step.time_budget_seconds)
// per spec.md §4.6.
func effectiveTimeoutSeconds(def registry.StepDefinition, sizeBytes int64) int {
	derived := datasetDerivedTimeout(def.Name, sizeBytes)
	if def.TimeBudgetSeconds > 0 && def.TimeBudgetSeconds < derived {
		return def.TimeBudgetSeconds
	}
	return derived
}
