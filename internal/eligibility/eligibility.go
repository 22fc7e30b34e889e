// Package eligibility implements Eligibility & Guardrails (spec §4.7 step 2,
// data model "Eligibility Decision"): deciding whether a step applies given
// the run's validation report and dataset classification, grounded on
// original_source's backend/core/data_guardrails.py (is_agent_allowed_for_run,
// append_limitation).
package eligibility

import (
	"github.com/runforge/arc/internal/models"
	"github.com/runforge/arc/internal/registry"
)

// ValidationSummary is the subset of the validator step's output that
// eligibility decisions consult.
type ValidationSummary struct {
	CanProceed      bool     `json:"can_proceed"`
	DataQualityScore float64 `json:"data_quality_score"`
	MissingTarget   bool     `json:"missing_target"`
}

// gatedSteps are the steps shut off entirely when the validator reports
// can_proceed=false (spec §8, boundary behavior: "Validator with
// can_proceed=false: all {overseer, regression, personas, fabricator}
// steps are skipped"). "anomalies" is listed but never skipped here:
// Decide checks registry.AlwaysEligible first, and anomalies is in it.
var gatedSteps = map[models.StepName]bool{
	"regression": true,
	"personas":   true,
	"clustering": true,
	"anomalies":  true,
}

// Decide resolves the eligibility of one step given the run's validation
// summary and dataset classification (spec §3, "Eligibility Decision").
// Certain steps (final report, anomaly/sentry, governance) are always
// eligible per spec §4.7 step 2.
func Decide(step models.StepName, kind registry.Kind, validation *ValidationSummary, classification *models.Classification) models.EligibilityDecision {
	if registry.AlwaysEligible[step] {
		return models.EligibilityDecision{Status: models.EligibilityEligible}
	}

	if validation != nil && !validation.CanProceed && gatedSteps[step] {
		return models.EligibilityDecision{
			Status:     models.EligibilitySkipped,
			ReasonCode: "VALIDATION_CANNOT_PROCEED",
			Message:    "validator reported can_proceed=false",
		}
	}

	if step == "time_series" && classification != nil && !classification.HasDatetimeColumn {
		return models.EligibilityDecision{
			Status:     models.EligibilityNotApplicable,
			ReasonCode: "NO_DATETIME_COLUMN",
			Message:    "dataset has no datetime column",
		}
	}

	if step == "regression" && classification != nil && classification.TargetColumn == "" {
		return models.EligibilityDecision{
			Status:     models.EligibilitySkipped,
			ReasonCode: "NO_TARGET_COLUMN",
			Message:    "no target column configured or inferred",
		}
	}

	if classification != nil && classification.RowCount <= 1 && kind == registry.KindAnalytic {
		return models.EligibilityDecision{
			Status:     models.EligibilityNotApplicable,
			ReasonCode: "SINGLE_ROW_DATASET",
			Message:    "analytic steps are not applicable to a single-row dataset",
		}
	}

	return models.EligibilityDecision{Status: models.EligibilityEligible}
}
