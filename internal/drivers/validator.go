package drivers

import (
	"context"

	"github.com/runforge/arc/common/logger"
	"github.com/runforge/arc/internal/models"
)

// ValidatorDriver validates data quality and computes guardrail signals
// (validator, spec.md §4.5), grounded on original_source's backend/core/
// analytics_validation.py's can_proceed gate. It writes "validation_report"
// directly — not through the pending/promote lifecycle, since it is an
// ambient signal consumed by Eligibility & Guardrails rather than a
// user-facing artifact on the promotion list.
type ValidatorDriver struct {
	store Store
	log   logger.Log
}

func NewValidatorDriver(store Store, logFactory logger.LogFactory) *ValidatorDriver {
	return &ValidatorDriver{store: store, log: logFactory("driver.validator")}
}

func (d *ValidatorDriver) Run(ctx context.Context, runID models.RunID, _ string, runConfig models.RunConfig) models.DriverResult {
	var profile profileDoc
	hasProfile, err := d.store.ReadInto(string(runID), "profile", &profile)
	if err != nil {
		return models.DriverResult{Success: false, StderrTail: err.Error()}
	}

	var classification models.Classification
	hasClassification, err := d.store.ReadInto(string(runID), "classification", &classification)
	if err != nil {
		return models.DriverResult{Success: false, StderrTail: err.Error()}
	}

	wantsTarget := runConfig.TargetColumn() != ""
	missingTarget := wantsTarget && (!hasClassification || classification.TargetColumn == "")

	qualityScore := 1.0
	if !hasProfile {
		qualityScore = 0.0
	}
	if missingTarget {
		qualityScore -= 0.3
	}
	if hasProfile && profile.RowCount <= 1 {
		qualityScore -= 0.4
	}
	if qualityScore < 0 {
		qualityScore = 0
	}

	canProceed := hasProfile && qualityScore >= 0.2

	report := map[string]interface{}{
		"can_proceed":        canProceed,
		"data_quality_score": qualityScore,
		"missing_target":     missingTarget,
		"checks": []map[string]interface{}{
			{"name": "has_profile", "passed": hasProfile},
			{"name": "has_classification", "passed": hasClassification},
		},
	}
	if err := d.store.Write(string(runID), "validation_report", report); err != nil {
		return models.DriverResult{Success: false, StderrTail: err.Error()}
	}
	return models.DriverResult{Success: true}
}
