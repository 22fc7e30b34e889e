package drivers

import (
	"context"

	"github.com/runforge/arc/common/logger"
	"github.com/runforge/arc/internal/models"
)

// TrustEvaluationDriver performs trust evaluation of the completed run
// (trust_evaluation, spec.md §4.5), the governance step. Always eligible
// (registry.AlwaysEligible); reads only the validation report — drivers
// cannot call the Manifest directly, so it has no view of accumulated
// warnings.
type TrustEvaluationDriver struct {
	store Store
	log   logger.Log
}

func NewTrustEvaluationDriver(store Store, logFactory logger.LogFactory) *TrustEvaluationDriver {
	return &TrustEvaluationDriver{store: store, log: logFactory("driver.trust_evaluation")}
}

func (d *TrustEvaluationDriver) Run(ctx context.Context, runID models.RunID, _ string, _ models.RunConfig) models.DriverResult {
	var validation validationSummaryDoc
	d.store.ReadInto(string(runID), "validation_report", &validation)

	score := validation.DataQualityScore
	confidence := "medium"
	switch {
	case score >= 0.8:
		confidence = "high"
	case score < 0.3:
		confidence = "low"
	}

	trust := map[string]interface{}{
		"score": score, "confidence": confidence,
		"notes": "derived from the validator's data quality score",
	}
	if err := d.store.Write(string(runID), "trust_object_pending", trust); err != nil {
		return models.DriverResult{Success: false, StderrTail: err.Error()}
	}
	return models.DriverResult{Success: true}
}
