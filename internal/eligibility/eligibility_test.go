package eligibility_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/runforge/arc/internal/eligibility"
	"github.com/runforge/arc/internal/models"
	"github.com/runforge/arc/internal/registry"
)

func TestDecide_AlwaysEligibleStepsIgnoreValidation(t *testing.T) {
	d := eligibility.Decide(registry.FinalReportStep, registry.KindNarrative, &eligibility.ValidationSummary{CanProceed: false}, nil)
	require.Equal(t, models.EligibilityEligible, d.Status)
}

func TestDecide_GatedStepsSkippedWhenCannotProceed(t *testing.T) {
	d := eligibility.Decide("regression", registry.KindAnalytic, &eligibility.ValidationSummary{CanProceed: false}, nil)
	require.Equal(t, models.EligibilitySkipped, d.Status)
	require.Equal(t, "VALIDATION_CANNOT_PROCEED", d.ReasonCode)
}

func TestDecide_TimeSeriesNotApplicableWithoutDatetimeColumn(t *testing.T) {
	d := eligibility.Decide("time_series", registry.KindAnalytic, &eligibility.ValidationSummary{CanProceed: true}, &models.Classification{HasDatetimeColumn: false})
	require.Equal(t, models.EligibilityNotApplicable, d.Status)
}

func TestDecide_SingleRowDatasetMarksAnalyticStepsNotApplicable(t *testing.T) {
	d := eligibility.Decide("clustering", registry.KindAnalytic, &eligibility.ValidationSummary{CanProceed: true}, &models.Classification{RowCount: 1})
	require.Equal(t, models.EligibilityNotApplicable, d.Status)
}

func TestDecide_DefaultsToEligible(t *testing.T) {
	d := eligibility.Decide("interpreter", registry.KindAnalytic, &eligibility.ValidationSummary{CanProceed: true}, &models.Classification{RowCount: 500})
	require.Equal(t, models.EligibilityEligible, d.Status)
}
