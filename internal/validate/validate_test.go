package validate_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/runforge/arc/internal/models"
	"github.com/runforge/arc/internal/validate"
)

func TestValidateDataProfile_RequiresStructuralFields(t *testing.T) {
	res := validate.ValidateDataProfile(map[string]interface{}{})
	require.False(t, res.Valid)
	require.Len(t, res.Errors, 4)
}

func TestValidateDataProfile_AcceptsWellFormedPayload(t *testing.T) {
	res := validate.ValidateDataProfile(map[string]interface{}{
		"row_count": 100, "column_count": 5, "columns": []interface{}{"a"}, "column_types": map[string]interface{}{"a": "int"},
	})
	require.True(t, res.Valid)
}

func TestValidateModelFitReport_FlagsOverfitRisk(t *testing.T) {
	res := validate.ValidateModelFitReport(map[string]interface{}{
		"metrics": map[string]interface{}{"r2": 0.97},
	})
	require.True(t, res.Valid)
	require.Len(t, res.Warnings, 1)
	require.Equal(t, "OVERFIT_RISK", res.Warnings[0].Type)
}

func TestValidateModelFitReport_RejectsOutOfRangeR2(t *testing.T) {
	res := validate.ValidateModelFitReport(map[string]interface{}{
		"metrics": map[string]interface{}{"r2": 1.5},
	})
	require.False(t, res.Valid)
}

func TestValidateCollinearityReport_FlagsHighAndCriticalVIF(t *testing.T) {
	res := validate.ValidateCollinearityReport(map[string]interface{}{"max_vif": 25.0})
	require.True(t, res.Valid)
	codes := map[string]bool{}
	for _, w := range res.Warnings {
		codes[w.Type] = true
	}
	require.True(t, codes["HIGH_MULTICOLLINEARITY"])
	require.True(t, codes["CRITICAL_MULTICOLLINEARITY"])
}

func TestValidateCollinearityReport_NoWarningBelowThreshold(t *testing.T) {
	res := validate.ValidateCollinearityReport(map[string]interface{}{"max_vif": 3.0})
	require.True(t, res.Valid)
	require.Empty(t, res.Warnings)
}

func TestValidateLeakageReport_WarnsOnNonEmptyTargetPairs(t *testing.T) {
	res := validate.ValidateLeakageReport(map[string]interface{}{
		"flagged_target_pairs": []interface{}{"col_a"},
	})
	require.True(t, res.Valid)
	require.Len(t, res.Warnings, 1)
	require.Equal(t, "DATA_LEAKAGE_POSSIBLE", res.Warnings[0].Type)
}

func TestValidateCorrelationAnalysis_FlagsNearPerfectCorrelationAsLeakage(t *testing.T) {
	res := validate.ValidateCorrelationAnalysis(map[string]interface{}{
		"strong_correlations": []interface{}{
			map[string]interface{}{"pearson": 0.999, "spearman": 0.99},
		},
	})
	require.True(t, res.Valid)
	require.Len(t, res.Warnings, 1)
}

func TestValidateCorrelationAnalysis_RejectsOutOfRangeMatrixCell(t *testing.T) {
	res := validate.ValidateCorrelationAnalysis(map[string]interface{}{
		"pearson_matrix": map[string]interface{}{
			"a": map[string]interface{}{"b": 1.5},
		},
	})
	require.False(t, res.Valid)
}

func TestValidateImportanceReport_RejectsInvertedConfidenceInterval(t *testing.T) {
	res := validate.ValidateImportanceReport(map[string]interface{}{
		"features": []interface{}{
			map[string]interface{}{"importance": 10.0, "ci_low": 9.0, "ci_high": 2.0},
		},
	})
	require.False(t, res.Valid)
}

func TestValidateRegressionCoefficientsReport_RequiresAllFieldsNumeric(t *testing.T) {
	res := validate.ValidateRegressionCoefficientsReport(map[string]interface{}{
		"features": []interface{}{
			map[string]interface{}{"beta": 1.0, "standard_error": 0.1, "p_value": 0.01, "ci_low": 0.5, "ci_high": 1.5},
		},
	})
	require.True(t, res.Valid)
}

func TestValidateCorrelationCI_RejectsTooSmallSampleSize(t *testing.T) {
	res := validate.ValidateCorrelationCI(map[string]interface{}{
		"pairs": []interface{}{
			map[string]interface{}{"pearson": 0.5, "ci_low": 0.1, "ci_high": 0.9, "n": 2},
		},
	})
	require.False(t, res.Valid)
}

func TestValidateRegressionInsights_RequiresConfidenceMeaning(t *testing.T) {
	res := validate.ValidateRegressionInsights(map[string]interface{}{
		"confidence": 80.0,
	})
	require.False(t, res.Valid)
	require.Equal(t, "CONFIDENCE_MEANING_MISSING", res.Errors[0].Type)
}

func TestValidateEnhancedAnalytics_RejectsSectionNotReportingSuccess(t *testing.T) {
	res := validate.ValidateEnhancedAnalytics(map[string]interface{}{
		"correlation_analysis": map[string]interface{}{"valid": false, "status": "error"},
	})
	require.False(t, res.Valid)
}

func TestValidate_UnknownArtifactNamePassesStructurally(t *testing.T) {
	res := validate.Validate(models.ArtifactName("unknown_thing"), map[string]interface{}{"x": 1})
	require.True(t, res.Valid)
}

func TestValidate_DispatchesByArtifactName(t *testing.T) {
	res := validate.Validate("baseline_metrics", map[string]interface{}{"accuracy": 0.9})
	require.True(t, res.Valid)
}

func TestValidateAll_CombinesFailuresIntoOneError(t *testing.T) {
	results, err := validate.ValidateAll(map[models.ArtifactName]map[string]interface{}{
		"profile":          {},
		"baseline_metrics": {"accuracy": 0.9},
	})
	require.Error(t, err)
	require.False(t, results["profile"].Valid)
	require.True(t, results["baseline_metrics"].Valid)
}
