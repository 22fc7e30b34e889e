package drivers_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/runforge/arc/common/logger"
	"github.com/runforge/arc/internal/drivers"
	"github.com/runforge/arc/internal/models"
)

func TestValidatorDriver_FlagsMissingTargetColumn(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Write("run-1", "profile", map[string]interface{}{
		"row_count": 10, "column_count": 2,
	}))

	result := drivers.NewValidatorDriver(s, logger.NoOpLogFactory).
		Run(context.Background(), "run-1", "", models.RunConfig{"target_column": "revenue"})
	require.True(t, result.Success)

	var report map[string]interface{}
	ok, err := s.ReadInto("run-1", "validation_report", &report)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, true, report["missing_target"])
}

func TestRegressionDriver_NoNumericTargetReportsEligibilitySkip(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Write("run-1", "profile", map[string]interface{}{
		"column_types": map[string]string{"segment": "categorical"},
	}))

	result := drivers.NewRegressionDriver(s, logger.NoOpLogFactory).
		Run(context.Background(), "run-1", "", models.RunConfig{"target_column": "segment"})
	require.True(t, result.Success)
	require.NotNil(t, result.Eligibility)
	require.Equal(t, "skipped", result.Eligibility.Status)

	exists, err := s.Exists("run-1", "model_fit_pending")
	require.NoError(t, err)
	require.False(t, exists)
}

func TestRegressionDriver_WritesFullBundleAndFlagsLeakage(t *testing.T) {
	s := newTestStore(t)
	path := writeCSV(t, "revenue,leak,noise\n1,1,5\n2,2,1\n3,3,9\n4,4,2\n5,5,8\n")

	require.True(t, drivers.NewIngestionDriver(s, logger.NoOpLogFactory).
		Run(context.Background(), "run-1", path, nil).Success)
	require.True(t, drivers.NewScannerDriver(s, logger.NoOpLogFactory).
		Run(context.Background(), "run-1", "", nil).Success)

	var profile map[string]interface{}
	_, err := s.ReadInto("run-1", "profile_pending", &profile)
	require.NoError(t, err)
	require.NoError(t, s.Write("run-1", "profile", profile))

	result := drivers.NewRegressionDriver(s, logger.NoOpLogFactory).
		Run(context.Background(), "run-1", "", models.RunConfig{"target_column": "revenue"})
	require.True(t, result.Success)
	require.Nil(t, result.Eligibility)

	for _, name := range []string{
		"regression_insights_pending", "model_fit_pending", "regression_coefficients_pending",
		"importance_report_pending", "collinearity_report_pending", "leakage_report_pending",
		"feature_governance_report_pending", "baseline_metrics_pending",
	} {
		exists, err := s.Exists("run-1", name)
		require.NoError(t, err)
		require.True(t, exists, "expected %s to be written", name)
	}

	var leakage map[string]interface{}
	_, err = s.ReadInto("run-1", "leakage_report_pending", &leakage)
	require.NoError(t, err)
	pairs := leakage["flagged_target_pairs"].([]interface{})
	require.NotEmpty(t, pairs, "leak column perfectly correlated with target should be flagged")
}
