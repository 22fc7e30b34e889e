package drivers_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/runforge/arc/common/logger"
	"github.com/runforge/arc/internal/drivers"
	"github.com/runforge/arc/internal/models"
)

func TestScannerDriver_ProfilesNumericAndCategoricalColumns(t *testing.T) {
	s := newTestStore(t)
	path := writeCSV(t, "revenue,segment\n100,a\n200,b\n,c\n")

	require.True(t, drivers.NewIngestionDriver(s, logger.NoOpLogFactory).
		Run(context.Background(), "run-1", path, nil).Success)

	result := drivers.NewScannerDriver(s, logger.NoOpLogFactory).
		Run(context.Background(), "run-1", "", nil)
	require.True(t, result.Success)

	var profile map[string]interface{}
	ok, err := s.ReadInto("run-1", "profile_pending", &profile)
	require.NoError(t, err)
	require.True(t, ok)

	columnTypes := profile["column_types"].(map[string]interface{})
	require.Equal(t, "numeric", columnTypes["revenue"])
	require.Equal(t, "categorical", columnTypes["segment"])
}

func TestTypeIdentifierDriver_DetectsDatetimeAndTargetColumn(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Write("run-1", "profile", map[string]interface{}{
		"row_count": 3, "column_count": 2,
		"columns":      []string{"event_date", "revenue"},
		"column_types": map[string]string{"event_date": "categorical", "revenue": "numeric"},
	}))

	result := drivers.NewTypeIdentifierDriver(s, logger.NoOpLogFactory).
		Run(context.Background(), "run-1", "", models.RunConfig{"target_column": "revenue"})
	require.True(t, result.Success)

	var classification models.Classification
	ok, err := s.ReadInto("run-1", "classification_pending", &classification)
	require.NoError(t, err)
	require.True(t, ok)
	require.True(t, classification.HasDatetimeColumn)
	require.Equal(t, "revenue", classification.TargetColumn)
}

func TestTypeIdentifierDriver_NoProfileSkipsWithEligibilityHint(t *testing.T) {
	s := newTestStore(t)
	result := drivers.NewTypeIdentifierDriver(s, logger.NoOpLogFactory).
		Run(context.Background(), "run-1", "", nil)
	require.True(t, result.Success)
	require.NotNil(t, result.Eligibility)
	require.Equal(t, "skipped", result.Eligibility.Status)
}
