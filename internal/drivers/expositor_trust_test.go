package drivers_test

import (
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/runforge/arc/common/logger"
	"github.com/runforge/arc/internal/drivers"
)

func TestExpositorDriver_WritesReportDocAndFile(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Write("run-1", "profile", map[string]interface{}{
		"row_count": 5, "column_count": 2,
	}))
	require.NoError(t, s.Write("run-1", "validation_report", map[string]interface{}{
		"can_proceed": true, "data_quality_score": 0.9,
	}))

	result := drivers.NewExpositorDriver(s, logger.NoOpLogFactory).
		Run(context.Background(), "run-1", "", nil)
	require.True(t, result.Success)

	exists, err := s.Exists("run-1", "final_report_pending")
	require.NoError(t, err)
	require.True(t, exists)

	rc, err := s.ReadFile("run-1", "final_report_pending.md")
	require.NoError(t, err)
	defer rc.Close()
	content, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.Contains(t, string(content), "Analysis Report")

	exists, err = s.Exists("run-1", "enhanced_analytics_pending")
	require.NoError(t, err)
	require.True(t, exists)
}

func TestTrustEvaluationDriver_DerivesConfidenceFromQualityScore(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Write("run-1", "validation_report", map[string]interface{}{
		"data_quality_score": 0.95,
	}))

	result := drivers.NewTrustEvaluationDriver(s, logger.NoOpLogFactory).
		Run(context.Background(), "run-1", "", nil)
	require.True(t, result.Success)

	var trust map[string]interface{}
	ok, err := s.ReadInto("run-1", "trust_object_pending", &trust)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "high", trust["confidence"])
}
