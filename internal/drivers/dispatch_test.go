package drivers_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/runforge/arc/common/logger"
	"github.com/runforge/arc/internal/drivers"
	"github.com/runforge/arc/internal/models"
)

func TestNewDefault_RegistersOneDriverPerPipelineStep(t *testing.T) {
	s := newTestStore(t)
	dispatcher := drivers.NewDefault(s, logger.NoOpLogFactory)

	for _, name := range []models.StepName{
		"ingestion", "scanner", "type_identifier", "validator", "interpreter",
		"clustering", "regression", "time_series", "anomalies", "personas",
		"expositor", "trust_evaluation",
	} {
		driver, ok := dispatcher.For(name)
		require.True(t, ok, "missing driver for step %q", name)
		require.NotNil(t, driver)
	}

	_, ok := dispatcher.For("not_a_real_step")
	require.False(t, ok)
}

func TestNarrativeShimDrivers_WriteTheirArtifacts(t *testing.T) {
	s := newTestStore(t)
	dispatcher := drivers.NewDefault(s, logger.NoOpLogFactory)

	cases := map[models.StepName]string{
		"interpreter": "schema_interpretation",
		"clustering":  "clustering_result",
		"time_series": "time_series_result",
		"anomalies":   "anomaly_report",
		"personas":    "persona_report",
	}
	for step, artifact := range cases {
		driver, ok := dispatcher.For(step)
		require.True(t, ok)

		result := driver.Run(context.Background(), "run-1", "", nil)
		require.True(t, result.Success)

		exists, err := s.Exists("run-1", artifact)
		require.NoError(t, err)
		require.True(t, exists, "step %q should have written %q", step, artifact)
	}
}
