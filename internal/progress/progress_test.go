package progress_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/runforge/arc/internal/models"
	"github.com/runforge/arc/internal/progress"
)

func TestCompute_HalfwayThroughPipeline(t *testing.T) {
	order := []models.StepName{"ingestion", "scanner", "validator", "expositor"}
	statuses := map[models.StepName]models.StepStatus{
		"ingestion": models.StepStatusCompleted,
		"scanner":   models.StepStatusCompleted,
		"validator": models.StepStatusRunning,
		"expositor": models.StepStatusPending,
	}

	p := progress.Compute(order, statuses)
	require.Equal(t, 50, p.Percent)
	require.Equal(t, "validator", p.CurrentStep)
	require.Equal(t, "expositor", p.NextStep)
	require.Equal(t, []string{"ingestion", "scanner"}, p.StepsCompleted)
	require.Empty(t, p.FailedSteps)
}

func TestCompute_AllStepsDone(t *testing.T) {
	order := []models.StepName{"ingestion", "expositor"}
	statuses := map[models.StepName]models.StepStatus{
		"ingestion": models.StepStatusCompleted,
		"expositor": models.StepStatusCompleted,
	}

	p := progress.Compute(order, statuses)
	require.Equal(t, 100, p.Percent)
	require.Equal(t, "complete", p.CurrentStep)
	require.Equal(t, "complete", p.NextStep)
}

func TestCompute_SkippedStepsCountTowardCompletion(t *testing.T) {
	order := []models.StepName{"ingestion", "regression", "expositor"}
	statuses := map[models.StepName]models.StepStatus{
		"ingestion":  models.StepStatusCompleted,
		"regression": models.StepStatusSkipped,
		"expositor":  models.StepStatusRunning,
	}

	p := progress.Compute(order, statuses)
	require.Equal(t, 66, p.Percent)
	require.Contains(t, p.StepsCompleted, "regression")
}

func TestCompute_FailedStepsAreTrackedSeparately(t *testing.T) {
	order := []models.StepName{"ingestion", "personas", "expositor"}
	statuses := map[models.StepName]models.StepStatus{
		"ingestion": models.StepStatusCompleted,
		"personas":  models.StepStatusFailed,
		"expositor": models.StepStatusRunning,
	}

	p := progress.Compute(order, statuses)
	require.Equal(t, []string{"personas"}, p.FailedSteps)
	require.Equal(t, "expositor", p.CurrentStep)
}
