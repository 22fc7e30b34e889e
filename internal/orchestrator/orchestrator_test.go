package orchestrator

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/runforge/arc/common/logger"
	"github.com/runforge/arc/internal/drivers"
	"github.com/runforge/arc/internal/manifest"
	"github.com/runforge/arc/internal/models"
	"github.com/runforge/arc/internal/registry"
	"github.com/runforge/arc/internal/report"
	"github.com/runforge/arc/internal/store"
)

// fakeHeartbeater stands in for the Job Queue's Heartbeat method, so these
// tests don't need a real queue backend.
type fakeHeartbeater struct {
	count int
}

func (h *fakeHeartbeater) Heartbeat(ctx context.Context, runID models.RunID) error {
	h.count++
	return nil
}

func newTestOrchestrator(t *testing.T) (*Orchestrator, *store.Store, *manifest.Service) {
	t.Helper()
	s, err := store.New(t.TempDir(), logger.NewNoOpLog())
	require.NoError(t, err)

	reg, err := registry.Load()
	require.NoError(t, err)

	m := manifest.NewService(s, logger.NoOpLogFactory)
	dispatcher := drivers.NewDefault(s, logger.NoOpLogFactory)
	enforcer := report.NewEnforcer(s, logger.NoOpLogFactory).WithMaxWait(2 * time.Second)

	o := New(s, m, &fakeHeartbeater{}, reg, dispatcher, enforcer, logger.NoOpLogFactory, nil)
	return o, s, m
}

func writeCSV(t *testing.T, rows ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "dataset.csv")
	content := "a,b,c\n"
	for _, r := range rows {
		content += r + "\n"
	}
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestRun_HappyPathReachesComplete(t *testing.T) {
	o, _, m := newTestOrchestrator(t)
	filePath := writeCSV(t, "1,2,3", "4,5,6", "7,8,9", "10,11,12")

	status, err := o.Run(context.Background(), "run-happy-0001", filePath, nil)
	require.NoError(t, err)
	require.Contains(t, []models.RunStatus{models.RunStatusComplete, models.RunStatusCompleteWithErrors}, status)

	man, err := m.Get("run-happy-0001")
	require.NoError(t, err)
	require.NotNil(t, man)

	var finalState State
	ok, err := o.loadState("run-happy-0001")
	_ = ok
	_ = err
	ok2, err2 := o.store.ReadInto("run-happy-0001", stateArtifact, &finalState)
	require.NoError(t, err2)
	require.True(t, ok2)
	require.Equal(t, status, finalState.Status)
	require.Empty(t, finalState.CurrentStep, "current_step should be cleared once past the last step")
}

func TestRun_CriticalIngestionFailureStopsRunAndFailsIt(t *testing.T) {
	o, _, _ := newTestOrchestrator(t)
	orig := RetryBackoff
	RetryBackoff = time.Millisecond
	defer func() { RetryBackoff = orig }()

	status, err := o.Run(context.Background(), "run-crit-0001", "/no/such/file.csv", nil)
	require.NoError(t, err)
	require.Equal(t, models.RunStatusFailed, status)

	var s State
	ok, err := o.store.ReadInto("run-crit-0001", stateArtifact, &s)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "critical step failure", s.FailureReason)
	require.Contains(t, s.FailedSteps, models.StepName("ingestion"))
}

func TestRun_ResumeAfterCrashFinishesFromPersistedState(t *testing.T) {
	o, s, _ := newTestOrchestrator(t)
	filePath := writeCSV(t, "1,2,3", "4,5,6", "7,8,9")

	ctx, cancel := context.WithCancel(context.Background())
	cancel() // context already done: Run must persist initial state and bail before any step executes
	status, err := o.Run(ctx, "run-resume-0001", filePath, nil)
	require.Error(t, err)
	require.Equal(t, models.RunStatus(""), status)

	var mid State
	ok, err := s.ReadInto("run-resume-0001", stateArtifact, &mid)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, models.RunStatusRunning, mid.Status)
	require.Empty(t, mid.StepsCompleted)

	status, err = o.Run(context.Background(), "run-resume-0001", filePath, nil)
	require.NoError(t, err)
	require.Contains(t, []models.RunStatus{models.RunStatusComplete, models.RunStatusCompleteWithErrors}, status)
}

func TestRun_IsIdempotentOnceTerminal(t *testing.T) {
	o, _, _ := newTestOrchestrator(t)
	filePath := writeCSV(t, "1,2,3", "4,5,6")

	first, err := o.Run(context.Background(), "run-idem-0001", filePath, nil)
	require.NoError(t, err)

	second, err := o.Run(context.Background(), "run-idem-0001", filePath, nil)
	require.NoError(t, err)
	require.Equal(t, first, second)
}

func TestRun_RegressionSkippedWithoutTargetColumnStillCompletes(t *testing.T) {
	o, s, _ := newTestOrchestrator(t)
	filePath := writeCSV(t, "1,2,3", "4,5,6", "7,8,9")

	status, err := o.Run(context.Background(), "run-noreg-0001", filePath, nil)
	require.NoError(t, err)
	require.Contains(t, []models.RunStatus{models.RunStatusComplete, models.RunStatusCompleteWithErrors}, status)

	var finalState State
	ok, err := s.ReadInto("run-noreg-0001", stateArtifact, &finalState)
	require.NoError(t, err)
	require.True(t, ok)
	regStep := finalState.Steps["regression"]
	require.NotNil(t, regStep)
	require.Equal(t, models.StepStatusSkipped, regStep.Status)
}

func TestPromoteRegressionBundle_InvalidMemberWithholdsInsightsAndReconcilesStatus(t *testing.T) {
	o, s, m := newTestOrchestrator(t)
	runID := models.RunID("run-badimportance-0001")

	require.NoError(t, m.Initialize(string(runID), &models.DatasetFingerprint{Hash: "x"}))
	require.NoError(t, s.Write(string(runID), "regression_insights_pending", map[string]interface{}{"metrics": map[string]interface{}{"r2": 0.8}}))
	require.NoError(t, s.Write(string(runID), "importance_report_pending", map[string]interface{}{
		"features": []interface{}{map[string]interface{}{"name": "x1", "importance": 120.0}},
	}))

	require.NoError(t, o.promoteRegressionBundle(runID, true))

	exists, err := s.Exists(string(runID), "regression_insights")
	require.NoError(t, err)
	require.False(t, exists, "scenario 6: the headline artifact must not be promoted when a bundle member fails validation")

	pendingGone, err := s.Exists(string(runID), "regression_insights_pending")
	require.NoError(t, err)
	require.False(t, pendingGone, "pending variant must not survive a terminal run (spec.md §8 invariant 3)")

	names := o.registry.Names()
	st := newState(runID, names)
	st.stepOrDefault("regression").Status = models.StepStatusCompleted

	require.NoError(t, s.WriteFile(string(runID), "final_report.md", stringReader("# report\n")))
	require.NoError(t, s.Write(string(runID), "final_report", map[string]interface{}{"content": "# report\n", "format": "markdown"}))

	status, err := o.finalize(context.Background(), st, false)
	require.NoError(t, err)
	require.Equal(t, "failed", st.RegressionStatus, "regression_status must reconcile to failed (spec.md §8 invariant 5, scenario 6)")
	require.Contains(t, st.FailedSteps, models.StepName("regression"))
	require.Equal(t, models.RunStatusCompleteWithErrors, status)
}

func TestFinalize_StatusMismatchFailsRunWithErrCode(t *testing.T) {
	o, s, _ := newTestOrchestrator(t)
	runID := models.RunID("run-mismatch-0001")

	names := o.registry.Names()
	st := newState(runID, names)
	st.stepOrDefault("regression").Status = models.StepStatusFailed
	require.NoError(t, o.saveState(st))
	// A regression_insights artifact present despite a failed regression step
	// is the exact coherence violation finalize must catch.
	require.NoError(t, s.Write(string(runID), "regression_insights", map[string]interface{}{"metrics": map[string]interface{}{"r2": 0.9}}))

	status, err := o.finalize(context.Background(), st, false)
	require.NoError(t, err)
	require.Equal(t, models.RunStatusFailed, status)
	require.Equal(t, "regression status/artifact mismatch", st.FailureReason)
}

func TestFinalize_ReportEnforcerRejectsWhenNoReportAppears(t *testing.T) {
	o, _, _ := newTestOrchestrator(t)
	o.enforcer = report.NewEnforcer(o.store, logger.NoOpLogFactory).WithMaxWait(20 * time.Millisecond)

	runID := models.RunID("run-noreport-0001")
	st := newState(runID, o.registry.Names())
	require.NoError(t, o.saveState(st))

	status, err := o.finalize(context.Background(), st, false)
	require.NoError(t, err)
	require.Equal(t, models.RunStatusFailed, status)
	require.Equal(t, "report enforcer rejected completion", st.FailureReason)
}

func TestFinalize_CriticalFailureShortCircuitsOtherChecks(t *testing.T) {
	o, _, _ := newTestOrchestrator(t)
	runID := models.RunID("run-critshort-0001")
	st := newState(runID, o.registry.Names())
	require.NoError(t, o.saveState(st))

	status, err := o.finalize(context.Background(), st, true)
	require.NoError(t, err)
	require.Equal(t, models.RunStatusFailed, status)
	require.Equal(t, "critical step failure", st.FailureReason)
}

func TestInvokeWithRetries_RetriesUpToMaxAttemptsThenGivesUp(t *testing.T) {
	o, _, _ := newTestOrchestrator(t)
	orig := RetryBackoff
	RetryBackoff = time.Millisecond
	defer func() { RetryBackoff = orig }()

	failing := &failingDriver{}
	o.dispatcher = map[models.StepName]drivers.Driver{"ingestion": failing}

	def := registry.StepDefinition{Name: "ingestion", Critical: true, TimeBudgetSeconds: 5}
	result, attempts, _ := o.invokeWithRetries(context.Background(), def, "run-retry-0001", "", nil, 0)
	require.False(t, result.Success)
	require.Equal(t, MaxStepAttempts, attempts)
	require.Equal(t, MaxStepAttempts, failing.calls)
}

type failingDriver struct{ calls int }

func (f *failingDriver) Run(ctx context.Context, runID models.RunID, filePath string, runConfig models.RunConfig) models.DriverResult {
	f.calls++
	return models.DriverResult{Success: false, StderrTail: fmt.Sprintf("attempt failed for %s", runID)}
}
