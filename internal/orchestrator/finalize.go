package orchestrator

import (
	"context"

	"github.com/runforge/arc/internal/models"
)

// finalize applies spec.md §4.7's "Special late-stage checks" and
// "Terminal decision" tables: the regression/expositor coherence and
// report-existence gates run before any terminal status is assigned, and
// the run-health/invariants artifacts are only built on a path that ends
// in success.
func (o *Orchestrator) finalize(ctx context.Context, s *State, criticalFailure bool) (models.RunStatus, error) {
	runID := s.RunID

	if criticalFailure {
		return o.terminalize(s, models.RunStatusFailed, "critical step failure")
	}

	if err := o.checkRegressionStatusCoherence(s); err != nil {
		o.log.WithField("run_id", runID).Errorf("status coherence violation: %v", err)
		o.manifest.AddWarning(string(runID), models.Warning{Code: "ERR_STATUS_MISMATCH", Message: err.Error()})
		return o.terminalize(s, models.RunStatusFailed, "regression status/artifact mismatch")
	}

	if !o.enforcer.Enforce(ctx, runID) {
		o.manifest.AddWarning(string(runID), models.Warning{
			Code: "ERR_REPORT_MISSING", Message: "no final report found before max_wait elapsed",
		})
		return o.terminalize(s, models.RunStatusFailed, "report enforcer rejected completion")
	}

	hasNarrative, _ := o.store.Exists(string(runID), "final_report")
	var status models.RunStatus
	switch {
	case len(s.FailedSteps) == 0:
		status = models.RunStatusComplete
	case hasNarrative:
		status = models.RunStatusCompleteWithErrors
	default:
		status = models.RunStatusFailed
	}

	if status != models.RunStatusFailed {
		o.buildRunHealthSummary(s, status)
		o.buildInvariantsReport(s)
	}

	return o.terminalize(s, status, string(status))
}

// terminalize persists the final state and seals the manifest — sealing is
// best-effort: a seal failure is logged, not propagated, since the run's
// terminal status has already been decided (spec.md §4.2, seal never
// blocks the run's own outcome).
func (o *Orchestrator) terminalize(s *State, status models.RunStatus, reason string) (models.RunStatus, error) {
	s.Status = status
	s.FailureReason = reasonFor(status, reason)
	if err := o.saveState(s); err != nil {
		return "", err
	}
	if err := o.manifest.Seal(string(s.RunID), reason); err != nil {
		o.log.WithField("run_id", s.RunID).Warnf("error sealing manifest: %v", err)
	}
	return status, nil
}

func reasonFor(status models.RunStatus, reason string) string {
	if status == models.RunStatusComplete {
		return ""
	}
	return reason
}

// buildRunHealthSummary and buildInvariantsReport supplement the distilled
// spec.md §4.7's "build and persist: a run-health summary, an invariants
// report" directive with concrete, minimal documents — neither is on the
// promotion list (spec.md §4.7's promotable set), so they are written
// directly rather than through the pending/promote lifecycle.
func (o *Orchestrator) buildRunHealthSummary(s *State, status models.RunStatus) {
	summary := map[string]interface{}{
		"status":          status,
		"percent":         s.Progress.Percent,
		"steps_completed": s.StepsCompleted,
		"failed_steps":    s.FailedSteps,
		"regression_status": s.RegressionStatus,
	}
	if err := o.store.Write(string(s.RunID), "run_health_summary", summary); err != nil {
		o.log.WithField("run_id", s.RunID).Warnf("error writing run_health_summary: %v", err)
	}
}

func (o *Orchestrator) buildInvariantsReport(s *State) {
	checks := []map[string]interface{}{}
	addCheck := func(name string, ok bool, detail string) {
		checks = append(checks, map[string]interface{}{"name": name, "passed": ok, "detail": detail})
	}

	hasReportDoc, _ := o.store.Exists(string(s.RunID), "final_report")
	hasReportFile := o.store.FileExistsAndNonEmpty(string(s.RunID), "final_report.md")
	addCheck("final_report_present", hasReportDoc && hasReportFile, "final report document and file both exist")

	for _, name := range append([]models.ArtifactName{"regression_insights"}, models.RegressionBundle...) {
		pending, _ := o.store.Exists(string(s.RunID), string(name)+"_pending")
		addCheck("no_dangling_pending_"+string(name), !pending, "no _pending variant survives a terminal run")
	}

	hasRegressionArtifact, _ := o.store.Exists(string(s.RunID), "regression_insights")
	regressionCoherent := (s.RegressionStatus == "success") == hasRegressionArtifact
	addCheck("regression_status_coherent", regressionCoherent, "regression_status matches regression_insights presence")

	report := map[string]interface{}{"checks": checks}
	if err := o.store.Write(string(s.RunID), "invariants_report", report); err != nil {
		o.log.WithField("run_id", s.RunID).Warnf("error writing invariants_report: %v", err)
	}
}
