package orchestrator

import (
	"fmt"

	"github.com/runforge/arc/internal/models"
	"github.com/runforge/arc/internal/validate"
)

// promoteSimple implements the generic artifact promotion policy (spec.md
// §4.7, "Artifact promotion policy"): run the matching validator over the
// pending document; on success copy to the promoted name and delete the
// pending one, recording the artifact in the manifest. Returns whether
// anything was promoted, so callers can distinguish "no pending data" from
// "pending data rejected by validation" for their own degradation logic.
func (o *Orchestrator) promoteSimple(runID models.RunID, name models.ArtifactName, producedBy models.StepName) (promoted bool, err error) {
	var doc map[string]interface{}
	ok, err := o.store.ReadInto(string(runID), string(name)+"_pending", &doc)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}

	result := validate.Validate(name, doc)
	if !result.Valid {
		o.log.WithField("run_id", runID).WithField("artifact", name).
			Warnf("pending artifact failed validation: %d error(s)", len(result.Errors))
		o.store.Delete(string(runID), string(name)+"_pending")
		return false, nil
	}

	if err := o.store.Write(string(runID), string(name), doc); err != nil {
		return false, err
	}
	o.store.Delete(string(runID), string(name)+"_pending")

	size := estimateSize(doc)
	if err := o.manifest.RecordArtifact(string(runID), name, models.ArtifactMetadata{
		ProducedByStep: producedBy, SizeBytes: size, SchemaVersion: 1,
	}); err != nil {
		o.log.WithField("run_id", runID).Warnf("error recording artifact %s in manifest: %v", name, err)
	}
	return true, nil
}

// promoteRegressionBundle is a faithful port of original_source's
// `_finalize_regression_artifacts`: graceful degradation when the
// regression step decided internally to skip (no pending data at all) is
// not an error — it writes `{status: skipped, reason}` under the bundle's
// headline name and continues. Each bundle member promotes independently;
// a missing member is logged, not fatal.
func (o *Orchestrator) promoteRegressionBundle(runID models.RunID, success bool) error {
	if !success {
		for _, name := range append([]models.ArtifactName{"regression_insights"}, models.RegressionBundle...) {
			o.store.Delete(string(runID), string(name)+"_pending")
		}
		return nil
	}

	hasPending, err := o.store.Exists(string(runID), "regression_insights_pending")
	if err != nil {
		return err
	}
	if !hasPending {
		alreadyDone, err := o.store.Exists(string(runID), "regression_insights")
		if err != nil {
			return err
		}
		if alreadyDone {
			return nil
		}
		return o.store.Write(string(runID), "regression_insights", map[string]interface{}{
			"status": "skipped", "reason": "no pending artifacts",
		})
	}

	var missing []string
	var invalidMember string
	for _, name := range models.RegressionBundle {
		hasPendingMember, err := o.store.Exists(string(runID), string(name)+"_pending")
		if err != nil {
			return err
		}
		if !hasPendingMember {
			missing = append(missing, string(name))
			continue
		}
		promoted, err := o.promoteSimple(runID, name, "regression")
		if err != nil {
			return err
		}
		if !promoted && invalidMember == "" {
			invalidMember = string(name)
		}
	}
	if len(missing) > 0 {
		o.log.WithField("run_id", runID).Warnf("regression bundle missing artifacts: %v", missing)
	}

	if invalidMember != "" {
		// spec.md §8 scenario 6: a required bundle member rejected by its
		// validator makes the whole bundle untrustworthy, so the headline
		// artifact is withheld rather than promoted — checkRegressionStatusCoherence
		// then reconciles regression_status down to "failed" from its absence.
		o.store.Delete(string(runID), "regression_insights_pending")
		o.log.WithField("run_id", runID).Warnf("regression bundle member %q failed validation, withholding regression_insights", invalidMember)
		o.manifest.AddWarning(string(runID), models.Warning{
			Code:    "REGRESSION_BUNDLE_INVALID",
			Message: fmt.Sprintf("regression bundle member %q failed validation; regression_insights not promoted", invalidMember),
			Path:    invalidMember,
		})
		return nil
	}

	_, err = o.promoteSimple(runID, "regression_insights", "regression")
	return err
}

// promoteExpositor is a faithful port of original_source's
// `_finalize_expositor_artifacts`'s four-case fallback: prefer whatever the
// driver already wrote, recover a promoted report left on disk, and only
// as a last resort synthesize a minimal report — the run must never reach
// a terminal success status with no report at all (spec.md §4.9).
func (o *Orchestrator) promoteExpositor(runID models.RunID, success bool) error {
	if !success {
		o.store.Delete(string(runID), "final_report_pending")
		o.store.Delete(string(runID), "enhanced_analytics_pending")
		return nil
	}

	promoteAnalytics := func() {
		if _, err := o.promoteSimple(runID, "enhanced_analytics", "expositor"); err != nil {
			o.log.WithField("run_id", runID).Warnf("error promoting enhanced_analytics: %v", err)
		}
	}

	// Case 1: report already finalized directly by the driver.
	reportExists, _ := o.store.Exists(string(runID), "final_report")
	if reportExists && o.store.FileExistsAndNonEmpty(string(runID), "final_report.md") {
		o.store.Delete(string(runID), "final_report_pending")
		promoteAnalytics()
		return nil
	}

	// Case 2: pending report exists — promote document and file together.
	hasPendingDoc, _ := o.store.Exists(string(runID), "final_report_pending")
	hasPendingFile := o.store.FileExistsAndNonEmpty(string(runID), "final_report_pending.md")
	if hasPendingDoc && hasPendingFile {
		if err := o.promotePendingReportFile(runID); err != nil {
			return err
		}
		if _, err := o.promoteSimple(runID, "final_report", "expositor"); err != nil {
			return err
		}
		promoteAnalytics()
		return nil
	}

	// Case 3: no pending, but a final report file already sits on disk
	// (written directly, outside the pending/promote lifecycle).
	if o.store.FileExistsAndNonEmpty(string(runID), "final_report.md") {
		rc, err := o.store.ReadFile(string(runID), "final_report.md")
		if err == nil {
			defer rc.Close()
			content := readAllString(rc)
			if content != "" {
				if err := o.store.Write(string(runID), "final_report", map[string]interface{}{
					"content": content, "format": "markdown",
				}); err == nil {
					promoteAnalytics()
					return nil
				}
			}
		}
	}

	// Case 4: synthesize a minimal report as the last resort.
	o.log.WithField("run_id", runID).Warn("no report artifacts found, synthesizing minimal report")
	content := o.synthesizeMinimalReport(runID)
	if err := o.store.WriteFile(string(runID), "final_report.md", stringReader(content)); err != nil {
		return err
	}
	if err := o.store.Write(string(runID), "final_report", map[string]interface{}{
		"content": content, "format": "markdown",
	}); err != nil {
		return err
	}
	promoteAnalytics()
	return nil
}

// promoteTrust promotes the trust object if it validated, but leaves it
// absent on failure rather than failing the run (spec.md §4.7, "Trust
// object: promote if validated; otherwise leave absent and continue").
func (o *Orchestrator) promoteTrust(runID models.RunID, success bool) error {
	if !success {
		o.store.Delete(string(runID), "trust_object_pending")
		return nil
	}
	promoted, err := o.promoteSimple(runID, "trust_object", "trust_evaluation")
	if err != nil || !promoted {
		return err
	}
	var trust models.Trust
	if _, err := o.store.ReadInto(string(runID), "trust_object", &trust); err == nil {
		o.manifest.UpdateTrust(string(runID), trust)
	}
	return nil
}

// checkRegressionStatusCoherence is a direct port of original_source's
// `_sync_regression_status`: a single regression_status derived purely
// from the regression step's terminal status, checked against the
// promoted artifact's existence (spec.md §4.7, "Status coherence").
//
// spec.md §8 invariant 5 is bidirectional ("regression_status == success
// ⇔ regression_insights exists"), so a step that completed successfully
// but whose bundle was withheld by promoteRegressionBundle (a required
// member failed validation — scenario 6) reconciles down to "failed"
// here rather than tripping ERR_STATUS_MISMATCH; that error code is
// reserved for the other, genuinely incoherent direction: an artifact
// present under a non-success status.
func (o *Orchestrator) checkRegressionStatusCoherence(s *State) error {
	status := regressionStatusFor(s.stepOrDefault("regression").Status)

	hasArtifact, err := o.store.Exists(string(s.RunID), "regression_insights")
	if err != nil {
		return err
	}

	if status == "success" && !hasArtifact {
		status = "failed"
		s.appendUnique(&s.FailedSteps, "regression")
	}
	s.RegressionStatus = status

	if status != "success" && hasArtifact {
		return fmt.Errorf("ERR_STATUS_MISMATCH: regression_status=%s but regression_insights is present", status)
	}
	return nil
}

func regressionStatusFor(stepStatus models.StepStatus) string {
	switch stepStatus {
	case models.StepStatusCompleted:
		return "success"
	case models.StepStatusRunning:
		return "running"
	case models.StepStatusFailed, models.StepStatusSkipped, models.StepStatusNotApplicable:
		return "failed"
	default:
		return "not_started"
	}
}

// estimateSize is a rough byte-size estimate for manifest bookkeeping; the
// Artifact Store itself is the source of truth for on-disk size.
func estimateSize(doc map[string]interface{}) int64 {
	total := int64(0)
	for k, v := range doc {
		total += int64(len(k)) + int64(len(fmt.Sprintf("%v", v)))
	}
	return total
}
