// Package orchestrator implements the Orchestrator (spec.md §4.7): the
// state machine that drives one run through the ordered step list,
// applying retries, eligibility gating, artifact promotion, and graceful
// degradation. Grounded throughout on original_source/backend/
// orchestrator.py's main loop (`run_pipeline`/`_execute_step`).
package orchestrator

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/runforge/arc/common/logger"
	"github.com/runforge/arc/internal/drivers"
	"github.com/runforge/arc/internal/eligibility"
	"github.com/runforge/arc/internal/models"
	"github.com/runforge/arc/internal/progress"
	"github.com/runforge/arc/internal/registry"
	"github.com/runforge/arc/internal/report"
)

// MaxStepAttempts is spec.md §3's MAX_STEP_ATTEMPTS.
const MaxStepAttempts = 3

// RetryBackoff separates retry attempts (spec.md §4.7 step 4).
var RetryBackoff = 2 * time.Second

// Store is the Artifact Store view the Orchestrator itself depends on,
// beyond the narrower drivers.Store every driver sees.
type Store interface {
	Write(runID, name string, document interface{}) error
	ReadInto(runID, name string, out interface{}) (bool, error)
	Append(runID, name string, record interface{}) error
	Exists(runID, name string) (bool, error)
	Delete(runID, name string) error
	WriteFile(runID, filename string, source io.Reader) error
	ReadFile(runID, filename string) (io.ReadCloser, error)
	FileExistsAndNonEmpty(runID, filename string) bool
	Path(runID, filename string) string
}

// Manifest is the Run Manifest view the Orchestrator depends on.
type Manifest interface {
	Initialize(runID string, fingerprint *models.DatasetFingerprint) error
	UpdateStepStatus(runID string, step models.StepName, status models.StepStatus, message string, at models.Time) error
	RecordArtifact(runID string, name models.ArtifactName, metadata models.ArtifactMetadata) error
	AddWarning(runID string, warning models.Warning) error
	UpdateTrust(runID string, trust models.Trust) error
	Seal(runID string, reason string) error
}

// Heartbeater is the Job Queue view the Orchestrator depends on to emit
// heartbeats during step execution (spec.md §4.10: heartbeats are
// orchestrator-driven, not worker-driven).
type Heartbeater interface {
	Heartbeat(ctx context.Context, runID models.RunID) error
}

// Orchestrator drives one run to a terminal state (spec.md §4.7).
type Orchestrator struct {
	store      Store
	manifest   Manifest
	queue      Heartbeater
	registry   *registry.Registry
	dispatcher drivers.Dispatcher
	enforcer   *report.Enforcer
	log        logger.Log
	signingKey []byte
}

// New wires the Orchestrator's dependencies; signingKey may be nil, in
// which case run_token issuance is skipped (token.go).
func New(
	store Store,
	manifest Manifest,
	queue Heartbeater,
	reg *registry.Registry,
	dispatcher drivers.Dispatcher,
	enforcer *report.Enforcer,
	logFactory logger.LogFactory,
	signingKey []byte,
) *Orchestrator {
	return &Orchestrator{
		store:      store,
		manifest:   manifest,
		queue:      queue,
		registry:   reg,
		dispatcher: dispatcher,
		enforcer:   enforcer,
		log:        logFactory("orchestrator"),
		signingKey: signingKey,
	}
}

func ptrTime(t models.Time) *models.Time { return &t }

func indexOf(names []models.StepName, name models.StepName) int {
	for i, n := range names {
		if n == name {
			return i
		}
	}
	return -1
}

// Run drives runID through the full step sequence to a terminal status
// (spec.md §4.7's main loop). It is safe to call again after a crash: state
// is reloaded from the Artifact Store and steps already in a terminal
// status are never re-run (spec §3 invariant).
func (o *Orchestrator) Run(ctx context.Context, runID models.RunID, filePath string, runConfig models.RunConfig) (models.RunStatus, error) {
	names := o.registry.Names()

	s, existed, err := o.loadState(runID)
	if err != nil {
		return "", err
	}
	if !existed {
		s = newState(runID, names)
		if o.signingKey != nil {
			if tok, err := issueRunToken(o.signingKey, runID); err == nil {
				s.RunToken = tok
			}
		}
		if err := o.saveState(s); err != nil {
			return "", err
		}
	}

	sizeBytes := datasetSizeBytes(filePath)

	startIdx := indexOf(names, s.CurrentStep)
	if startIdx < 0 {
		startIdx = 0
	}

	var criticalFailure bool
	for idx := startIdx; idx < len(names); idx++ {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}

		name := names[idx]
		step := s.stepOrDefault(name)
		if step.Status.Terminal() {
			continue
		}
		def, ok := o.registry.Get(name)
		if !ok {
			continue
		}

		decision := o.decideEligibility(runID, name, def.Kind, runConfig)
		if decision.Status != models.EligibilityEligible {
			o.applyIneligible(s, step, name, decision)
			if err := o.saveState(s); err != nil {
				return "", err
			}
			o.manifest.UpdateStepStatus(string(runID), name, step.Status, decision.Message, models.Now())
			s.CurrentStep = nextName(names, idx)
			continue
		}

		o.heartbeat(ctx, runID)

		s.CurrentStep = name
		step.Status = models.StepStatusRunning
		now := models.Now()
		step.StartedAt = ptrTime(now)
		if err := o.saveState(s); err != nil {
			return "", err
		}
		o.manifest.UpdateStepStatus(string(runID), name, models.StepStatusRunning, "", now)
		o.log.WithField("run_id", runID).WithField("step", name).Info("step started")

		result, attempts, elapsed := o.invokeWithRetries(ctx, *def, runID, filePath, runConfig, sizeBytes)

		completedAt := models.Now()
		step.Attempts = attempts
		step.CompletedAt = ptrTime(completedAt)
		step.RuntimeSeconds = elapsed.Seconds()
		step.SetStdoutTail(result.StdoutTail)
		step.SetStderrTail(result.StderrTail)

		if result.Success {
			step.Status = models.StepStatusCompleted
			step.Message = "completed"
		} else {
			step.Status = models.StepStatusFailed
			step.Message = result.StderrTail
		}
		s.markCompleted(name, result.Success)

		if err := o.promoteForStep(runID, name, result.Success); err != nil {
			o.log.WithField("run_id", runID).WithField("step", name).Warnf("error promoting artifacts: %v", err)
		}

		if name == "ingestion" && result.Success {
			o.initializeManifestFingerprint(runID, filePath)
		}

		s.Progress = progress.Compute(names, s.statuses())
		if err := o.saveState(s); err != nil {
			return "", err
		}
		o.manifest.UpdateStepStatus(string(runID), name, step.Status, step.Message, completedAt)

		if !result.Success {
			if def.Critical {
				o.log.WithField("run_id", runID).WithField("step", name).Error("critical step failed, stopping run")
				o.manifest.AddWarning(string(runID), models.Warning{
					Code: "CRITICAL_STEP_FAILED", Message: fmt.Sprintf("step %q failed: %s", name, result.StderrTail),
				})
				criticalFailure = true
				break
			}
			o.manifest.AddWarning(string(runID), models.Warning{
				Code: "STEP_FAILED", Message: fmt.Sprintf("step %q failed: %s", name, result.StderrTail), Path: string(name),
			})
		}

		s.CurrentStep = nextName(names, idx)
	}

	return o.finalize(ctx, s, criticalFailure)
}

func nextName(names []models.StepName, idx int) models.StepName {
	if idx+1 < len(names) {
		return names[idx+1]
	}
	return ""
}

func (o *Orchestrator) heartbeat(ctx context.Context, runID models.RunID) {
	if o.queue == nil {
		return
	}
	if err := o.queue.Heartbeat(ctx, runID); err != nil {
		o.log.WithField("run_id", runID).Warnf("error sending heartbeat: %v", err)
	}
}

// decideEligibility loads the validation report and classification the
// Eligibility & Guardrails component consults (spec.md §4.7 step 2).
func (o *Orchestrator) decideEligibility(runID models.RunID, name models.StepName, kind registry.Kind, runConfig models.RunConfig) models.EligibilityDecision {
	var validation eligibility.ValidationSummary
	hasValidation, _ := o.store.ReadInto(string(runID), "validation_report", &validation)

	var classification models.Classification
	hasClassification, _ := o.store.ReadInto(string(runID), "classification", &classification)

	var vs *eligibility.ValidationSummary
	if hasValidation {
		vs = &validation
	}
	var cls *models.Classification
	if hasClassification {
		cls = &classification
	}
	return eligibility.Decide(name, kind, vs, cls)
}

// applyIneligible marks a step skipped/not_applicable per the eligibility
// decision and records the reason in state (spec.md §4.7 step 2). The
// scope_constraints artifact is an append-only record of every such
// decision for the run.
func (o *Orchestrator) applyIneligible(s *State, step *models.Step, name models.StepName, decision models.EligibilityDecision) {
	switch decision.Status {
	case models.EligibilityNotApplicable:
		step.Status = models.StepStatusNotApplicable
	default:
		step.Status = models.StepStatusSkipped
	}
	step.EligStatus = string(decision.Status)
	step.ReasonCode = decision.ReasonCode
	step.Message = decision.Message
	s.markCompleted(name, true)
	s.Progress = progress.Compute(o.registry.Names(), s.statuses())

	if err := o.store.Append(string(s.RunID), "scope_constraints", map[string]interface{}{
		"step": name, "status": decision.Status, "reason_code": decision.ReasonCode, "message": decision.Message,
	}); err != nil {
		o.log.WithField("run_id", s.RunID).Warnf("error recording scope constraint: %v", err)
	}
}

// invokeWithRetries invokes the driver up to MaxStepAttempts times,
// separated by RetryBackoff (spec.md §4.7 step 4), bounding each attempt by
// the dataset-derived timeout (§4.6).
func (o *Orchestrator) invokeWithRetries(ctx context.Context, def registry.StepDefinition, runID models.RunID, filePath string, runConfig models.RunConfig, sizeBytes int64) (models.DriverResult, int, time.Duration) {
	timeout := time.Duration(effectiveTimeoutSeconds(def, sizeBytes)) * time.Second
	driver, ok := o.dispatcher.For(def.Name)
	if !ok {
		return models.DriverResult{Success: false, StderrTail: fmt.Sprintf("no driver registered for step %q", def.Name)}, 1, 0
	}

	var (
		result   models.DriverResult
		attempts int
		start    = time.Now()
	)
	for attempts = 1; attempts <= MaxStepAttempts; attempts++ {
		result = o.invokeOnce(ctx, driver, runID, filePath, runConfig, timeout)
		if result.Success {
			break
		}
		if attempts < MaxStepAttempts {
			o.log.WithField("run_id", runID).WithField("step", def.Name).
				Warnf("attempt %d/%d failed: %s; retrying in %s", attempts, MaxStepAttempts, result.StderrTail, RetryBackoff)
			select {
			case <-ctx.Done():
				attempts++
				return result, attempts - 1, time.Since(start)
			case <-time.After(RetryBackoff):
			}
		}
	}
	if attempts > MaxStepAttempts {
		attempts = MaxStepAttempts
	}
	return result, attempts, time.Since(start)
}

// invokeOnce runs one driver attempt, enforcing the per-step timeout by
// racing the driver call against a context deadline (spec.md §4.6: "killed
// by the orchestrator if it exceeds" its budget). Drivers are in-process
// and cooperative: a timed-out call's goroutine is abandoned rather than
// force-killed, matching this module's in-process driver model (spec.md
// §9's "isolation [is] an implementation detail of the driver").
func (o *Orchestrator) invokeOnce(ctx context.Context, driver drivers.Driver, runID models.RunID, filePath string, runConfig models.RunConfig, timeout time.Duration) models.DriverResult {
	stepCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	resultChan := make(chan models.DriverResult, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				resultChan <- models.DriverResult{Success: false, StderrTail: fmt.Sprintf("driver panic: %v", r)}
			}
		}()
		resultChan <- driver.Run(stepCtx, runID, filePath, runConfig)
	}()

	select {
	case result := <-resultChan:
		return result
	case <-stepCtx.Done():
		return models.DriverResult{Success: false, StderrTail: "TIMEOUT: step exceeded its time budget"}
	}
}

// promoteForStep applies the artifact promotion policy (spec.md §4.7) for
// whatever pending artifacts the named step may have written.
func (o *Orchestrator) promoteForStep(runID models.RunID, name models.StepName, success bool) error {
	switch name {
	case "scanner":
		_, err := o.promoteSimple(runID, "profile", name)
		return err
	case "type_identifier":
		_, err := o.promoteSimple(runID, "classification", name)
		return err
	case "regression":
		return o.promoteRegressionBundle(runID, success)
	case "expositor":
		return o.promoteExpositor(runID, success)
	case "trust_evaluation":
		return o.promoteTrust(runID, success)
	default:
		return nil
	}
}

// datasetSizeBytes stats filePath for the dataset-derived timeout formula
// (spec.md §4.6); an unreadable/missing file is treated as size 0, which
// simply yields the base timeout.
func datasetSizeBytes(filePath string) int64 {
	info, err := os.Stat(filePath)
	if err != nil {
		return 0
	}
	return info.Size()
}

// initializeManifestFingerprint computes the dataset fingerprint from the
// just-ingested file and the ingestion step's column/row metadata, then
// initializes the manifest (a no-op if already initialized, spec.md §4.2).
func (o *Orchestrator) initializeManifestFingerprint(runID models.RunID, filePath string) {
	var meta struct {
		RowCount int      `json:"row_count"`
		Columns  []string `json:"columns"`
	}
	o.store.ReadInto(string(runID), "ingestion_meta", &meta)

	fp := fingerprintFile(filePath, meta.Columns, meta.RowCount)
	if fp == nil {
		return
	}
	if err := o.manifest.Initialize(string(runID), fp); err != nil {
		o.log.WithField("run_id", runID).Warnf("error initializing manifest fingerprint: %v", err)
	}
}

// fingerprintFile computes the dataset fingerprint (spec.md §3, "Run
// Manifest": hash of normalized bytes + column list + row count). There is
// no fingerprinting library in the teacher's or pack's go.mod; sha256 over
// the raw bytes is the natural stdlib primitive and needs no third-party
// dependency to justify.
func fingerprintFile(filePath string, columns []string, rowCount int) *models.DatasetFingerprint {
	f, err := os.Open(filePath)
	if err != nil {
		return nil
	}
	defer f.Close()
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return nil
	}
	info, _ := f.Stat()
	var size int64
	if info != nil {
		size = info.Size()
	}
	return &models.DatasetFingerprint{
		Hash:      hex.EncodeToString(h.Sum(nil)),
		Columns:   columns,
		RowCount:  rowCount,
		SizeBytes: size,
	}
}
