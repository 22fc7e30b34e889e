// Package report implements the Report Enforcer (spec.md §4.9): the single
// gate preventing a run from reaching a terminal success status with no
// final report. Grounded on original_source/backend/orchestrator.py's
// POLL_TIME-driven polling loop and its `enforce_report_existence` call
// site ahead of `_record_final_status`.
package report

import (
	"context"
	"time"

	"github.com/runforge/arc/common/logger"
	"github.com/runforge/arc/internal/models"
)

const (
	defaultMaxWait      = 30 * time.Second
	defaultPollInterval = 500 * time.Millisecond // matches orchestrator.py's POLL_TIME
)

// Store is the narrow Artifact Store view the enforcer needs.
type Store interface {
	Exists(runID, name string) (bool, error)
	FileExistsAndNonEmpty(runID, filename string) bool
}

// Enforcer polls for the final report's presence before the orchestrator
// is allowed to mark a run complete or complete_with_errors.
type Enforcer struct {
	store        Store
	log          logger.Log
	maxWait      time.Duration
	pollInterval time.Duration
}

func NewEnforcer(store Store, logFactory logger.LogFactory) *Enforcer {
	return &Enforcer{
		store:        store,
		log:          logFactory("report.enforcer"),
		maxWait:      defaultMaxWait,
		pollInterval: defaultPollInterval,
	}
}

// WithMaxWait overrides the default 30s poll budget, for tests.
func (e *Enforcer) WithMaxWait(d time.Duration) *Enforcer {
	e.maxWait = d
	return e
}

// Enforce polls for up to maxWait for both the document-form ("final_report")
// and file-form ("final_report.md") of the report artifact. It returns true
// only once both are present and non-empty; a caller that gets false must
// downgrade the run's terminal status to failed (spec.md §4.7's terminal
// decision table).
func (e *Enforcer) Enforce(ctx context.Context, runID models.RunID) bool {
	deadline := time.Now().Add(e.maxWait)
	for {
		if e.reportExists(runID) {
			return true
		}
		if time.Now().After(deadline) {
			e.log.Warnf("final report not found for run %s after %s", runID, e.maxWait)
			return false
		}
		select {
		case <-ctx.Done():
			return false
		case <-time.After(e.pollInterval):
		}
	}
}

func (e *Enforcer) reportExists(runID models.RunID) bool {
	docExists, err := e.store.Exists(string(runID), "final_report")
	if err != nil || !docExists {
		return false
	}
	return e.store.FileExistsAndNonEmpty(string(runID), "final_report.md")
}
