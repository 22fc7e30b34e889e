// Package worker implements the worker loop (spec.md §4.10): the process
// that drains the Job Queue one run at a time and drives each through the
// Orchestrator, modeled as a util.StatefulService in the same shape as
// queue.TimeoutSweeper.
package worker

import (
	"context"
	"time"

	"github.com/runforge/arc/common/logger"
	"github.com/runforge/arc/common/util"
	"github.com/runforge/arc/internal/models"
)

// fetchTimeout bounds each BRPOP-style poll of the queue (spec.md §4.10:
// "fetch_next(timeout=5s)").
const fetchTimeout = 5 * time.Second

// maxMessageLen truncates an orchestrator error before it's recorded against
// the job, so a panic's stack trace or a verbose driver error never blows up
// the job state hash entry (spec.md §4.10: "message=truncated_reason").
const maxMessageLen = 2000

// Queue is the narrow Job Queue view the worker needs.
type Queue interface {
	FetchNext(ctx context.Context, timeout time.Duration) (*models.Job, error)
	UpdateStatus(ctx context.Context, runID models.RunID, status models.JobStatus, message, runPath string) error
}

// Orchestrator is the narrow Orchestrator view the worker needs.
type Orchestrator interface {
	Run(ctx context.Context, runID models.RunID, filePath string, runConfig models.RunConfig) (models.RunStatus, error)
}

// Worker pulls jobs off the Job Queue and drives each to completion via the
// Orchestrator, one at a time (spec.md §4.10). Grounded on
// queue.TimeoutSweeper's StatefulService wrapping pattern.
type Worker struct {
	svc *util.StatefulService

	queue        Queue
	orchestrator Orchestrator
	log          logger.Log
}

func New(queue Queue, orchestrator Orchestrator, logFactory logger.LogFactory) *Worker {
	return &Worker{
		queue:        queue,
		orchestrator: orchestrator,
		log:          logFactory("worker"),
	}
}

func (w *Worker) Start(ctx context.Context) {
	w.svc = util.NewStatefulService(ctx, w.log, w.loop)
	w.svc.Start()
}

func (w *Worker) Stop() {
	if w.svc != nil {
		w.svc.Stop()
	}
}

func (w *Worker) loop() {
	ctx := w.svc.Ctx()
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		w.pollOnce(ctx)
	}
}

// pollOnce implements one iteration of spec.md §4.10's loop: fetch the next
// job (or do nothing for fetchTimeout), mark it running, drive it through
// the Orchestrator, then record the terminal job status. A job is never
// left `running` once this call returns — either the orchestrator produced
// a terminal RunStatus and the job is marked completed/failed to match, or
// the orchestrator itself errored and the job is marked failed directly.
func (w *Worker) pollOnce(ctx context.Context) {
	job, err := w.queue.FetchNext(ctx, fetchTimeout)
	if err != nil {
		w.log.WithField("error", err).Error("error fetching next job")
		return
	}
	if job == nil {
		return
	}

	log := w.log.WithField("run_id", job.RunID)
	log.Info("starting run")

	status, err := w.orchestrator.Run(ctx, job.RunID, job.FilePath, job.RunConfig)
	if err != nil {
		log.WithField("error", err).Error("run errored")
		if updErr := w.queue.UpdateStatus(ctx, job.RunID, models.JobStatusFailed, truncate(err.Error()), ""); updErr != nil {
			log.WithField("error", updErr).Error("error recording failed job status")
		}
		return
	}

	jobStatus := models.JobStatusCompleted
	if status == models.RunStatusFailed {
		jobStatus = models.JobStatusFailed
	}
	log.WithField("status", status).Info("run finished")
	if err := w.queue.UpdateStatus(ctx, job.RunID, jobStatus, string(status), ""); err != nil {
		log.WithField("error", err).Error("error recording finished job status")
	}
}

func truncate(s string) string {
	if len(s) <= maxMessageLen {
		return s
	}
	return s[:maxMessageLen] + "...(truncated)"
}
