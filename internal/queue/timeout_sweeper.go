package queue

import (
	"context"
	"fmt"
	"time"

	"github.com/runforge/arc/common/logger"
	"github.com/runforge/arc/common/util"
	"github.com/runforge/arc/internal/models"
)

// TimeoutSweeper polls the Job Queue every pollInterval and fails any
// `running` job whose updated_at is older than jobTimeout (spec §4.3),
// modeled on the teacher's queue.TimeoutChecker: a StatefulService wrapping
// a select loop, with a synchronous channel round-trip so callers (and
// tests) can force an immediate sweep.
type TimeoutSweeper struct {
	svc *util.StatefulService

	queue        *Queue
	log          logger.Log
	pollInterval time.Duration
	jobTimeout   time.Duration

	sweepRequestChan chan sweepRequest
}

type sweepRequest struct {
	resultChan chan []models.RunID
}

func NewTimeoutSweeper(queue *Queue, logFactory logger.LogFactory, pollInterval, jobTimeout time.Duration) *TimeoutSweeper {
	return &TimeoutSweeper{
		queue:            queue,
		log:              logFactory("timeout_sweeper"),
		pollInterval:     pollInterval,
		jobTimeout:       jobTimeout,
		sweepRequestChan: make(chan sweepRequest),
	}
}

func (t *TimeoutSweeper) Start(ctx context.Context) {
	t.svc = util.NewStatefulService(ctx, t.log, t.loop)
	t.svc.Start()
}

func (t *TimeoutSweeper) Stop() {
	if t.svc != nil {
		t.svc.Stop()
	}
}

func (t *TimeoutSweeper) loop() {
	ctx := t.svc.Ctx()
	for {
		select {
		case <-ctx.Done():
			return
		case req := <-t.sweepRequestChan:
			req.resultChan <- t.sweep(ctx)
		case <-time.After(t.pollInterval):
			if failed, err := t.sweepE(ctx); err != nil {
				t.log.WithField("error", err).Error("error sweeping for stuck jobs")
			} else if len(failed) > 0 {
				t.log.WithField("count", len(failed)).Info("marked stuck jobs as failed")
			}
		}
	}
}

// Sweep forces an immediate sweep and blocks until it completes, for tests
// and operator tooling (mirrors the teacher's TimeoutChecker.CheckForTimeouts).
func (t *TimeoutSweeper) Sweep() []models.RunID {
	resultChan := make(chan []models.RunID, 1)
	select {
	case t.sweepRequestChan <- sweepRequest{resultChan: resultChan}:
		return <-resultChan
	case <-t.svc.Ctx().Done():
		return nil
	}
}

func (t *TimeoutSweeper) sweep(ctx context.Context) []models.RunID {
	failed, err := t.sweepE(ctx)
	if err != nil {
		t.log.WithField("error", err).Error("error sweeping for stuck jobs")
	}
	return failed
}

// sweepE implements cleanup_stuck_jobs (original_source's redis_queue.py):
// transition any `running` job whose updated_at is older than jobTimeout to
// `failed` with message "Job timed out after …".
func (t *TimeoutSweeper) sweepE(ctx context.Context) ([]models.RunID, error) {
	jobs, err := t.queue.List(ctx, 0, 0)
	if err != nil {
		return nil, err
	}
	cutoff := time.Now().Add(-t.jobTimeout)

	var timedOut []models.RunID
	for _, job := range jobs {
		if job.Status != models.JobStatusRunning {
			continue
		}
		if job.UpdatedAt.Before(cutoff) {
			message := fmt.Sprintf("Job timed out after %s", t.jobTimeout)
			if err := t.queue.UpdateStatus(ctx, job.RunID, models.JobStatusFailed, message, ""); err != nil {
				t.log.WithField("run_id", job.RunID).WithField("error", err).Error("error failing timed-out job")
				continue
			}
			timedOut = append(timedOut, job.RunID)
		}
	}
	return timedOut, nil
}
