// Package queue implements the Job Queue (spec §4.3): a FIFO queue of
// submitted runs, delivered one at a time to a worker, surviving restarts.
// Backed by Redis, following original_source/backend/jobs/redis_queue.py
// almost exactly: a list key for the FIFO queue and a hash key for
// per-job state.
package queue

import (
	"context"
	"encoding/json"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/runforge/arc/common/gerror"
	"github.com/runforge/arc/common/logger"
	"github.com/runforge/arc/internal/models"
)

const (
	queueKey = "arc:jobs:queue"
	stateKey = "arc:jobs:state"
)

// RedisClient is the subset of *redis.Client the queue depends on, so tests
// can substitute a miniredis-backed client without any other changes.
type RedisClient interface {
	redis.Cmdable
}

// Queue is the Job Queue contract, backed by Redis.
type Queue struct {
	rdb RedisClient
	log logger.Log
}

func New(rdb RedisClient, logFactory logger.LogFactory) *Queue {
	return &Queue{rdb: rdb, log: logFactory("queue")}
}

// Enqueue allocates a fresh run_id, records the job in `queued`, and
// appends to the FIFO (spec §4.3). The queue push and state hash write are
// executed through a pipeline so they are never observed independently
// (SPEC_FULL.md §5.3).
func (q *Queue) Enqueue(ctx context.Context, filePath string, runConfig models.RunConfig) (models.RunID, error) {
	runID, err := models.NewRunID()
	if err != nil {
		return "", gerror.NewErrInternal().Wrap(err)
	}

	now := models.Now()
	job := models.Job{
		RunID:     runID,
		FilePath:  filePath,
		Status:    models.JobStatusQueued,
		CreatedAt: now,
		UpdatedAt: now,
		RunConfig: runConfig,
	}
	encoded, err := json.Marshal(job)
	if err != nil {
		panic("error marshaling job: " + err.Error())
	}

	_, err = q.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.LPush(ctx, queueKey, string(runID))
		pipe.HSet(ctx, stateKey, string(runID), encoded)
		return nil
	})
	if err != nil {
		return "", gerror.NewErrQueueUnavailable("error enqueueing job", err)
	}
	return runID, nil
}

// FetchNext blocks for up to timeout for a queued job, atomically moving it
// from `queued` to `running`. The list pop via BRPOP is the atomic move
// primitive spec §4.3 requires: once a worker receives a run_id from
// BRPOP, no other worker can ever receive the same one.
func (q *Queue) FetchNext(ctx context.Context, timeout time.Duration) (*models.Job, error) {
	result, err := q.rdb.BRPop(ctx, timeout, queueKey).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, gerror.NewErrQueueUnavailable("error fetching next job", err)
	}
	// result is [key, value]; BRPOP returns the popped element as result[1].
	runID := result[1]

	job, ok, err := q.getLocked(ctx, runID)
	if err != nil {
		return nil, err
	}
	if !ok {
		// Job was popped from the queue list but its state hash entry is
		// gone (deleted concurrently). Nothing to run.
		return nil, nil
	}

	job.Status = models.JobStatusRunning
	job.UpdatedAt = models.Now()
	if err := q.save(ctx, job); err != nil {
		return nil, err
	}
	return job, nil
}

// UpdateStatus moves a job; idempotent (spec §4.3).
func (q *Queue) UpdateStatus(ctx context.Context, runID models.RunID, status models.JobStatus, message, runPath string) error {
	job, ok, err := q.getLocked(ctx, string(runID))
	if err != nil {
		return err
	}
	if !ok {
		return gerror.NewErrNotFound("job not found").IDetail("run_id", string(runID))
	}
	job.Status = status
	job.UpdatedAt = models.Now()
	if message != "" {
		job.Message = message
	}
	if runPath != "" {
		job.RunPath = runPath
	}
	return q.save(ctx, job)
}

// Heartbeat updates updated_at without changing state (spec §4.3).
func (q *Queue) Heartbeat(ctx context.Context, runID models.RunID) error {
	job, ok, err := q.getLocked(ctx, string(runID))
	if err != nil {
		return err
	}
	if !ok {
		return gerror.NewErrNotFound("job not found").IDetail("run_id", string(runID))
	}
	job.UpdatedAt = models.Now()
	return q.save(ctx, job)
}

// Get returns the job for runID, or (nil, false) if absent.
func (q *Queue) Get(ctx context.Context, runID models.RunID) (*models.Job, bool, error) {
	return q.getLocked(ctx, string(runID))
}

// List returns all jobs, ordered by created_at, limited and offset per spec
// §6's list_jobs(limit, offset).
func (q *Queue) List(ctx context.Context, limit, offset int) ([]*models.Job, error) {
	raw, err := q.rdb.HGetAll(ctx, stateKey).Result()
	if err != nil {
		return nil, gerror.NewErrQueueUnavailable("error listing jobs", err)
	}
	jobs := make([]*models.Job, 0, len(raw))
	for _, encoded := range raw {
		var job models.Job
		if err := json.Unmarshal([]byte(encoded), &job); err != nil {
			q.log.WithField("error", err).Warn("skipping corrupt job state entry")
			continue
		}
		jobs = append(jobs, &job)
	}
	sortJobsByCreatedAt(jobs)

	if offset >= len(jobs) {
		return []*models.Job{}, nil
	}
	end := offset + limit
	if limit <= 0 || end > len(jobs) {
		end = len(jobs)
	}
	return jobs[offset:end], nil
}

// Delete removes a job's state entry; it does not remove it from the FIFO
// list.
func (q *Queue) Delete(ctx context.Context, runID models.RunID) error {
	if err := q.rdb.HDel(ctx, stateKey, string(runID)).Err(); err != nil {
		return gerror.NewErrQueueUnavailable("error deleting job", err)
	}
	return nil
}

// QueueLength returns the number of jobs still waiting in the FIFO list
// (spec §5, "Backpressure").
func (q *Queue) QueueLength(ctx context.Context) (int64, error) {
	n, err := q.rdb.LLen(ctx, queueKey).Result()
	if err != nil {
		return 0, gerror.NewErrQueueUnavailable("error reading queue length", err)
	}
	return n, nil
}

func (q *Queue) getLocked(ctx context.Context, runID string) (*models.Job, bool, error) {
	encoded, err := q.rdb.HGet(ctx, stateKey, runID).Result()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, gerror.NewErrQueueUnavailable("error reading job state", err)
	}
	var job models.Job
	if err := json.Unmarshal([]byte(encoded), &job); err != nil {
		return nil, false, gerror.NewErrInternal().Wrap(err)
	}
	return &job, true, nil
}

func (q *Queue) save(ctx context.Context, job *models.Job) error {
	encoded, err := json.Marshal(job)
	if err != nil {
		panic("error marshaling job: " + err.Error())
	}
	if err := q.rdb.HSet(ctx, stateKey, string(job.RunID), encoded).Err(); err != nil {
		return gerror.NewErrQueueUnavailable("error saving job state", err)
	}
	return nil
}

func sortJobsByCreatedAt(jobs []*models.Job) {
	sort.Slice(jobs, func(i, j int) bool {
		return jobs[i].CreatedAt.Before(jobs[j].CreatedAt.Time)
	})
}
