package worker_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/runforge/arc/common/logger"
	"github.com/runforge/arc/internal/models"
	"github.com/runforge/arc/internal/worker"
)

type fakeQueue struct {
	mu      sync.Mutex
	jobs    []*models.Job
	updates []statusUpdate
}

type statusUpdate struct {
	runID   models.RunID
	status  models.JobStatus
	message string
}

func (q *fakeQueue) FetchNext(ctx context.Context, timeout time.Duration) (*models.Job, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.jobs) == 0 {
		return nil, nil
	}
	job := q.jobs[0]
	q.jobs = q.jobs[1:]
	return job, nil
}

func (q *fakeQueue) UpdateStatus(ctx context.Context, runID models.RunID, status models.JobStatus, message, runPath string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.updates = append(q.updates, statusUpdate{runID: runID, status: status, message: message})
	return nil
}

func (q *fakeQueue) lastUpdate() (statusUpdate, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.updates) == 0 {
		return statusUpdate{}, false
	}
	return q.updates[len(q.updates)-1], true
}

type fakeOrchestrator struct {
	status models.RunStatus
	err    error
	ran    chan models.RunID
}

func (o *fakeOrchestrator) Run(ctx context.Context, runID models.RunID, filePath string, runConfig models.RunConfig) (models.RunStatus, error) {
	if o.ran != nil {
		o.ran <- runID
	}
	return o.status, o.err
}

func TestWorker_RunsQueuedJobAndRecordsCompletion(t *testing.T) {
	q := &fakeQueue{jobs: []*models.Job{{RunID: "run-1", FilePath: "/data/in.csv"}}}
	orch := &fakeOrchestrator{status: models.RunStatusComplete, ran: make(chan models.RunID, 1)}
	w := worker.New(q, orch, logger.NoOpLogFactory)

	ctx, cancel := context.WithCancel(context.Background())
	w.Start(ctx)
	defer cancel()

	select {
	case ranID := <-orch.ran:
		require.Equal(t, models.RunID("run-1"), ranID)
	case <-time.After(time.Second):
		t.Fatal("orchestrator was never invoked")
	}
	w.Stop()

	update, ok := q.lastUpdate()
	require.True(t, ok)
	require.Equal(t, models.JobStatusCompleted, update.status)
	require.Equal(t, string(models.RunStatusComplete), update.message)
}

func TestWorker_RecordsFailedStatusOnFailedRun(t *testing.T) {
	q := &fakeQueue{jobs: []*models.Job{{RunID: "run-2", FilePath: "/data/in.csv"}}}
	orch := &fakeOrchestrator{status: models.RunStatusFailed, ran: make(chan models.RunID, 1)}
	w := worker.New(q, orch, logger.NoOpLogFactory)

	ctx, cancel := context.WithCancel(context.Background())
	w.Start(ctx)
	defer cancel()

	<-orch.ran
	w.Stop()

	update, ok := q.lastUpdate()
	require.True(t, ok)
	require.Equal(t, models.JobStatusFailed, update.status)
}

func TestWorker_RecordsFailedStatusOnOrchestratorError(t *testing.T) {
	q := &fakeQueue{jobs: []*models.Job{{RunID: "run-3", FilePath: "/data/in.csv"}}}
	orch := &fakeOrchestrator{err: errors.New("boom"), ran: make(chan models.RunID, 1)}
	w := worker.New(q, orch, logger.NoOpLogFactory)

	ctx, cancel := context.WithCancel(context.Background())
	w.Start(ctx)
	defer cancel()

	<-orch.ran
	w.Stop()

	update, ok := q.lastUpdate()
	require.True(t, ok)
	require.Equal(t, models.JobStatusFailed, update.status)
	require.Contains(t, update.message, "boom")
}

func TestWorker_IdleLoopDoesNothing(t *testing.T) {
	q := &fakeQueue{}
	orch := &fakeOrchestrator{ran: make(chan models.RunID, 1)}
	w := worker.New(q, orch, logger.NoOpLogFactory)

	ctx, cancel := context.WithCancel(context.Background())
	w.Start(ctx)
	time.Sleep(20 * time.Millisecond)
	cancel()
	w.Stop()

	select {
	case <-orch.ran:
		t.Fatal("orchestrator should not have been invoked with an empty queue")
	default:
	}
}
