package queue_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/runforge/arc/common/logger"
	"github.com/runforge/arc/internal/models"
	"github.com/runforge/arc/internal/queue"
)

func TestTimeoutSweeper_FailsStuckRunningJobs(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	q := queue.New(rdb, logger.NoOpLogFactory)
	ctx := context.Background()

	runID, err := q.Enqueue(ctx, "/data/in.csv", nil)
	require.NoError(t, err)
	job, err := q.FetchNext(ctx, time.Second)
	require.NoError(t, err)
	require.Equal(t, runID, job.RunID)

	time.Sleep(20 * time.Millisecond)

	sweeper := queue.NewTimeoutSweeper(q, logger.NoOpLogFactory, time.Hour, 10*time.Millisecond)
	sweeper.Start(ctx)
	defer sweeper.Stop()

	timedOut := sweeper.Sweep()
	require.Contains(t, timedOut, runID)

	after, _, err := q.Get(ctx, runID)
	require.NoError(t, err)
	require.Equal(t, models.JobStatusFailed, after.Status)
	require.Contains(t, after.Message, "timed out")
}

func TestTimeoutSweeper_LeavesHealthyJobsAlone(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	q := queue.New(rdb, logger.NoOpLogFactory)
	ctx := context.Background()

	runID, err := q.Enqueue(ctx, "/data/in.csv", nil)
	require.NoError(t, err)
	_, err = q.FetchNext(ctx, time.Second)
	require.NoError(t, err)

	sweeper := queue.NewTimeoutSweeper(q, logger.NoOpLogFactory, time.Hour, time.Hour)
	sweeper.Start(ctx)
	defer sweeper.Stop()

	timedOut := sweeper.Sweep()
	require.Empty(t, timedOut)

	after, _, err := q.Get(ctx, runID)
	require.NoError(t, err)
	require.Equal(t, models.JobStatusRunning, after.Status)
}
