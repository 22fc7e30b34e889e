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

func newTestQueue(t *testing.T) (*queue.Queue, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return queue.New(rdb, logger.NoOpLogFactory), rdb
}

func TestEnqueueFetchNext_MovesJobFromQueuedToRunning(t *testing.T) {
	q, _ := newTestQueue(t)
	ctx := context.Background()

	runID, err := q.Enqueue(ctx, "/data/in.csv", models.RunConfig{"target_column": "revenue"})
	require.NoError(t, err)

	job, err := q.FetchNext(ctx, time.Second)
	require.NoError(t, err)
	require.NotNil(t, job)
	require.Equal(t, runID, job.RunID)
	require.Equal(t, models.JobStatusRunning, job.Status)
}

func TestFetchNext_SecondFetchDoesNotReturnSameJob(t *testing.T) {
	q, _ := newTestQueue(t)
	ctx := context.Background()

	_, err := q.Enqueue(ctx, "/data/in.csv", nil)
	require.NoError(t, err)

	first, err := q.FetchNext(ctx, time.Second)
	require.NoError(t, err)
	require.NotNil(t, first)

	second, err := q.FetchNext(ctx, 50*time.Millisecond)
	require.NoError(t, err)
	require.Nil(t, second)
}

func TestHeartbeat_UpdatesTimestampOnly(t *testing.T) {
	q, _ := newTestQueue(t)
	ctx := context.Background()

	runID, err := q.Enqueue(ctx, "/data/in.csv", nil)
	require.NoError(t, err)
	job, _, err := q.Get(ctx, runID)
	require.NoError(t, err)
	before := job.UpdatedAt

	time.Sleep(5 * time.Millisecond)
	require.NoError(t, q.Heartbeat(ctx, runID))

	after, _, err := q.Get(ctx, runID)
	require.NoError(t, err)
	require.True(t, after.UpdatedAt.After(before.Time))
	require.Equal(t, models.JobStatusQueued, after.Status)
}

func TestList_RespectsLimitAndOffset(t *testing.T) {
	q, _ := newTestQueue(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := q.Enqueue(ctx, "/data/in.csv", nil)
		require.NoError(t, err)
	}

	page, err := q.List(ctx, 2, 1)
	require.NoError(t, err)
	require.Len(t, page, 2)
}

func TestQueueLength_ReflectsUnfetchedJobs(t *testing.T) {
	q, _ := newTestQueue(t)
	ctx := context.Background()

	_, err := q.Enqueue(ctx, "/data/in.csv", nil)
	require.NoError(t, err)
	n, err := q.QueueLength(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 1, n)

	_, err = q.FetchNext(ctx, time.Second)
	require.NoError(t, err)
	n, err = q.QueueLength(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 0, n)
}
