package jobs

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seismolab/noiseq/errors"
)

func claimOne(t *testing.T, store Store, sched *Scheduler, jobType string) *Job {
	t.Helper()
	batch, err := sched.Claim(context.Background(), ClaimRequest{Type: jobType, WorkerID: "w1", Max: 1})
	require.NoError(t, err)
	require.Len(t, batch, 1)
	return batch[0]
}

func TestReconciler_Complete(t *testing.T) {
	forEachStore(t, func(t *testing.T, store Store) {
		ctx := context.Background()
		seedJobs(t, store, NewJob("CC", "2024-01-01", "BE.GES:BE.MEM"))
		sched := NewScheduler(store)
		rec := NewReconciler(store)

		job := claimOne(t, store, sched, "CC")
		require.NoError(t, rec.Complete(ctx, job.ID))

		got, err := store.Get(ctx, job.ID)
		require.NoError(t, err)
		assert.Equal(t, StateDone, got.State)
		assert.Empty(t, got.ClaimedBy)

		// Completing again is a no-op (worker retry after crash).
		require.NoError(t, rec.Complete(ctx, job.ID))
	})
}

func TestReconciler_CompleteFromTodo(t *testing.T) {
	forEachStore(t, func(t *testing.T, store Store) {
		ctx := context.Background()
		seedJobs(t, store, NewJob("CC", "2024-01-01", "BE.GES:BE.MEM"))
		rec := NewReconciler(store)

		job, err := store.GetByKey(ctx, "CC", "2024-01-01", "BE.GES:BE.MEM")
		require.NoError(t, err)

		// The claim was reset under the worker: completion must surface it.
		err = rec.Complete(ctx, job.ID)
		assert.True(t, errors.IsInvalidTransition(err))
	})
}

func TestReconciler_Fail(t *testing.T) {
	forEachStore(t, func(t *testing.T, store Store) {
		ctx := context.Background()
		seedJobs(t, store, NewJob("CC", "2024-01-01", "BE.GES:BE.MEM"))
		sched := NewScheduler(store)
		rec := NewReconciler(store)

		job := claimOne(t, store, sched, "CC")
		require.NoError(t, rec.Fail(ctx, job.ID, "no data for day"))

		got, err := store.Get(ctx, job.ID)
		require.NoError(t, err)
		assert.Equal(t, StateTodo, got.State)
		assert.Empty(t, got.ClaimedBy)
		assert.Equal(t, "no data for day", got.Notes)

		// Failed jobs are claimable again.
		again := claimOne(t, store, sched, "CC")
		assert.Equal(t, job.ID, again.ID)

		// Failing a job nobody holds is an invalid transition.
		require.NoError(t, rec.Complete(ctx, job.ID))
		err = rec.Fail(ctx, job.ID, "late failure")
		assert.True(t, errors.IsInvalidTransition(err))
	})
}

func TestReconciler_Requeue(t *testing.T) {
	forEachStore(t, func(t *testing.T, store Store) {
		ctx := context.Background()
		sched := NewScheduler(store)
		rec := NewReconciler(store)

		// Missing job is created as TODO.
		require.NoError(t, rec.Requeue(ctx, "STACK", "2024-01-01", "BE.GES:BE.MEM"))
		job, err := store.GetByKey(ctx, "STACK", "2024-01-01", "BE.GES:BE.MEM")
		require.NoError(t, err)
		assert.Equal(t, StateTodo, job.State)

		// Already TODO: no-op.
		require.NoError(t, rec.Requeue(ctx, "STACK", "2024-01-01", "BE.GES:BE.MEM"))

		// DONE flips back to TODO.
		claimed := claimOne(t, store, sched, "STACK")
		require.NoError(t, rec.Complete(ctx, claimed.ID))
		require.NoError(t, rec.Requeue(ctx, "STACK", "2024-01-01", "BE.GES:BE.MEM"))
		job, err = store.Get(ctx, claimed.ID)
		require.NoError(t, err)
		assert.Equal(t, StateTodo, job.State)

		// IN_PROGRESS is left with its holder.
		claimed = claimOne(t, store, sched, "STACK")
		require.NoError(t, rec.Requeue(ctx, "STACK", "2024-01-01", "BE.GES:BE.MEM"))
		job, err = store.Get(ctx, claimed.ID)
		require.NoError(t, err)
		assert.Equal(t, StateInProgress, job.State)
	})
}

func TestReconciler_Invalidate(t *testing.T) {
	forEachStore(t, func(t *testing.T, store Store) {
		ctx := context.Background()
		seedJobs(t, store,
			NewJob("CC", "2024-01-01", "BE.GES:BE.MEM"),
			NewJob("CC", "2024-01-02", "BE.GES:BE.MEM"),
		)
		sched := NewScheduler(store)
		rec := NewReconciler(store)

		for i := 0; i < 2; i++ {
			job := claimOne(t, store, sched, "CC")
			require.NoError(t, rec.Complete(ctx, job.ID))
		}

		n, err := rec.Invalidate(ctx, "CC", nil, "")
		require.NoError(t, err)
		assert.Equal(t, int64(2), n)

		counts, err := store.Counts(ctx)
		require.NoError(t, err)
		assert.Equal(t, StateCounts{Todo: 2}, counts["CC"])

		// Invalidated jobs run the full lifecycle again.
		job := claimOne(t, store, sched, "CC")
		require.NoError(t, rec.Complete(ctx, job.ID))
	})
}

func TestReconciler_ResetStale(t *testing.T) {
	forEachStore(t, func(t *testing.T, store Store) {
		ctx := context.Background()
		seedJobs(t, store, NewJob("CC", "2024-01-01", "BE.GES:BE.MEM"))
		sched := NewScheduler(store)
		rec := NewReconciler(store)

		claimOne(t, store, sched, "CC")

		// Claim is fresh against a day-long threshold.
		n, err := rec.ResetStale(ctx, 24*time.Hour)
		require.NoError(t, err)
		assert.Equal(t, int64(0), n)

		// Against a negative threshold everything in flight is stale.
		n, err = rec.ResetStale(ctx, -time.Minute)
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)

		job, err := store.GetByKey(ctx, "CC", "2024-01-01", "BE.GES:BE.MEM")
		require.NoError(t, err)
		assert.Equal(t, StateTodo, job.State)
		assert.Contains(t, job.Notes, "w1")
	})
}
