package jobs

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seismolab/noiseq/errors"
	noisetest "github.com/seismolab/noiseq/internal/testing"
)

// forEachStore runs the same contract test against both store
// implementations; SQLStore and MemStore must be interchangeable.
func forEachStore(t *testing.T, fn func(t *testing.T, store Store)) {
	t.Run("SQL", func(t *testing.T) {
		fn(t, NewSQLStore(noisetest.CreateTestDB(t)))
	})
	t.Run("Mem", func(t *testing.T) {
		fn(t, NewMemStore())
	})
}

func seedJobs(t *testing.T, store Store, batch ...Job) {
	t.Helper()
	n, err := store.InsertMissing(context.Background(), batch)
	require.NoError(t, err)
	require.Equal(t, len(batch), n)
}

func TestStore_InsertMissing(t *testing.T) {
	forEachStore(t, func(t *testing.T, store Store) {
		ctx := context.Background()

		n, err := store.InsertMissing(ctx, []Job{
			NewJob("CC", "2024-01-01", "BE.GES:BE.MEM"),
			NewJob("CC", "2024-01-02", "BE.GES:BE.MEM"),
		})
		require.NoError(t, err)
		assert.Equal(t, 2, n)

		// Same batch again: nothing inserted, existing rows untouched.
		n, err = store.InsertMissing(ctx, []Job{
			NewJob("CC", "2024-01-01", "BE.GES:BE.MEM"),
			NewJob("CC", "2024-01-02", "BE.GES:BE.MEM"),
		})
		require.NoError(t, err)
		assert.Equal(t, 0, n)

		// A DONE row survives re-insertion of its key.
		job, err := store.GetByKey(ctx, "CC", "2024-01-01", "BE.GES:BE.MEM")
		require.NoError(t, err)
		ok, err := store.CompareAndSwap(ctx, job.ID, StateTodo, StateInProgress, Update{})
		require.NoError(t, err)
		require.True(t, ok)
		ok, err = store.CompareAndSwap(ctx, job.ID, StateInProgress, StateDone, Update{})
		require.NoError(t, err)
		require.True(t, ok)

		n, err = store.InsertMissing(ctx, []Job{NewJob("CC", "2024-01-01", "BE.GES:BE.MEM")})
		require.NoError(t, err)
		assert.Equal(t, 0, n)

		job, err = store.GetByKey(ctx, "CC", "2024-01-01", "BE.GES:BE.MEM")
		require.NoError(t, err)
		assert.Equal(t, StateDone, job.State)
	})
}

func TestStore_GetNotFound(t *testing.T) {
	forEachStore(t, func(t *testing.T, store Store) {
		ctx := context.Background()

		_, err := store.Get(ctx, 12345)
		assert.True(t, errors.IsNotFound(err))

		_, err = store.GetByKey(ctx, "CC", "2024-01-01", "XX.YY:XX.ZZ")
		assert.True(t, errors.IsNotFound(err))
	})
}

func TestStore_ListTodo(t *testing.T) {
	forEachStore(t, func(t *testing.T, store Store) {
		ctx := context.Background()
		seedJobs(t, store,
			NewJob("CC", "2024-01-02", "BE.GES:BE.MEM"),
			NewJob("CC", "2024-01-01", "BE.GES:BE.UCC"),
			NewJob("CC", "2024-01-01", "BE.GES:BE.MEM"),
			NewJob("CC", "2024-01-03", "BE.GES:BE.MEM"),
			NewJob("STACK", "2024-01-01", "BE.GES:BE.MEM"),
		)

		// Ordered by day then pair, filtered to one type.
		list, err := store.ListTodo(ctx, Filter{Type: "CC"}, 0)
		require.NoError(t, err)
		require.Len(t, list, 4)
		assert.Equal(t, "2024-01-01", list[0].Day)
		assert.Equal(t, "BE.GES:BE.MEM", list[0].Pair)
		assert.Equal(t, "BE.GES:BE.UCC", list[1].Pair)
		assert.Equal(t, "2024-01-02", list[2].Day)
		assert.Equal(t, "2024-01-03", list[3].Day)

		// Limit.
		list, err = store.ListTodo(ctx, Filter{Type: "CC"}, 2)
		require.NoError(t, err)
		assert.Len(t, list, 2)

		// Day window.
		list, err = store.ListTodo(ctx, Filter{Type: "CC", DayFrom: "2024-01-02", DayTo: "2024-01-02"}, 0)
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, "2024-01-02", list[0].Day)

		// Pair filter.
		list, err = store.ListTodo(ctx, Filter{Type: "CC", Pairs: []string{"BE.GES:BE.UCC"}}, 0)
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, "BE.GES:BE.UCC", list[0].Pair)

		// Claimed jobs disappear from the listing.
		ok, err := store.CompareAndSwap(ctx, list[0].ID, StateTodo, StateInProgress, Update{})
		require.NoError(t, err)
		require.True(t, ok)
		list, err = store.ListTodo(ctx, Filter{Type: "CC"}, 0)
		require.NoError(t, err)
		assert.Len(t, list, 3)
	})
}

func TestStore_CompareAndSwap(t *testing.T) {
	forEachStore(t, func(t *testing.T, store Store) {
		ctx := context.Background()
		seedJobs(t, store, NewJob("CC", "2024-01-01", "BE.GES:BE.MEM"))
		job, err := store.GetByKey(ctx, "CC", "2024-01-01", "BE.GES:BE.MEM")
		require.NoError(t, err)

		// First swap wins and applies the update.
		ok, err := store.CompareAndSwap(ctx, job.ID, StateTodo, StateInProgress,
			Update{ClaimedBy: strptr("worker-1")})
		require.NoError(t, err)
		assert.True(t, ok)

		got, err := store.Get(ctx, job.ID)
		require.NoError(t, err)
		assert.Equal(t, StateInProgress, got.State)
		assert.Equal(t, "worker-1", got.ClaimedBy)

		// Second swap from the stale state loses without error.
		ok, err = store.CompareAndSwap(ctx, job.ID, StateTodo, StateInProgress,
			Update{ClaimedBy: strptr("worker-2")})
		require.NoError(t, err)
		assert.False(t, ok)

		got, err = store.Get(ctx, job.ID)
		require.NoError(t, err)
		assert.Equal(t, "worker-1", got.ClaimedBy)

		// Empty-string pointer clears a column.
		ok, err = store.CompareAndSwap(ctx, job.ID, StateInProgress, StateDone,
			Update{ClaimedBy: strptr("")})
		require.NoError(t, err)
		assert.True(t, ok)

		got, err = store.Get(ctx, job.ID)
		require.NoError(t, err)
		assert.Equal(t, StateDone, got.State)
		assert.Empty(t, got.ClaimedBy)

		// Missing job: lost swap, not an error.
		ok, err = store.CompareAndSwap(ctx, 99999, StateTodo, StateInProgress, Update{})
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestStore_InvalidateDone(t *testing.T) {
	forEachStore(t, func(t *testing.T, store Store) {
		ctx := context.Background()
		seedJobs(t, store,
			NewJob("CC", "2024-01-01", "BE.GES:BE.MEM"),
			NewJob("CC", "2024-01-02", "BE.GES:BE.MEM"),
			NewJob("CC", "2024-01-02", "BE.GES:BE.UCC"),
			NewJob("STACK", "2024-01-02", "BE.GES:BE.MEM"),
		)

		complete := func(jobType, day, pair string) {
			job, err := store.GetByKey(ctx, jobType, day, pair)
			require.NoError(t, err)
			ok, err := store.CompareAndSwap(ctx, job.ID, StateTodo, StateInProgress, Update{})
			require.NoError(t, err)
			require.True(t, ok)
			ok, err = store.CompareAndSwap(ctx, job.ID, StateInProgress, StateDone, Update{})
			require.NoError(t, err)
			require.True(t, ok)
		}
		complete("CC", "2024-01-01", "BE.GES:BE.MEM")
		complete("CC", "2024-01-02", "BE.GES:BE.MEM")
		complete("STACK", "2024-01-02", "BE.GES:BE.MEM")

		// Scoped by type, pair and day floor: only one row qualifies.
		n, err := store.InvalidateDone(ctx, "CC", []string{"BE.GES:BE.MEM"}, "2024-01-02")
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)

		job, err := store.GetByKey(ctx, "CC", "2024-01-02", "BE.GES:BE.MEM")
		require.NoError(t, err)
		assert.Equal(t, StateTodo, job.State)

		// The earlier day and the other type stay DONE; the TODO row is untouched.
		job, err = store.GetByKey(ctx, "CC", "2024-01-01", "BE.GES:BE.MEM")
		require.NoError(t, err)
		assert.Equal(t, StateDone, job.State)
		job, err = store.GetByKey(ctx, "STACK", "2024-01-02", "BE.GES:BE.MEM")
		require.NoError(t, err)
		assert.Equal(t, StateDone, job.State)

		// Unscoped invalidation flips every remaining DONE row of the type.
		n, err = store.InvalidateDone(ctx, "CC", nil, "")
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)
	})
}

func TestStore_ResetStale(t *testing.T) {
	forEachStore(t, func(t *testing.T, store Store) {
		ctx := context.Background()
		seedJobs(t, store,
			NewJob("CC", "2024-01-01", "BE.GES:BE.MEM"),
			NewJob("CC", "2024-01-02", "BE.GES:BE.MEM"),
		)

		job, err := store.GetByKey(ctx, "CC", "2024-01-01", "BE.GES:BE.MEM")
		require.NoError(t, err)
		ok, err := store.CompareAndSwap(ctx, job.ID, StateTodo, StateInProgress,
			Update{ClaimedBy: strptr("worker-dead")})
		require.NoError(t, err)
		require.True(t, ok)

		// Cutoff in the past: the fresh claim is not stale.
		n, err := store.ResetStale(ctx, time.Now().Add(-time.Hour))
		require.NoError(t, err)
		assert.Equal(t, int64(0), n)

		// Cutoff in the future: the claim is reclaimed and annotated.
		n, err = store.ResetStale(ctx, time.Now().Add(time.Hour))
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)

		got, err := store.Get(ctx, job.ID)
		require.NoError(t, err)
		assert.Equal(t, StateTodo, got.State)
		assert.Empty(t, got.ClaimedBy)
		assert.Contains(t, got.Notes, "worker-dead")
	})
}

func TestStore_Counts(t *testing.T) {
	forEachStore(t, func(t *testing.T, store Store) {
		ctx := context.Background()
		seedJobs(t, store,
			NewJob("CC", "2024-01-01", "BE.GES:BE.MEM"),
			NewJob("CC", "2024-01-01", "BE.GES:BE.UCC"),
			NewJob("CC", "2024-01-02", "BE.GES:BE.MEM"),
			NewJob("STACK", "2024-01-01", "BE.GES:BE.MEM"),
		)

		job, err := store.GetByKey(ctx, "CC", "2024-01-01", "BE.GES:BE.MEM")
		require.NoError(t, err)
		ok, err := store.CompareAndSwap(ctx, job.ID, StateTodo, StateInProgress, Update{})
		require.NoError(t, err)
		require.True(t, ok)

		counts, err := store.Counts(ctx)
		require.NoError(t, err)
		assert.Equal(t, StateCounts{Todo: 2, InProgress: 1}, counts["CC"])
		assert.Equal(t, StateCounts{Todo: 1}, counts["STACK"])
		assert.Equal(t, 3, counts["CC"].Total())

		byDay, err := store.CountsByDay(ctx, "CC")
		require.NoError(t, err)
		require.Len(t, byDay, 2)
		assert.Equal(t, "2024-01-01", byDay[0].Day)
		assert.Equal(t, 1, byDay[0].Todo)
		assert.Equal(t, 1, byDay[0].InProgress)
		assert.Equal(t, "2024-01-02", byDay[1].Day)
		assert.Equal(t, 1, byDay[1].Todo)
	})
}

func TestStore_DeleteByPair(t *testing.T) {
	forEachStore(t, func(t *testing.T, store Store) {
		ctx := context.Background()
		seedJobs(t, store,
			NewJob("CC", "2024-01-01", "BE.GES:BE.MEM"),
			NewJob("STACK", "2024-01-01", "BE.GES:BE.MEM"),
			NewJob("CC", "2024-01-01", "BE.GES:BE.UCC"),
		)

		n, err := store.DeleteByPair(ctx, "BE.GES:BE.MEM")
		require.NoError(t, err)
		assert.Equal(t, int64(2), n)

		_, err = store.GetByKey(ctx, "CC", "2024-01-01", "BE.GES:BE.MEM")
		assert.True(t, errors.IsNotFound(err))
		_, err = store.GetByKey(ctx, "CC", "2024-01-01", "BE.GES:BE.UCC")
		assert.NoError(t, err)
	})
}
