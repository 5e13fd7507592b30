package jobs

import (
	"context"
	"time"

	"github.com/seismolab/noiseq/errors"
	"github.com/seismolab/noiseq/logger"
)

// Reconciler records job outcomes and applies the operator-facing state
// repairs: invalidation after an upstream change and recovery of claims
// abandoned by dead workers.
type Reconciler struct {
	store Store
}

// NewReconciler creates a reconciler over the given store.
func NewReconciler(store Store) *Reconciler {
	return &Reconciler{store: store}
}

// Complete marks an IN_PROGRESS job DONE and clears its claim. Completing a
// job that is already DONE is a no-op, so a worker that crashed after the
// transition but before acknowledging it can safely retry. Completing a
// TODO job is an ErrInvalidTransition: it means the claim was reset under
// the worker and a later run may redo the work.
func (r *Reconciler) Complete(ctx context.Context, id int64) error {
	ok, err := r.store.CompareAndSwap(ctx, id, StateInProgress, StateDone,
		Update{ClaimedBy: strptr(""), Notes: strptr("")})
	if err != nil {
		return err
	}
	if ok {
		return nil
	}

	job, err := r.store.Get(ctx, id)
	if err != nil {
		return err
	}
	if job.State == StateDone {
		return nil
	}
	return errors.Wrapf(errors.ErrInvalidTransition,
		"cannot complete job %s in state %s", job.Key(), job.State.Name())
}

// Fail returns an IN_PROGRESS job to TODO, recording the failure reason and
// clearing the claim so another worker can pick it up.
func (r *Reconciler) Fail(ctx context.Context, id int64, reason string) error {
	ok, err := r.store.CompareAndSwap(ctx, id, StateInProgress, StateTodo,
		Update{ClaimedBy: strptr(""), Notes: strptr(reason)})
	if err != nil {
		return err
	}
	if ok {
		logger.Warnw("Job failed, returned to pool", "job_id", id, "reason", reason)
		return nil
	}

	job, err := r.store.Get(ctx, id)
	if err != nil {
		return err
	}
	return errors.Wrapf(errors.ErrInvalidTransition,
		"cannot fail job %s in state %s", job.Key(), job.State.Name())
}

// Requeue makes the identified job runnable again, creating it if it does
// not exist. This is how one processing step schedules its successor: when
// a correlation day completes, its stacking job is requeued regardless of
// whether it already ran.
//
// A job already TODO is left alone, and an IN_PROGRESS job is left to its
// current holder (the fresh inputs land before the successor actually runs,
// or the next invalidation sweeps it up).
func (r *Reconciler) Requeue(ctx context.Context, jobType, day, pair string) error {
	job, err := r.store.GetByKey(ctx, jobType, day, pair)
	if errors.IsNotFound(err) {
		_, err := r.store.InsertMissing(ctx, []Job{NewJob(jobType, day, pair)})
		return err
	}
	if err != nil {
		return err
	}

	switch job.State {
	case StateTodo, StateInProgress:
		return nil
	default:
		_, err := r.store.CompareAndSwap(ctx, job.ID, StateDone, StateTodo,
			Update{ClaimedBy: strptr("")})
		return err
	}
}

// Invalidate flips matching DONE jobs of one type back to TODO, typically
// after a parameter change or reprocessed input data. Empty pairs means all
// pairs; empty fromDay means all days. TODO and IN_PROGRESS jobs are
// untouched. Returns the number of jobs invalidated.
func (r *Reconciler) Invalidate(ctx context.Context, jobType string, pairs []string, fromDay string) (int64, error) {
	n, err := r.store.InvalidateDone(ctx, jobType, pairs, fromDay)
	if err != nil {
		return 0, err
	}
	logger.Infow("Invalidated completed jobs", "job_type", jobType, "count", n)
	return n, nil
}

// ResetStale returns jobs whose claim is older than threshold to TODO. Run
// it periodically (or at daemon startup) to recover work abandoned by
// crashed workers. Returns the number of jobs reset.
func (r *Reconciler) ResetStale(ctx context.Context, threshold time.Duration) (int64, error) {
	cutoff := time.Now().Add(-threshold)
	n, err := r.store.ResetStale(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		logger.Warnw("Reset stale job claims", "count", n, "threshold", threshold)
	}
	return n, nil
}
