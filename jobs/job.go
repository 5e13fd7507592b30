// Package jobs is the scheduling and bookkeeping core shared by all batch
// processing steps. Many independent worker processes coordinate purely
// through the persisted job table: each claims disjoint jobs via a per-job
// compare-and-set, executes the scientific step externally, and reports the
// outcome back through the Reconciler.
package jobs

import (
	"fmt"
	"time"
)

// Job is one unit of scheduled work: one processing step (Type) for one
// station or station pair (Pair) on one reference day (Day).
//
// Identity is the natural key (Type, Day, Pair) and is immutable; only
// State, ClaimedBy, Notes and LastModified ever change. The numeric ID is a
// storage handle, convenient for reconciliation calls.
type Job struct {
	ID           int64     `json:"id"`
	Type         string    `json:"job_type"` // "CC", "STACK", "PSD", ...
	Day          string    `json:"day"`      // YYYY-MM-DD
	Pair         string    `json:"pair"`     // "NET.STA:NET.STA" or a single station code
	State        State     `json:"state"`
	ClaimedBy    string    `json:"claimed_by,omitempty"` // worker identifier while IN_PROGRESS
	Notes        string    `json:"notes,omitempty"`      // last failure reason or reset diagnostic
	LastModified time.Time `json:"last_modified"`
}

// NewJob creates a TODO job for the given unit of work.
func NewJob(jobType, day, pair string) Job {
	return Job{
		Type:         jobType,
		Day:          day,
		Pair:         pair,
		State:        StateTodo,
		LastModified: time.Now(),
	}
}

// Key returns the natural-key string, useful in logs.
func (j *Job) Key() string {
	return fmt.Sprintf("%s/%s/%s", j.Type, j.Day, j.Pair)
}
