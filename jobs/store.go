package jobs

import (
	"context"
	"time"
)

// Filter narrows job queries. Type is required everywhere a Filter is taken;
// the other fields are optional (zero value = no constraint).
type Filter struct {
	Type    string
	Pairs   []string // exact pair keys
	DayFrom string   // inclusive, YYYY-MM-DD
	DayTo   string   // inclusive, YYYY-MM-DD
}

// Update carries the mutable fields a state transition may set. Nil means
// "leave unchanged"; a pointer to the empty string clears the column.
type Update struct {
	ClaimedBy *string
	Notes     *string
}

// StateCounts is the per-state tally for one job type.
type StateCounts struct {
	Todo       int `json:"todo"`
	InProgress int `json:"in_progress"`
	Done       int `json:"done"`
}

// Total returns the number of jobs across all states.
func (c StateCounts) Total() int {
	return c.Todo + c.InProgress + c.Done
}

// DayCounts is the per-state tally for one reference day of one job type.
type DayCounts struct {
	Day string `json:"day"`
	StateCounts
}

// Store is the durable collection of job records keyed by (type, day, pair).
//
// All mutations are atomic at single-job granularity. Bulk operations are a
// sequence of atomic single-job operations, never one giant transaction, so
// a partial failure cannot corrupt rows already written. CompareAndSwap is
// the sole concurrency-control primitive: it must be a single conditional
// update so that a TODO job is claimed by at most one of N racing workers.
//
// Two implementations exist: SQLStore over the shared SQLite database, and
// MemStore, which proves the claim contract independent of any storage
// engine and backs fast unit tests.
type Store interface {
	// InsertMissing inserts every job whose (type, day, pair) key is absent,
	// as TODO, leaving existing rows in any state untouched. Returns the
	// number of rows actually inserted.
	InsertMissing(ctx context.Context, batch []Job) (int, error)

	// Get returns the job with the given ID, or ErrNotFound.
	Get(ctx context.Context, id int64) (*Job, error)

	// GetByKey returns the job with the given natural key, or ErrNotFound.
	GetByKey(ctx context.Context, jobType, day, pair string) (*Job, error)

	// ListTodo returns up to limit TODO jobs matching the filter, ordered by
	// (day ASC, pair ASC, id ASC). limit <= 0 means no limit.
	ListTodo(ctx context.Context, f Filter, limit int) ([]*Job, error)

	// CompareAndSwap transitions the job from -> to only if its current
	// state is exactly from, applying upd and refreshing last_modified in
	// the same atomic operation. Returns false (no error) when the job was
	// not in the expected state — the caller lost a race or is retrying.
	CompareAndSwap(ctx context.Context, id int64, from, to State, upd Update) (bool, error)

	// InvalidateDone flips matching DONE jobs back to TODO (fromDay empty =
	// all days; pairs empty = all pairs) and returns the number affected.
	InvalidateDone(ctx context.Context, jobType string, pairs []string, fromDay string) (int64, error)

	// ResetStale flips IN_PROGRESS jobs whose last_modified is older than
	// cutoff back to TODO, recording the previous owner in notes. Returns
	// the number affected.
	ResetStale(ctx context.Context, cutoff time.Time) (int64, error)

	// Counts tallies jobs by state for every job type.
	Counts(ctx context.Context) (map[string]StateCounts, error)

	// CountsByDay tallies one job type by day, ascending.
	CountsByDay(ctx context.Context, jobType string) ([]DayCounts, error)

	// DeleteByPair removes all jobs for an entity, used only when the
	// station or pair itself is removed from the inventory.
	DeleteByPair(ctx context.Context, pair string) (int64, error)
}

func strptr(s string) *string { return &s }
