package jobs

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/seismolab/noiseq/errors"
)

// SQLStore persists jobs in the shared SQLite database.
type SQLStore struct {
	db *sql.DB
}

// NewSQLStore creates a job store over the given database.
func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db}
}

const jobColumns = `id, job_type, day, pair, state, claimed_by, notes, last_modified`

func scanJob(scanner interface{ Scan(...interface{}) error }) (*Job, error) {
	var job Job
	var claimedBy, notes sql.NullString
	err := scanner.Scan(
		&job.ID,
		&job.Type,
		&job.Day,
		&job.Pair,
		&job.State,
		&claimedBy,
		&notes,
		&job.LastModified,
	)
	if err != nil {
		return nil, err
	}
	if claimedBy.Valid {
		job.ClaimedBy = claimedBy.String
	}
	if notes.Valid {
		job.Notes = notes.String
	}
	return &job, nil
}

// InsertMissing inserts absent jobs as TODO, one atomic statement per row.
// Existing rows keep their state; a partial failure leaves already-inserted
// rows intact.
func (s *SQLStore) InsertMissing(ctx context.Context, batch []Job) (int, error) {
	query := `
		INSERT INTO jobs (job_type, day, pair, state, last_modified)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (job_type, day, pair) DO NOTHING
	`

	inserted := 0
	for _, job := range batch {
		res, err := s.db.ExecContext(ctx, query,
			job.Type, job.Day, job.Pair, StateTodo, time.Now())
		if err != nil {
			return inserted, errors.Wrapf(err, "failed to insert job %s", job.Key())
		}
		rows, err := res.RowsAffected()
		if err != nil {
			return inserted, errors.Wrap(err, "failed to get rows affected")
		}
		inserted += int(rows)
	}
	return inserted, nil
}

// Get retrieves a job by ID.
func (s *SQLStore) Get(ctx context.Context, id int64) (*Job, error) {
	query := `SELECT ` + jobColumns + ` FROM jobs WHERE id = ?`

	job, err := scanJob(s.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errors.Wrapf(errors.ErrNotFound, "job %d", id)
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to get job")
	}
	return job, nil
}

// GetByKey retrieves a job by its natural key.
func (s *SQLStore) GetByKey(ctx context.Context, jobType, day, pair string) (*Job, error) {
	query := `SELECT ` + jobColumns + ` FROM jobs WHERE job_type = ? AND day = ? AND pair = ?`

	job, err := scanJob(s.db.QueryRowContext(ctx, query, jobType, day, pair))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errors.Wrapf(errors.ErrNotFound, "job %s/%s/%s", jobType, day, pair)
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to get job by key")
	}
	return job, nil
}

// ListTodo returns TODO jobs matching the filter in deterministic
// (day, pair, id) order so concurrent workers drain the same logical queue
// with minimal contention.
func (s *SQLStore) ListTodo(ctx context.Context, f Filter, limit int) ([]*Job, error) {
	var sb strings.Builder
	sb.WriteString(`SELECT ` + jobColumns + ` FROM jobs WHERE job_type = ? AND state = ?`)
	args := []interface{}{f.Type, StateTodo}

	if f.DayFrom != "" {
		sb.WriteString(` AND day >= ?`)
		args = append(args, f.DayFrom)
	}
	if f.DayTo != "" {
		sb.WriteString(` AND day <= ?`)
		args = append(args, f.DayTo)
	}
	if len(f.Pairs) > 0 {
		sb.WriteString(` AND pair IN (?` + strings.Repeat(", ?", len(f.Pairs)-1) + `)`)
		for _, p := range f.Pairs {
			args = append(args, p)
		}
	}

	sb.WriteString(` ORDER BY day ASC, pair ASC, id ASC`)
	if limit > 0 {
		sb.WriteString(` LIMIT ?`)
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list todo jobs")
	}
	defer rows.Close()

	var out []*Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, errors.Wrap(err, "failed to scan job")
		}
		out = append(out, job)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "error iterating todo jobs")
	}
	return out, nil
}

// CompareAndSwap performs the single conditional update at the heart of the
// claim protocol. The WHERE clause carries both id and expected state, so
// under concurrent callers at most one UPDATE can match.
func (s *SQLStore) CompareAndSwap(ctx context.Context, id int64, from, to State, upd Update) (bool, error) {
	var sb strings.Builder
	sb.WriteString(`UPDATE jobs SET state = ?, last_modified = ?`)
	args := []interface{}{to, time.Now()}

	if upd.ClaimedBy != nil {
		sb.WriteString(`, claimed_by = ?`)
		if *upd.ClaimedBy == "" {
			args = append(args, nil)
		} else {
			args = append(args, *upd.ClaimedBy)
		}
	}
	if upd.Notes != nil {
		sb.WriteString(`, notes = ?`)
		if *upd.Notes == "" {
			args = append(args, nil)
		} else {
			args = append(args, *upd.Notes)
		}
	}

	sb.WriteString(` WHERE id = ? AND state = ?`)
	args = append(args, id, from)

	res, err := s.db.ExecContext(ctx, sb.String(), args...)
	if err != nil {
		return false, errors.Wrapf(err, "failed to transition job %d %s->%s", id, from, to)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, errors.Wrap(err, "failed to get rows affected")
	}
	return rows == 1, nil
}

// InvalidateDone flips matching DONE jobs back to TODO in one statement.
// Each row flips atomically; IN_PROGRESS holders are deliberately left to
// finish (their completion stands).
func (s *SQLStore) InvalidateDone(ctx context.Context, jobType string, pairs []string, fromDay string) (int64, error) {
	var sb strings.Builder
	sb.WriteString(`UPDATE jobs SET state = ?, claimed_by = NULL, last_modified = ? WHERE job_type = ? AND state = ?`)
	args := []interface{}{StateTodo, time.Now(), jobType, StateDone}

	if len(pairs) > 0 {
		sb.WriteString(` AND pair IN (?` + strings.Repeat(", ?", len(pairs)-1) + `)`)
		for _, p := range pairs {
			args = append(args, p)
		}
	}
	if fromDay != "" {
		sb.WriteString(` AND day >= ?`)
		args = append(args, fromDay)
	}

	res, err := s.db.ExecContext(ctx, sb.String(), args...)
	if err != nil {
		return 0, errors.Wrapf(err, "failed to invalidate %s jobs", jobType)
	}
	return res.RowsAffected()
}

// ResetStale returns abandoned IN_PROGRESS jobs to the pool, keeping the
// previous owner visible in notes for the operator.
func (s *SQLStore) ResetStale(ctx context.Context, cutoff time.Time) (int64, error) {
	query := `
		UPDATE jobs
		SET state = ?,
		    notes = 'stale claim reset (was held by ' || COALESCE(claimed_by, 'unknown') || ')',
		    claimed_by = NULL,
		    last_modified = ?
		WHERE state = ? AND last_modified < ?
	`

	res, err := s.db.ExecContext(ctx, query, StateTodo, time.Now(), StateInProgress, cutoff)
	if err != nil {
		return 0, errors.Wrap(err, "failed to reset stale jobs")
	}
	return res.RowsAffected()
}

// Counts tallies jobs by state for every job type.
func (s *SQLStore) Counts(ctx context.Context) (map[string]StateCounts, error) {
	query := `SELECT job_type, state, COUNT(*) FROM jobs GROUP BY job_type, state`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, errors.Wrap(err, "failed to count jobs")
	}
	defer rows.Close()

	out := make(map[string]StateCounts)
	for rows.Next() {
		var jobType string
		var state State
		var n int
		if err := rows.Scan(&jobType, &state, &n); err != nil {
			return nil, errors.Wrap(err, "failed to scan job counts")
		}
		c := out[jobType]
		switch state {
		case StateTodo:
			c.Todo = n
		case StateInProgress:
			c.InProgress = n
		case StateDone:
			c.Done = n
		}
		out[jobType] = c
	}
	return out, rows.Err()
}

// CountsByDay tallies one job type by reference day, ascending.
func (s *SQLStore) CountsByDay(ctx context.Context, jobType string) ([]DayCounts, error) {
	query := `
		SELECT day, state, COUNT(*)
		FROM jobs
		WHERE job_type = ?
		GROUP BY day, state
		ORDER BY day ASC
	`

	rows, err := s.db.QueryContext(ctx, query, jobType)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to count %s jobs by day", jobType)
	}
	defer rows.Close()

	var out []DayCounts
	index := make(map[string]int)
	for rows.Next() {
		var day string
		var state State
		var n int
		if err := rows.Scan(&day, &state, &n); err != nil {
			return nil, errors.Wrap(err, "failed to scan day counts")
		}
		i, ok := index[day]
		if !ok {
			out = append(out, DayCounts{Day: day})
			i = len(out) - 1
			index[day] = i
		}
		switch state {
		case StateTodo:
			out[i].Todo = n
		case StateInProgress:
			out[i].InProgress = n
		case StateDone:
			out[i].Done = n
		}
	}
	return out, rows.Err()
}

// DeleteByPair removes every job for an entity. Only used when the station
// or pair is removed from the inventory.
func (s *SQLStore) DeleteByPair(ctx context.Context, pair string) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM jobs WHERE pair = ?`, pair)
	if err != nil {
		return 0, errors.Wrapf(err, "failed to delete jobs for pair %s", pair)
	}
	return res.RowsAffected()
}
