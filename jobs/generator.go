package jobs

import (
	"context"

	"github.com/seismolab/noiseq/errors"
	"github.com/seismolab/noiseq/logger"
	"github.com/seismolab/noiseq/params"
)

// Generator materializes the expected workload from configuration: one job
// per (day, pair) over the configured date range. It is a pure producer;
// draining the queue is the workers' problem.
type Generator struct {
	store Store
}

// NewGenerator creates a generator over the given store.
func NewGenerator(store Store) *Generator {
	return &Generator{store: store}
}

// Sync inserts the missing jobs for the cross product of the snapshot's day
// range and the given pair keys, as TODO. Existing jobs keep their state
// whatever it is, so Sync is idempotent and safe to run on a schedule: two
// syncs with the same inputs leave the table identical, and re-running
// after extending the date range only adds the new days.
//
// Returns the number of jobs actually inserted.
func (g *Generator) Sync(ctx context.Context, jobType string, snap *params.Snapshot, pairs []string) (int, error) {
	if jobType == "" {
		return 0, errors.New("sync requires a job type")
	}
	if len(pairs) == 0 {
		logger.Warnw("Sync called with no pairs, nothing to generate", "job_type", jobType)
		return 0, nil
	}

	days := snap.Days()
	batch := make([]Job, 0, len(days)*len(pairs))
	for _, day := range days {
		for _, pair := range pairs {
			batch = append(batch, NewJob(jobType, day, pair))
		}
	}

	inserted, err := g.store.InsertMissing(ctx, batch)
	if err != nil {
		return inserted, errors.Wrapf(err, "failed to sync %s jobs", jobType)
	}

	logger.Infow("Synced jobs",
		"job_type", jobType,
		"days", len(days),
		"pairs", len(pairs),
		"inserted", inserted,
		"existing", len(batch)-inserted)
	return inserted, nil
}
