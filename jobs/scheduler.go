package jobs

import (
	"context"

	"github.com/seismolab/noiseq/errors"
)

// ClaimRequest describes one claim attempt by one worker.
type ClaimRequest struct {
	Type     string   // job type to claim (required)
	WorkerID string   // stable worker identity, recorded in claimed_by (required)
	Pairs    []string // optional: restrict to these pair keys
	DayFrom  string   // optional: inclusive lower day bound
	DayTo    string   // optional: inclusive upper day bound
	Max      int      // claim at most this many; <= 0 means no cap
}

// Scheduler hands out jobs to workers. It holds no state of its own; all
// coordination happens through the store's compare-and-swap, so any number
// of Scheduler instances in any number of processes can run concurrently
// against the same database.
type Scheduler struct {
	store Store
}

// NewScheduler creates a scheduler over the given store.
func NewScheduler(store Store) *Scheduler {
	return &Scheduler{store: store}
}

// claimChunk bounds how many candidates each list query fetches when the
// caller asked for an uncapped claim.
const claimChunk = 100

// Claim atomically claims up to req.Max TODO jobs for req.WorkerID, flipping
// each to IN_PROGRESS. Jobs are claimed in (day, pair) order. A job that
// another worker wins mid-flight is skipped, not an error; the two result
// sets of concurrent claimants are always disjoint.
//
// An empty result with a nil error means no matching TODO jobs remain.
func (s *Scheduler) Claim(ctx context.Context, req ClaimRequest) ([]*Job, error) {
	if req.Type == "" {
		return nil, errors.New("claim request missing job type")
	}
	if req.WorkerID == "" {
		return nil, errors.New("claim request missing worker ID")
	}

	filter := Filter{
		Type:    req.Type,
		Pairs:   req.Pairs,
		DayFrom: req.DayFrom,
		DayTo:   req.DayTo,
	}

	var claimed []*Job
	for {
		fetch := claimChunk
		if req.Max > 0 {
			fetch = req.Max - len(claimed)
			if fetch <= 0 {
				break
			}
		}

		candidates, err := s.store.ListTodo(ctx, filter, fetch)
		if err != nil {
			return claimed, errors.Wrap(err, "failed to list claimable jobs")
		}
		if len(candidates) == 0 {
			break
		}

		for _, job := range candidates {
			if req.Max > 0 && len(claimed) >= req.Max {
				break
			}
			ok, err := s.store.CompareAndSwap(ctx, job.ID, StateTodo, StateInProgress,
				Update{ClaimedBy: strptr(req.WorkerID)})
			if err != nil {
				return claimed, errors.Wrapf(err, "failed to claim job %s", job.Key())
			}
			if !ok {
				// Lost the race for this job; another worker has it.
				continue
			}
			job.State = StateInProgress
			job.ClaimedBy = req.WorkerID
			claimed = append(claimed, job)
		}

		if len(candidates) < fetch {
			// Fewer TODO rows existed than we asked for. Any candidate we
			// did not win now belongs to another worker, so a re-query
			// would come back empty.
			break
		}
	}
	return claimed, nil
}
