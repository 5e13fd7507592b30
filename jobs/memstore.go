package jobs

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/seismolab/noiseq/errors"
)

// MemStore is an in-memory Store. It exists to prove the claim contract
// independent of any storage engine and to back fast unit tests; production
// code uses SQLStore.
type MemStore struct {
	mu     sync.Mutex
	nextID int64
	byID   map[int64]*Job
	byKey  map[string]int64
}

// NewMemStore creates an empty in-memory job store.
func NewMemStore() *MemStore {
	return &MemStore{
		nextID: 1,
		byID:   make(map[int64]*Job),
		byKey:  make(map[string]int64),
	}
}

func memKey(jobType, day, pair string) string {
	return fmt.Sprintf("%s/%s/%s", jobType, day, pair)
}

func (s *MemStore) InsertMissing(_ context.Context, batch []Job) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	inserted := 0
	for _, job := range batch {
		key := memKey(job.Type, job.Day, job.Pair)
		if _, exists := s.byKey[key]; exists {
			continue
		}
		j := job
		j.ID = s.nextID
		j.State = StateTodo
		j.LastModified = time.Now()
		s.nextID++
		s.byID[j.ID] = &j
		s.byKey[key] = j.ID
		inserted++
	}
	return inserted, nil
}

func (s *MemStore) Get(_ context.Context, id int64) (*Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.byID[id]
	if !ok {
		return nil, errors.Wrapf(errors.ErrNotFound, "job %d", id)
	}
	cp := *job
	return &cp, nil
}

func (s *MemStore) GetByKey(_ context.Context, jobType, day, pair string) (*Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.byKey[memKey(jobType, day, pair)]
	if !ok {
		return nil, errors.Wrapf(errors.ErrNotFound, "job %s/%s/%s", jobType, day, pair)
	}
	cp := *s.byID[id]
	return &cp, nil
}

func (s *MemStore) ListTodo(_ context.Context, f Filter, limit int) ([]*Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var pairSet map[string]bool
	if len(f.Pairs) > 0 {
		pairSet = make(map[string]bool, len(f.Pairs))
		for _, p := range f.Pairs {
			pairSet[p] = true
		}
	}

	var out []*Job
	for _, job := range s.byID {
		if job.Type != f.Type || job.State != StateTodo {
			continue
		}
		if f.DayFrom != "" && job.Day < f.DayFrom {
			continue
		}
		if f.DayTo != "" && job.Day > f.DayTo {
			continue
		}
		if pairSet != nil && !pairSet[job.Pair] {
			continue
		}
		cp := *job
		out = append(out, &cp)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Day != out[j].Day {
			return out[i].Day < out[j].Day
		}
		if out[i].Pair != out[j].Pair {
			return out[i].Pair < out[j].Pair
		}
		return out[i].ID < out[j].ID
	})

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *MemStore) CompareAndSwap(_ context.Context, id int64, from, to State, upd Update) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.byID[id]
	if !ok || job.State != from {
		return false, nil
	}
	job.State = to
	if upd.ClaimedBy != nil {
		job.ClaimedBy = *upd.ClaimedBy
	}
	if upd.Notes != nil {
		job.Notes = *upd.Notes
	}
	job.LastModified = time.Now()
	return true, nil
}

func (s *MemStore) InvalidateDone(_ context.Context, jobType string, pairs []string, fromDay string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var pairSet map[string]bool
	if len(pairs) > 0 {
		pairSet = make(map[string]bool, len(pairs))
		for _, p := range pairs {
			pairSet[p] = true
		}
	}

	var n int64
	for _, job := range s.byID {
		if job.Type != jobType || job.State != StateDone {
			continue
		}
		if pairSet != nil && !pairSet[job.Pair] {
			continue
		}
		if fromDay != "" && job.Day < fromDay {
			continue
		}
		job.State = StateTodo
		job.ClaimedBy = ""
		job.LastModified = time.Now()
		n++
	}
	return n, nil
}

func (s *MemStore) ResetStale(_ context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for _, job := range s.byID {
		if job.State != StateInProgress || !job.LastModified.Before(cutoff) {
			continue
		}
		owner := job.ClaimedBy
		if owner == "" {
			owner = "unknown"
		}
		job.State = StateTodo
		job.Notes = fmt.Sprintf("stale claim reset (was held by %s)", owner)
		job.ClaimedBy = ""
		job.LastModified = time.Now()
		n++
	}
	return n, nil
}

func (s *MemStore) Counts(_ context.Context) (map[string]StateCounts, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string]StateCounts)
	for _, job := range s.byID {
		c := out[job.Type]
		switch job.State {
		case StateTodo:
			c.Todo++
		case StateInProgress:
			c.InProgress++
		case StateDone:
			c.Done++
		}
		out[job.Type] = c
	}
	return out, nil
}

func (s *MemStore) CountsByDay(_ context.Context, jobType string) ([]DayCounts, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	byDay := make(map[string]*DayCounts)
	for _, job := range s.byID {
		if job.Type != jobType {
			continue
		}
		c, ok := byDay[job.Day]
		if !ok {
			c = &DayCounts{Day: job.Day}
			byDay[job.Day] = c
		}
		switch job.State {
		case StateTodo:
			c.Todo++
		case StateInProgress:
			c.InProgress++
		case StateDone:
			c.Done++
		}
	}

	out := make([]DayCounts, 0, len(byDay))
	for _, c := range byDay {
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Day < out[j].Day })
	return out, nil
}

func (s *MemStore) DeleteByPair(_ context.Context, pair string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for id, job := range s.byID {
		if job.Pair != pair {
			continue
		}
		delete(s.byID, id)
		delete(s.byKey, memKey(job.Type, job.Day, job.Pair))
		n++
	}
	return n, nil
}
