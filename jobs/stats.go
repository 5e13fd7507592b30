package jobs

import "context"

// QueueStats is the read-only status snapshot for operator tooling.
type QueueStats struct {
	// ByType holds per-state counts for every job type present.
	ByType map[string]StateCounts `json:"by_type"`
	// ByDay holds the per-day breakdown for each job type.
	ByDay map[string][]DayCounts `json:"by_day"`
}

// Total returns the number of jobs across all types and states.
func (s *QueueStats) Total() int {
	total := 0
	for _, c := range s.ByType {
		total += c.Total()
	}
	return total
}

// Stats collects the current queue status from the store.
func Stats(ctx context.Context, store Store) (*QueueStats, error) {
	byType, err := store.Counts(ctx)
	if err != nil {
		return nil, err
	}

	stats := &QueueStats{
		ByType: byType,
		ByDay:  make(map[string][]DayCounts, len(byType)),
	}
	for jobType := range byType {
		byDay, err := store.CountsByDay(ctx, jobType)
		if err != nil {
			return nil, err
		}
		stats.ByDay[jobType] = byDay
	}
	return stats, nil
}
