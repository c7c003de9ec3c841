package todo

import "math"

// FilterTasks returns the tasks selected by f in their original order.
// The input slice is never modified.
func FilterTasks(tasks []Task, f Filter) []Task {
	out := make([]Task, 0, len(tasks))
	for _, t := range tasks {
		switch f {
		case FilterPending:
			if t.Completed {
				continue
			}
		case FilterCompleted:
			if !t.Completed {
				continue
			}
		}
		out = append(out, t)
	}
	return out
}

// ComputeStats aggregates over the full collection.
func ComputeStats(tasks []Task) Stats {
	s := Stats{Total: len(tasks)}
	for _, t := range tasks {
		if t.Completed {
			s.Completed++
		}
	}
	s.Pending = s.Total - s.Completed
	if s.Total > 0 {
		s.CompletionRate = int(math.Round(float64(s.Completed) / float64(s.Total) * 100))
	}
	return s
}

// CountByPriority counts pending tasks per priority.
func CountByPriority(tasks []Task) map[Priority]int {
	counts := make(map[Priority]int, len(Priorities))
	for _, t := range tasks {
		if t.Completed {
			continue
		}
		counts[t.Priority]++
	}
	return counts
}

// CountByCategory counts tasks per category; uncategorized tasks are keyed by "".
func CountByCategory(tasks []Task) map[string]int {
	counts := map[string]int{}
	for _, t := range tasks {
		counts[t.Category]++
	}
	return counts
}
