package task

import (
	"fmt"
	"sort"
)

// Blockers returns the uids in t.DependsOn whose tasks are present in byUID
// and not done. Dependencies missing from byUID (archived) do not block.
func Blockers(t Task, byUID map[string]Task) []string {
	var out []string
	for _, dep := range t.DependsOn {
		other, ok := byUID[dep]
		if ok && other.Status != StatusDone {
			out = append(out, dep)
		}
	}
	return out
}

// Ready returns the active tasks of all that have no blockers, in input order.
func Ready(all []Task) []Task {
	byUID := make(map[string]Task, len(all))
	for _, t := range all {
		byUID[t.UID] = t
	}
	out := make([]Task, 0, len(all))
	for _, t := range all {
		if t.Active() && len(Blockers(t, byUID)) == 0 {
			out = append(out, t)
		}
	}
	return out
}

// SelectNextReady chooses the next task from a ready list and returns a
// selection reason. Tasks already in progress come first, then higher
// priority, then earlier due date, then older tasks.
func SelectNextReady(ready []Task) (Task, string, error) {
	if len(ready) == 0 {
		return Task{}, "no_ready_tasks", fmt.Errorf("no ready tasks: %w", ErrNotFound)
	}

	candidates := make([]Task, len(ready))
	copy(candidates, ready)
	sort.SliceStable(candidates, func(i, j int) bool {
		left := candidates[i]
		right := candidates[j]
		leftStarted := left.Status == StatusInProgress
		rightStarted := right.Status == StatusInProgress
		if leftStarted != rightStarted {
			return leftStarted
		}
		if lr, rr := priorityRank(left.Priority), priorityRank(right.Priority); lr != rr {
			if lr == unknownPriorityRank || rr == unknownPriorityRank {
				return rr == unknownPriorityRank
			}
			return lr > rr
		}
		if c := compareDue(left, right); c != 0 {
			// Tasks with a due date go before tasks without one.
			if left.DueDate == nil || right.DueDate == nil {
				return right.DueDate == nil
			}
			return c < 0
		}
		if !left.CreatedAt.Equal(right.CreatedAt) {
			return left.CreatedAt.Before(right.CreatedAt)
		}
		return left.ID < right.ID
	})

	selected := candidates[0]
	due := "none"
	if selected.DueDate != nil {
		due = selected.DueDate.Format(DateLayout)
	}
	reason := fmt.Sprintf("status=%s priority=%s due=%s created_at=%s",
		selected.Status,
		selected.Priority,
		due,
		formatTime(selected.CreatedAt),
	)
	return selected, reason, nil
}
