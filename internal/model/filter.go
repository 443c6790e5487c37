package model

import (
	"sort"
	"strings"
)

// StatusAll matches every status in a Filter.
const StatusAll = "all"

// Filter selects tasks for list views. Zero values match everything.
type Filter struct {
	Status   string // "all", "" or a Status
	Priority Priority
	Search   string
}

// Match reports whether the task passes the filter.
func (f Filter) Match(t *Task) bool {
	if f.Status != "" && f.Status != StatusAll && Status(f.Status) != t.Status {
		return false
	}
	if f.Priority != "" && f.Priority != t.Priority {
		return false
	}
	if f.Search != "" {
		q := strings.ToLower(f.Search)
		if !strings.Contains(strings.ToLower(t.Title), q) &&
			!strings.Contains(strings.ToLower(t.Description), q) {
			return false
		}
	}
	return true
}

// Apply returns the tasks that match, preserving order.
func (f Filter) Apply(tasks []*Task) []*Task {
	out := make([]*Task, 0, len(tasks))
	for _, t := range tasks {
		if f.Match(t) {
			out = append(out, t)
		}
	}
	return out
}

// FocusList returns pending tasks ordered high > medium > low.
// Ties keep their original order.
func FocusList(tasks []*Task) []*Task {
	var pending []*Task
	for _, t := range tasks {
		if t.Status != StatusCompleted {
			pending = append(pending, t)
		}
	}
	sort.SliceStable(pending, func(i, j int) bool {
		return pending[i].Priority.Rank() < pending[j].Priority.Rank()
	})
	return pending
}

// GroupByDueDate buckets tasks by their due date label.
// Tasks without a due date are omitted.
func GroupByDueDate(tasks []*Task) map[string][]*Task {
	groups := make(map[string][]*Task)
	for _, t := range tasks {
		if t.DueDate == "" {
			continue
		}
		groups[t.DueDate] = append(groups[t.DueDate], t)
	}
	return groups
}
