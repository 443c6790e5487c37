package report

import (
	"sort"
	"time"

	"github.com/manav03panchal/tasktime/internal/model"
	"github.com/manav03panchal/tasktime/internal/parser"
)

// Day is one calendar day with the tasks due on it.
type Day struct {
	Date  time.Time     `json:"-"`
	Label string        `json:"date"`
	Tasks []*model.Task `json:"tasks"`
}

// Calendar groups tasks by due date and returns the days inside r in date
// order. Tasks without a parseable due date are left out. A zero range keeps
// every day.
func Calendar(tasks []*model.Task, r parser.TimeRange) []Day {
	byLabel := model.GroupByDueDate(tasks)
	days := make([]Day, 0, len(byLabel))
	for label, group := range byLabel {
		due, err := time.ParseInLocation(model.DueDateLayout, label, time.Local)
		if err != nil || !r.Contains(due) {
			continue
		}
		sort.SliceStable(group, func(i, j int) bool {
			return group[i].Priority.Rank() < group[j].Priority.Rank()
		})
		days = append(days, Day{Date: due, Label: label, Tasks: group})
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Date.Before(days[j].Date) })
	return days
}
