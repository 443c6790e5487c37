// Package report computes task metrics, distributions and insights for the
// report command and the dashboard.
package report

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/manav03panchal/tasktime/internal/model"
	"github.com/manav03panchal/tasktime/internal/parser"
)

// Kind selects which distribution a report leads with.
type Kind string

const (
	KindStatus   Kind = "status"
	KindPriority Kind = "priority"
	KindTime     Kind = "time"
)

// Kinds lists the accepted report kinds.
var Kinds = []Kind{KindStatus, KindPriority, KindTime}

// ParseKind parses a report kind; empty means status.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "status":
		return KindStatus, nil
	case "priority":
		return KindPriority, nil
	case "time", "time-spent":
		return KindTime, nil
	}
	return "", fmt.Errorf("invalid report type %q (use status, priority or time)", s)
}

// Insight messages.
const (
	InsightNoTasks        = "Add tasks to see insights"
	InsightExcellent      = "Great job! Your task completion rate is excellent."
	InsightGoodProgress   = "You're making good progress on your tasks."
	InsightFocusComplete  = "Consider focusing on completing more tasks."
	InsightFocusHighPrio  = "Focus on completing high priority tasks."
	insightHighInProgress = "You have %d high priority %s in progress."
)

// Metrics are the headline numbers of a report.
type Metrics struct {
	TotalTasks             int     `json:"totalTasks"`
	Completed              int     `json:"completed"`
	CompletionRate         float64 `json:"completionRate"`
	TotalSeconds           int64   `json:"totalSeconds"`
	AverageSeconds         int64   `json:"averageSeconds"`
	HighPriorityTotal      int     `json:"highPriorityTotal"`
	HighPriorityRate       float64 `json:"highPriorityRate"`
	HighPriorityInProgress int     `json:"highPriorityInProgress"`
}

// Bucket is one slice of a distribution.
type Bucket struct {
	Key     string  `json:"key"`
	Label   string  `json:"label"`
	Count   int     `json:"count"`
	Seconds int64   `json:"seconds"`
	Hours   float64 `json:"hours"`
}

// Report is the computed report for a range.
type Report struct {
	Kind       Kind             `json:"type"`
	Period     string           `json:"range"`
	Range      parser.TimeRange `json:"-"`
	Metrics    Metrics          `json:"metrics"`
	ByStatus   []Bucket         `json:"byStatus"`
	ByPriority []Bucket         `json:"byPriority"`
	Insights   []string         `json:"insights"`
}

// Build filters tasks to the period and computes the report.
func Build(tasks []*model.Task, kind Kind, period string, now time.Time) (*Report, error) {
	r, err := parser.PeriodRange(period, now)
	if err != nil {
		return nil, err
	}
	if period == "" {
		period = parser.PeriodAll
	}

	in := InRange(tasks, r)
	m := Compute(in)
	return &Report{
		Kind:       kind,
		Period:     period,
		Range:      r,
		Metrics:    m,
		ByStatus:   ByStatus(in),
		ByPriority: ByPriority(in),
		Insights:   Insights(m),
	}, nil
}

// InRange keeps the tasks whose due date, or creation time when there is no
// due date, falls in r. A zero range keeps everything. Tasks with neither
// date only appear in the all-time range.
func InRange(tasks []*model.Task, r parser.TimeRange) []*model.Task {
	if r.IsZero() {
		return tasks
	}
	out := make([]*model.Task, 0, len(tasks))
	for _, t := range tasks {
		at, ok := t.DueTime()
		if !ok {
			if t.CreatedAt.IsZero() {
				continue
			}
			at = t.CreatedAt
		}
		if r.Contains(at) {
			out = append(out, t)
		}
	}
	return out
}

// Compute aggregates the headline metrics.
func Compute(tasks []*model.Task) Metrics {
	var m Metrics
	var highDone int
	for _, t := range tasks {
		m.TotalTasks++
		m.TotalSeconds += t.TimeLogged
		if t.Status == model.StatusCompleted {
			m.Completed++
		}
		if t.Priority != model.PriorityHigh {
			continue
		}
		m.HighPriorityTotal++
		switch t.Status {
		case model.StatusCompleted:
			highDone++
		case model.StatusInProgress:
			m.HighPriorityInProgress++
		}
	}
	if m.TotalTasks > 0 {
		m.CompletionRate = percent(m.Completed, m.TotalTasks)
		m.AverageSeconds = int64(math.Round(float64(m.TotalSeconds) / float64(m.TotalTasks)))
	}
	if m.HighPriorityTotal > 0 {
		m.HighPriorityRate = percent(highDone, m.HighPriorityTotal)
	}
	return m
}

// ByStatus counts tasks and tracked hours per status, in display order.
func ByStatus(tasks []*model.Task) []Bucket {
	buckets := make([]Bucket, len(model.Statuses))
	index := make(map[model.Status]int, len(model.Statuses))
	for i, s := range model.Statuses {
		buckets[i] = Bucket{Key: string(s), Label: s.Label()}
		index[s] = i
	}
	for _, t := range tasks {
		if i, ok := index[t.Status]; ok {
			buckets[i].Count++
			buckets[i].Seconds += t.TimeLogged
		}
	}
	return withHours(buckets)
}

// ByPriority counts tasks and tracked hours per priority, high first.
func ByPriority(tasks []*model.Task) []Bucket {
	buckets := []Bucket{
		{Key: string(model.PriorityHigh), Label: "High"},
		{Key: string(model.PriorityMedium), Label: "Medium"},
		{Key: string(model.PriorityLow), Label: "Low"},
	}
	index := map[model.Priority]int{
		model.PriorityHigh:   0,
		model.PriorityMedium: 1,
		model.PriorityLow:    2,
	}
	for _, t := range tasks {
		if i, ok := index[t.Priority]; ok {
			buckets[i].Count++
			buckets[i].Seconds += t.TimeLogged
		}
	}
	return withHours(buckets)
}

// Insights derives the advice lines shown under a report.
func Insights(m Metrics) []string {
	if m.TotalTasks == 0 {
		return []string{InsightNoTasks}
	}

	var out []string
	switch {
	case m.CompletionRate > 70:
		out = append(out, InsightExcellent)
	case m.CompletionRate > 40:
		out = append(out, InsightGoodProgress)
	default:
		out = append(out, InsightFocusComplete)
	}
	if n := m.HighPriorityInProgress; n > 0 {
		out = append(out, fmt.Sprintf(insightHighInProgress, n, plural(n, "task", "tasks")))
	}
	if m.HighPriorityTotal > 0 && m.HighPriorityRate < 50 {
		out = append(out, InsightFocusHighPrio)
	}
	return out
}

// FormatTime renders seconds as "Xh Ym".
func FormatTime(seconds int64) string {
	if seconds <= 0 {
		return "0h 0m"
	}
	return fmt.Sprintf("%dh %dm", seconds/3600, (seconds%3600)/60)
}

func withHours(buckets []Bucket) []Bucket {
	for i := range buckets {
		buckets[i].Hours = round1(float64(buckets[i].Seconds) / 3600)
	}
	return buckets
}

func percent(n, total int) float64 {
	return round1(float64(n) / float64(total) * 100)
}

func round1(x float64) float64 {
	return math.Round(x*10) / 10
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
