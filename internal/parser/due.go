package parser

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/markusmobius/go-dateparser"

	"github.com/manav03panchal/tasktime/internal/model"
)

// relativeDueRegex matches relative day offsets like "+3d" or "+2w".
var relativeDueRegex = regexp.MustCompile(`^\+(\d+)([dw])$`)

// dueLayouts are the fixed date layouts tried before natural language.
var dueLayouts = []string{
	model.DueDateLayout,
	"2006-01-02",
	"Jan 2 2006",
	"January 2, 2006",
	"2006/01/02",
}

// ParseDueDate parses a due date expression into local midnight of that day.
// Supports formats like:
//   - "Oct 20, 2026" (the stored label)
//   - "2026-10-20"
//   - "+3d", "+2w" (relative to now)
//   - "tomorrow", "next friday", "in 2 weeks" (natural language)
//
// Past dates are accepted; tasks may be overdue.
func ParseDueDate(input string, now time.Time) (time.Time, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return time.Time{}, NewDueDateError(input, "due date is required")
	}

	if match := relativeDueRegex.FindStringSubmatch(input); match != nil {
		n, _ := strconv.Atoi(match[1])
		if n <= 0 {
			return time.Time{}, NewDueDateError(input, "offset must be positive")
		}
		days := n
		if match[2] == "w" {
			days = n * 7
		}
		return startOfDay(now).AddDate(0, 0, days), nil
	}

	for _, layout := range dueLayouts {
		if t, err := time.ParseInLocation(layout, input, now.Location()); err == nil {
			return startOfDay(t), nil
		}
	}

	cfg := &dateparser.Configuration{
		CurrentTime: now,
	}
	result, err := dateparser.Parse(cfg, input)
	if err != nil || result.Time.IsZero() {
		return time.Time{}, NewDueDateError(input, "could not parse due date")
	}
	return startOfDay(result.Time.In(now.Location())), nil
}

// ParseDueLabel parses a due date expression and returns its stored label.
// An empty input or "none" clears the due date.
func ParseDueLabel(input string, now time.Time) (string, error) {
	switch strings.ToLower(strings.TrimSpace(input)) {
	case "", "none", "-":
		return "", nil
	}
	t, err := ParseDueDate(input, now)
	if err != nil {
		return "", err
	}
	return model.FormatDueDate(t), nil
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// isSameDay checks if two times are on the same day.
func isSameDay(t1, t2 time.Time) bool {
	y1, m1, d1 := t1.Date()
	y2, m2, d2 := t2.Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}

// FormatDueRelative describes a due date relative to now, e.g. "today",
// "in 3 days" or "overdue by 2 days".
func FormatDueRelative(due, now time.Time) string {
	today := startOfDay(now)
	due = startOfDay(due.In(now.Location()))

	switch {
	case isSameDay(due, today):
		return "today"
	case isSameDay(due, today.AddDate(0, 0, 1)):
		return "tomorrow"
	case isSameDay(due, today.AddDate(0, 0, -1)):
		return "yesterday"
	}

	days := int(due.Sub(today).Hours() / 24)
	if days < 0 {
		return "overdue by " + plural(-days, "day")
	}
	if days < 14 {
		return "in " + plural(days, "day")
	}
	return "in " + plural(days/7, "week")
}

func plural(n int, unit string) string {
	if n == 1 {
		return "1 " + unit
	}
	return fmt.Sprintf("%d %ss", n, unit)
}
