package parser

import (
	"strings"
	"time"
)

// Period names accepted for report ranges.
const (
	PeriodAll   = "all"
	PeriodToday = "today"
	PeriodWeek  = "week"
	PeriodMonth = "month"
)

// TimeRange is a half-open interval [Start, End). A zero range is unbounded.
type TimeRange struct {
	Start time.Time
	End   time.Time
}

// IsZero reports whether the range is unbounded.
func (r TimeRange) IsZero() bool {
	return r.Start.IsZero() && r.End.IsZero()
}

// Contains reports whether t falls within the range.
func (r TimeRange) Contains(t time.Time) bool {
	if r.IsZero() {
		return true
	}
	return !t.Before(r.Start) && t.Before(r.End)
}

// PeriodRange returns the range of a period relative to now. Weeks start on
// Monday. Accepts all, today, yesterday, week/this week, last week,
// month/this month, last month, year/this year and last year.
func PeriodRange(period string, now time.Time) (TimeRange, error) {
	p := strings.ToLower(strings.Join(strings.Fields(period), " "))
	p = strings.TrimPrefix(p, "this ")
	p = strings.TrimPrefix(p, "current ")
	today := startOfDay(now)

	switch p {
	case "", PeriodAll, "all time":
		return TimeRange{}, nil

	case PeriodToday, "day":
		return TimeRange{Start: today, End: today.AddDate(0, 0, 1)}, nil

	case "yesterday":
		return TimeRange{Start: today.AddDate(0, 0, -1), End: today}, nil

	case PeriodWeek, "last week", "previous week":
		weekday := int(now.Weekday())
		if weekday == 0 {
			weekday = 7
		}
		start := today.AddDate(0, 0, -weekday+1)
		if p != PeriodWeek {
			start = start.AddDate(0, 0, -7)
		}
		return TimeRange{Start: start, End: start.AddDate(0, 0, 7)}, nil

	case PeriodMonth, "last month", "previous month":
		start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
		if p != PeriodMonth {
			start = start.AddDate(0, -1, 0)
		}
		return TimeRange{Start: start, End: start.AddDate(0, 1, 0)}, nil

	case "year", "last year", "previous year":
		start := time.Date(now.Year(), 1, 1, 0, 0, 0, 0, now.Location())
		if p != "year" {
			start = start.AddDate(-1, 0, 0)
		}
		return TimeRange{Start: start, End: start.AddDate(1, 0, 0)}, nil
	}

	return TimeRange{}, NewPeriodError(period)
}

// monthLayouts are accepted by ParseMonth.
var monthLayouts = []string{"2006-01", "Jan 2006", "January 2006", "01/2006"}

// ParseMonth parses a calendar month such as "2026-10" or "Oct 2026". An
// empty input is the month containing now.
func ParseMonth(input string, now time.Time) (TimeRange, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return PeriodRange(PeriodMonth, now)
	}
	for _, layout := range monthLayouts {
		if t, err := time.ParseInLocation(layout, input, now.Location()); err == nil {
			return TimeRange{Start: t, End: t.AddDate(0, 1, 0)}, nil
		}
	}
	if r, err := PeriodRange(input, now); err == nil && !r.IsZero() {
		return r, nil
	}
	return TimeRange{}, NewMonthError(input)
}
