package parser

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// durationPattern matches duration expressions like "2h", "30m", "1h30m", "2.5h", etc.
var durationPattern = regexp.MustCompile(`(?i)^(\d+(?:\.\d+)?)\s*(h|hr|hrs|hour|hours|m|min|mins|minute|minutes|s|sec|secs|second|seconds)?\s*(?:(\d+(?:\.\d+)?)\s*(m|min|mins|minute|minutes))?$`)

// clockPattern matches timer display values like "1:05:30" or "12:40".
var clockPattern = regexp.MustCompile(`^(\d+):([0-5]\d)(?::([0-5]\d))?$`)

// ParseDuration parses a human-readable duration, as used for logged time.
// Supports formats like:
//   - "2h", "2 hours", "30m", "90m", "1h30m", "1h 30m", "2.5h"
//   - "1:05:30" (H:MM:SS) and "12:40" (M:SS), the timer display format
//   - "0" to clear logged time
//
// A bare number is read as hours.
func ParseDuration(input string) (time.Duration, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return 0, NewDurationError(input)
	}
	if input == "0" {
		return 0, nil
	}

	if match := clockPattern.FindStringSubmatch(input); match != nil {
		a, _ := strconv.Atoi(match[1])
		b, _ := strconv.Atoi(match[2])
		if match[3] == "" {
			return time.Duration(a)*time.Minute + time.Duration(b)*time.Second, nil
		}
		c, _ := strconv.Atoi(match[3])
		return time.Duration(a)*time.Hour + time.Duration(b)*time.Minute + time.Duration(c)*time.Second, nil
	}

	// Standard Go duration format (e.g., "2h30m")
	if d, err := time.ParseDuration(input); err == nil {
		if d < 0 {
			return 0, NewDurationError(input)
		}
		return d, nil
	}

	matches := durationPattern.FindStringSubmatch(input)
	if matches == nil {
		return 0, NewDurationError(input)
	}

	var total time.Duration
	value, _ := strconv.ParseFloat(matches[1], 64)
	total += unitToDuration(value, strings.ToLower(matches[2]))

	// Second number and unit (for "1h 30m" style)
	if matches[3] != "" {
		value, _ := strconv.ParseFloat(matches[3], 64)
		total += unitToDuration(value, strings.ToLower(matches[4]))
	}

	return total, nil
}

// ParseSeconds parses a duration and returns whole seconds.
func ParseSeconds(input string) (int64, error) {
	d, err := ParseDuration(input)
	if err != nil {
		return 0, err
	}
	return int64(d / time.Second), nil
}

// unitToDuration converts a value and unit to a duration. No unit means hours.
func unitToDuration(value float64, unit string) time.Duration {
	switch unit {
	case "m", "min", "mins", "minute", "minutes":
		return time.Duration(value * float64(time.Minute))
	case "s", "sec", "secs", "second", "seconds":
		return time.Duration(value * float64(time.Second))
	default:
		return time.Duration(value * float64(time.Hour))
	}
}
