package parser

import (
	"fmt"
	"strings"

	"github.com/manav03panchal/tasktime/internal/errors"
)

// ParseError represents a parsing error with helpful suggestions.
type ParseError struct {
	Input      string
	Field      string
	Message    string
	Examples   []string
	Suggestion string
	// Cause is the sentinel the error refines, if any.
	Cause error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid %s '%s': %s", e.Field, e.Input, e.Message)
}

func (e *ParseError) Unwrap() error {
	return e.Cause
}

// FormatWithExamples returns the error message with example suggestions.
func (e *ParseError) FormatWithExamples() string {
	var sb strings.Builder
	sb.WriteString(e.Error())

	if len(e.Examples) > 0 {
		sb.WriteString("\n\nValid examples:\n")
		for _, ex := range e.Examples {
			sb.WriteString("  - ")
			sb.WriteString(ex)
			sb.WriteString("\n")
		}
	}

	if e.Suggestion != "" {
		sb.WriteString("\n")
		sb.WriteString(e.Suggestion)
	}

	return sb.String()
}

// DurationExamples provides example duration formats.
var DurationExamples = []string{
	"1h30m",
	"90m",
	"2 hours",
	"1:05:30",
	"2.5h",
}

// DueDateExamples provides example due date formats.
var DueDateExamples = []string{
	"tomorrow",
	"next friday",
	"+3d",
	"2026-10-20",
	"Oct 20, 2026",
	"none",
}

// PeriodExamples provides example period formats.
var PeriodExamples = []string{
	"all",
	"today",
	"week",
	"month",
	"last month",
}

// MonthExamples provides example month formats.
var MonthExamples = []string{
	"2026-10",
	"Oct 2026",
	"last month",
}

// NewDurationError creates a duration parse error with standard examples.
func NewDurationError(input string) *ParseError {
	return &ParseError{
		Input:      input,
		Field:      "duration",
		Message:    "could not parse duration",
		Examples:   DurationExamples,
		Suggestion: "Durations can be specified as hours (h), minutes (m), seconds (s) or H:MM:SS.",
	}
}

// NewDueDateError creates a due date parse error with standard examples.
func NewDueDateError(input, message string) *ParseError {
	return &ParseError{
		Input:      input,
		Field:      "due date",
		Message:    message,
		Examples:   DueDateExamples,
		Suggestion: "Due dates can be relative (+3d), natural (next friday) or absolute (2026-10-20).",
		Cause:      errors.ErrInvalidDueDate,
	}
}

// NewPeriodError creates a report period parse error with standard examples.
func NewPeriodError(input string) *ParseError {
	return &ParseError{
		Input:      input,
		Field:      "range",
		Message:    "unknown time range",
		Examples:   PeriodExamples,
		Suggestion: "Use all, today, week or month.",
	}
}

// NewMonthError creates a month parse error with standard examples.
func NewMonthError(input string) *ParseError {
	return &ParseError{
		Input:      input,
		Field:      "month",
		Message:    "could not parse month",
		Examples:   MonthExamples,
		Suggestion: "Use YYYY-MM, for example 2026-10.",
	}
}

// ToUserError converts a ParseError to a UserError for consistent handling.
func (e *ParseError) ToUserError() *errors.UserError {
	suggestion := e.Suggestion
	if len(e.Examples) > 0 && suggestion == "" {
		suggestion = fmt.Sprintf("Try: %s", strings.Join(e.Examples[:min(3, len(e.Examples))], ", "))
	}

	ue := errors.NewUserErrorWithField(e.Field, e.Input, e.Message, suggestion)
	ue.Cause = e.Cause
	return ue
}

// AsUserError converts parse errors to UserErrors and passes others through.
func AsUserError(err error) error {
	var pe *ParseError
	if errors.As(err, &pe) {
		return pe.ToUserError()
	}
	return err
}
