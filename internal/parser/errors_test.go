package parser

import (
	"testing"

	"github.com/manav03panchal/tasktime/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseErrorError(t *testing.T) {
	err := &ParseError{
		Input:   "soon",
		Field:   "due date",
		Message: "could not parse due date",
	}
	result := err.Error()
	assert.Contains(t, result, "invalid due date")
	assert.Contains(t, result, "soon")
	assert.Contains(t, result, "could not parse due date")
}

func TestFormatWithExamples(t *testing.T) {
	t.Run("with_examples", func(t *testing.T) {
		result := NewDurationError("abc").FormatWithExamples()
		assert.Contains(t, result, "invalid duration")
		assert.Contains(t, result, "Valid examples:")
		assert.Contains(t, result, "1h30m")
		assert.Contains(t, result, "H:MM:SS")
	})

	t.Run("without_examples", func(t *testing.T) {
		err := &ParseError{Input: "x", Field: "range", Message: "bad"}
		assert.Equal(t, err.Error(), err.FormatWithExamples())
	})
}

func TestErrorConstructors(t *testing.T) {
	due := NewDueDateError("soon", "could not parse due date")
	assert.Equal(t, "due date", due.Field)
	assert.Equal(t, DueDateExamples, due.Examples)
	assert.True(t, errors.Is(due, errors.ErrInvalidDueDate))

	assert.Equal(t, "range", NewPeriodError("x").Field)
	assert.Equal(t, "month", NewMonthError("x").Field)
	assert.Nil(t, NewDurationError("x").Cause)
}

func TestToUserError(t *testing.T) {
	t.Run("keeps_suggestion_and_cause", func(t *testing.T) {
		ue := NewDueDateError("soon", "could not parse due date").ToUserError()
		assert.Equal(t, "due date", ue.Field)
		assert.Equal(t, "soon", ue.Value)
		assert.Contains(t, ue.Suggestion, "+3d")
		assert.True(t, errors.Is(ue, errors.ErrInvalidDueDate))
	})

	t.Run("examples_become_suggestion", func(t *testing.T) {
		pe := &ParseError{Input: "x", Field: "range", Message: "bad", Examples: PeriodExamples}
		ue := pe.ToUserError()
		assert.Equal(t, "Try: all, today, week", ue.Suggestion)
	})
}

func TestAsUserError(t *testing.T) {
	_, err := ParseDuration("abc")
	require.Error(t, err)
	assert.True(t, errors.IsUserError(AsUserError(err)))

	plain := errors.New("other")
	assert.Equal(t, plain, AsUserError(plain))
}
