package runtime

import (
	"fmt"
	"strings"
	"syscall"

	"github.com/manav03panchal/tasktime/internal/errors"
	"github.com/manav03panchal/tasktime/internal/model"
	"github.com/manav03panchal/tasktime/internal/parser"
)

// minPrefix is the shortest ID prefix accepted for non-numeric IDs.
const minPrefix = 4

// ResolveID finds the task ref refers to: an exact ID, or a unique prefix of
// a local (uuid) ID as shown by `task list`.
func ResolveID(tasks []*model.Task, ref string) (*model.Task, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, errors.Invalid(errors.ErrInvalidTaskID, "id", ref)
	}
	for _, t := range tasks {
		if t.ID == ref {
			return t, nil
		}
	}

	if len(ref) >= minPrefix {
		var matches []*model.Task
		lower := strings.ToLower(ref)
		for _, t := range tasks {
			if strings.HasPrefix(strings.ToLower(t.ID), lower) {
				matches = append(matches, t)
			}
		}
		switch len(matches) {
		case 1:
			return matches[0], nil
		case 0:
		default:
			ids := make([]string, len(matches))
			for i, t := range matches {
				ids[i] = t.ID
			}
			return nil, &errors.UserError{
				Message:    "Ambiguous task ID",
				Suggestion: "Matches " + strings.Join(ids, ", ") + ". Use more characters.",
				Field:      "id",
				Value:      ref,
				Cause:      errors.ErrInvalidTaskID,
			}
		}
	}
	return nil, errors.Wrapf(errors.ErrTaskNotFound, "task %s", ref)
}

// FormatError formats an error for the terminal, with chain and stack in
// debug mode.
func FormatError(err error, debug bool) string {
	if debug {
		return errors.FormatDebugError(err)
	}
	var pe *parser.ParseError
	if errors.As(err, &pe) {
		return pe.FormatWithExamples()
	}
	return errors.FormatUserError(err)
}

// DiskFullError represents a disk full condition with additional context.
type DiskFullError struct {
	Op      string // The operation that failed (e.g., "write", "open")
	Path    string // The path involved, if known
	wrapped error
}

func (e *DiskFullError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("disk full during %s on %s: %v", e.Op, e.Path, e.wrapped)
	}
	return fmt.Sprintf("disk full during %s: %v", e.Op, e.wrapped)
}

func (e *DiskFullError) Unwrap() error {
	return errors.ErrDiskFull
}

// NewDiskFullError creates a new DiskFullError.
func NewDiskFullError(op, path string, err error) *DiskFullError {
	return &DiskFullError{Op: op, Path: path, wrapped: err}
}

// IsDiskFullError checks for ENOSPC, the ErrDiskFull sentinel and common
// disk full messages from the storage engine.
func IsDiskFullError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, errors.ErrDiskFull) {
		return true
	}

	var errno syscall.Errno
	if errors.As(err, &errno) && errno == syscall.ENOSPC {
		return true
	}

	errStr := strings.ToLower(err.Error())
	for _, pattern := range []string{
		"no space left on device",
		"disk full",
		"not enough space",
		"insufficient disk space",
	} {
		if strings.Contains(errStr, pattern) {
			return true
		}
	}
	return false
}

// WrapDiskFullError wraps an error as a DiskFullError if it indicates disk
// full. Other errors are returned unchanged.
func WrapDiskFullError(err error, op, path string) error {
	if err == nil {
		return nil
	}
	var dfe *DiskFullError
	if errors.As(err, &dfe) {
		return err
	}
	if IsDiskFullError(err) {
		return NewDiskFullError(op, path, err)
	}
	return err
}
