package errors

import (
	"context"
	"errors"
	"net"
	"syscall"
)

// Category represents the type of error for display and handling purposes.
type Category int

const (
	// CategoryUnknown is the default for unclassified errors.
	CategoryUnknown Category = iota
	// CategoryUser indicates an error the user can fix (bad input, missing args).
	CategoryUser
	// CategorySystem indicates a system-level error (disk full, database failure).
	CategorySystem
	// CategoryRecoverable indicates an error that can be automatically retried.
	CategoryRecoverable
)

// String returns the string representation of the category.
func (c Category) String() string {
	switch c {
	case CategoryUser:
		return "user"
	case CategorySystem:
		return "system"
	case CategoryRecoverable:
		return "recoverable"
	default:
		return "unknown"
	}
}

// userSentinels are conditions the user resolves by changing input.
var userSentinels = []error{
	ErrTaskNotFound, ErrTitleRequired, ErrInvalidStatus, ErrInvalidPriority,
	ErrInvalidDueDate, ErrInvalidTaskID, ErrTimerRunning, ErrTimerNotRunning,
	ErrNoActiveTask, ErrInvalidURL, ErrNotConfigured,
}

// Classify determines the category of an error.
func Classify(err error) Category {
	if err == nil {
		return CategoryUnknown
	}

	// Typed errors win over patterns.
	if IsUserError(err) {
		return CategoryUser
	}
	if IsRecoverableError(err) {
		return CategoryRecoverable
	}
	if IsSystemError(err) {
		return CategorySystem
	}

	for _, s := range userSentinels {
		if errors.Is(err, s) {
			return CategoryUser
		}
	}
	if isRecoverablePattern(err) {
		return CategoryRecoverable
	}
	if isSystemLevel(err) {
		return CategorySystem
	}
	return CategoryUnknown
}

// isSystemLevel checks if an error is a system-level error.
func isSystemLevel(err error) bool {
	var errno syscall.Errno
	if errors.As(err, &errno) {
		switch errno {
		case syscall.ENOSPC, syscall.EACCES, syscall.EPERM, syscall.EIO, syscall.EROFS:
			return true
		}
	}

	return errors.Is(err, ErrDiskFull) ||
		errors.Is(err, ErrDatabaseCorrupted) ||
		errors.Is(err, ErrPermissionDenied)
}

// isRecoverablePattern checks if an error matches recoverable patterns.
func isRecoverablePattern(err error) bool {
	if errors.Is(err, ErrNetworkUnavailable) ||
		errors.Is(err, ErrAPIUnavailable) ||
		errors.Is(err, ErrTimeout) ||
		errors.Is(err, ErrDatabaseLocked) ||
		errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}

	var errno syscall.Errno
	if errors.As(err, &errno) {
		switch errno {
		case syscall.EAGAIN, syscall.EINTR, syscall.ETIMEDOUT, syscall.ECONNREFUSED, syscall.ECONNRESET:
			return true
		}
	}

	return false
}

// FormatByCategory returns a user-appropriate error message based on category.
func FormatByCategory(err error) string {
	if err == nil {
		return ""
	}

	msg := err.Error()
	switch Classify(err) {
	case CategoryUser:
		if suggestion := GetSuggestion(err); suggestion != "" {
			return msg + "\n\nTry: " + suggestion
		}
		return msg

	case CategorySystem:
		if suggestion := GetSuggestion(err); suggestion != "" {
			return "System error: " + msg + "\n\n" + suggestion
		}
		return "System error: " + msg

	case CategoryRecoverable:
		if suggestion := GetSuggestion(err); suggestion != "" {
			return msg + "\n\n" + suggestion
		}
		return msg + " (try again shortly)"

	default:
		return msg
	}
}
