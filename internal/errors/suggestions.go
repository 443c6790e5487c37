package errors

import "errors"

// Suggestions maps common errors to helpful suggestions.
var Suggestions = map[error]string{
	// User input errors
	ErrTaskNotFound:    "Use 'tasktime task list' to see task IDs.",
	ErrTitleRequired:   "Give the task a title, e.g. tasktime task add \"Write report\".",
	ErrInvalidStatus:   "Use one of: todo, in-progress, completed.",
	ErrInvalidPriority: "Use one of: low, medium, high.",
	ErrInvalidDueDate:  "Try formats like 'tomorrow', 'next friday', 'Oct 18, 2026' or '2026-10-18'.",
	ErrInvalidTaskID:   "Task IDs are shown in the first column of 'tasktime task list'.",
	ErrTimerRunning:    "Use 'tasktime stop' first, or just start another task to switch.",
	ErrTimerNotRunning: "Use 'tasktime start <id>' to begin timing a task.",
	ErrNoActiveTask:    "Use 'tasktime start <id>' to begin timing a task.",
	ErrInvalidURL:      "Provide a valid URL starting with https:// (or http:// for localhost).",
	ErrNotConfigured:   "Set the missing TASKTIME_* variable or add it to .env. See 'tasktime config'.",

	// System errors
	ErrDiskFull:          "Free up disk space and try again.",
	ErrDatabaseCorrupted: "Move the data directory aside (see 'tasktime config') and resync from the API.",
	ErrDatabaseLocked:    "Another tasktime process (dashboard, watch or serve) has the local database open. Close it and retry.",
	ErrPermissionDenied:  "Check file permissions in your data directory (~/.local/share/tasktime/).",

	// Recoverable errors
	ErrAPIUnavailable:     "Changes were kept locally. Check TASKTIME_API_URL and that 'tasktime serve' is running.",
	ErrNetworkUnavailable: "Check your network connection. Local data is still available.",
	ErrTimeout:            "The operation took too long. Try again or raise TASKTIME_HTTP_TIMEOUT.",
}

// GetSuggestion returns a suggestion for an error, if available.
// UserError suggestions take precedence over the sentinel table.
func GetSuggestion(err error) string {
	if err == nil {
		return ""
	}

	if ue, ok := AsUserError(err); ok && ue.Suggestion != "" {
		return ue.Suggestion
	}

	for knownErr, suggestion := range Suggestions {
		if errors.Is(err, knownErr) {
			return suggestion
		}
	}
	return ""
}

// CommandExamples provides example commands for common errors.
var CommandExamples = map[error][]string{
	ErrTitleRequired: {
		"tasktime task add \"Write report\"",
		"tasktime task add \"Fix login\" --priority high --due friday",
	},
	ErrInvalidDueDate: {
		"tasktime task add \"Ship\" --due tomorrow",
		"tasktime task edit 3 --due \"Oct 30, 2026\"",
	},
	ErrNoActiveTask: {
		"tasktime start 3",
		"tasktime status",
	},
}

// GetExamples returns example commands for an error.
func GetExamples(err error) []string {
	for knownErr, examples := range CommandExamples {
		if errors.Is(err, knownErr) {
			return examples
		}
	}
	return nil
}
