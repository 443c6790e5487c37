package validate

import (
	"strings"
	"unicode"

	"github.com/manav03panchal/tasktime/internal/model"
)

// SanitizeTitle trims a title and removes control characters, including
// newlines.
func SanitizeTitle(title string) string {
	title = strings.TrimSpace(title)

	var sb strings.Builder
	sb.Grow(len(title))
	for _, r := range title {
		if !unicode.IsControl(r) {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

// SanitizeDescription cleans a description for safe storage.
func SanitizeDescription(desc string) string {
	desc = strings.TrimSpace(desc)

	// Remove null bytes (common injection attempt)
	desc = strings.ReplaceAll(desc, "\x00", "")

	// Normalize line endings
	desc = strings.ReplaceAll(desc, "\r\n", "\n")
	desc = strings.ReplaceAll(desc, "\r", "\n")

	return StripControlChars(desc)
}

// SanitizeTask applies the title and description sanitizers in place.
func SanitizeTask(t *model.Task) {
	t.Title = SanitizeTitle(t.Title)
	t.Description = SanitizeDescription(t.Description)
}

// StripControlChars removes all control characters from a string except
// newlines and tabs.
func StripControlChars(s string) string {
	var sb strings.Builder
	for _, r := range s {
		if !unicode.IsControl(r) || r == '\n' || r == '\t' {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

// TruncateString truncates a string to maxLen runes, adding "..." if
// truncated.
func TruncateString(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-3]) + "..."
}
