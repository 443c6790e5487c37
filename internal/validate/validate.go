// Package validate provides input validation helpers for task fields,
// shared by the CLI, the MCP tools and the task API server.
package validate

import (
	"net"
	"net/url"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/manav03panchal/tasktime/internal/errors"
	"github.com/manav03panchal/tasktime/internal/model"
)

const (
	// MaxTitleLength is the maximum length of a task title, in runes.
	MaxTitleLength = 200
	// MaxDescriptionLength is the maximum length of a task description, in runes.
	MaxDescriptionLength = 4096
	// MaxUserIDLength is the maximum length of an assignee id.
	MaxUserIDLength = 64
	// MaxURLLength is the maximum length for a URL.
	MaxURLLength = 2048
)

// Title validates a task title.
func Title(title string) error {
	if strings.TrimSpace(title) == "" {
		return errors.Invalid(errors.ErrTitleRequired, "title", "")
	}
	if utf8.RuneCountInString(title) > MaxTitleLength {
		return errors.NewUserErrorWithField("title", TruncateString(title, 40),
			"Title too long",
			"Titles must be 200 characters or fewer")
	}
	return nil
}

// Description validates a task description.
func Description(desc string) error {
	if utf8.RuneCountInString(desc) > MaxDescriptionLength {
		return errors.NewUserError(
			"Description too long",
			"Descriptions must be 4096 characters or fewer")
	}
	return nil
}

// Status parses and validates a status name.
func Status(s string) (model.Status, error) {
	status, err := model.ParseStatus(s)
	if err != nil {
		return "", errors.Invalid(errors.ErrInvalidStatus, "status", s)
	}
	return status, nil
}

// Priority parses and validates a priority name.
func Priority(p string) (model.Priority, error) {
	priority, err := model.ParsePriority(p)
	if err != nil {
		return "", errors.Invalid(errors.ErrInvalidPriority, "priority", p)
	}
	return priority, nil
}

// TaskID validates a task ID argument.
func TaskID(id string) error {
	if strings.TrimSpace(id) == "" {
		return errors.Invalid(errors.ErrInvalidTaskID, "id", id)
	}
	return nil
}

// UserID validates an assignee id.
func UserID(id string) error {
	if id == "" {
		return errors.NewUserError("User ID cannot be empty", "Provide the id of the user to assign")
	}
	if len(id) > MaxUserIDLength {
		return errors.NewUserErrorWithField("user", TruncateString(id, 20),
			"User ID too long",
			"User IDs must be 64 characters or fewer")
	}
	for _, r := range id {
		if unicode.IsSpace(r) || unicode.IsControl(r) {
			return errors.NewUserErrorWithField("user", id,
				"Invalid user ID",
				"User IDs cannot contain whitespace")
		}
	}
	return nil
}

// Task validates every field of a task before it is stored.
func Task(t *model.Task) error {
	if err := Title(t.Title); err != nil {
		return err
	}
	if err := Description(t.Description); err != nil {
		return err
	}
	if !t.Status.Valid() {
		return errors.Invalid(errors.ErrInvalidStatus, "status", string(t.Status))
	}
	if !t.Priority.Valid() {
		return errors.Invalid(errors.ErrInvalidPriority, "priority", string(t.Priority))
	}
	if t.DueDate != "" {
		if _, ok := t.DueTime(); !ok {
			return errors.Invalid(errors.ErrInvalidDueDate, "due date", t.DueDate)
		}
	}
	if t.TimeLogged < 0 {
		return errors.NewUserErrorWithField("timeLogged", strconv.FormatInt(t.TimeLogged, 10),
			"Logged time cannot be negative",
			"Use 0 to clear the logged time")
	}
	return nil
}

// URL validates a URL for use as a webhook endpoint.
func URL(rawURL string) error {
	if rawURL == "" {
		return errors.NewUserError("URL cannot be empty", "Provide a valid URL")
	}
	if len(rawURL) > MaxURLLength {
		return errors.NewUserError("URL too long", "URLs must be 2048 characters or fewer")
	}

	parsed, err := url.Parse(rawURL)
	if err != nil {
		return errors.NewUserErrorWithField("url", rawURL,
			"Invalid URL format",
			"Provide a valid URL starting with https://")
	}

	// Check scheme
	if parsed.Scheme != "https" && parsed.Scheme != "http" {
		return errors.NewUserErrorWithField("url", rawURL,
			"Invalid URL scheme",
			"URLs must use https:// (or http:// for localhost)")
	}

	// Check hostname exists
	hostname := parsed.Hostname()
	if hostname == "" {
		return errors.NewUserErrorWithField("url", rawURL,
			"Invalid URL: missing hostname",
			"Provide a valid URL like https://example.com/webhook")
	}

	// Check for localhost (http allowed)
	isLocalhost := hostname == "localhost" || hostname == "127.0.0.1" || hostname == "::1"

	// Require HTTPS for non-localhost
	if parsed.Scheme == "http" && !isLocalhost {
		return errors.NewUserErrorWithField("url", rawURL,
			"HTTP not allowed for external URLs",
			"Use https:// for security. HTTP is only allowed for localhost.")
	}

	// Check for internal IPs (SSRF protection)
	if !isLocalhost {
		if err := checkInternalIP(hostname); err != nil {
			return err
		}
	}

	return nil
}

// checkInternalIP checks if a hostname resolves to an internal IP.
func checkInternalIP(hostname string) error {
	// First check if it's a direct IP
	if ip := net.ParseIP(hostname); ip != nil {
		if isInternalIP(ip) {
			return errors.NewUserErrorWithField("url", hostname,
				"Internal IP addresses not allowed",
				"Webhook URLs must point to external services")
		}
		return nil
	}

	ips, err := net.LookupIP(hostname)
	if err != nil {
		// Unresolvable now; delivery will fail later and be logged.
		return nil
	}

	for _, ip := range ips {
		if isInternalIP(ip) {
			return errors.NewUserErrorWithField("url", hostname,
				"Hostname resolves to internal IP",
				"Webhook URLs must point to external services")
		}
	}

	return nil
}

var privateNets = mustParseCIDRs(
	"10.0.0.0/8",     // RFC 1918
	"172.16.0.0/12",  // RFC 1918
	"192.168.0.0/16", // RFC 1918
	"127.0.0.0/8",    // Loopback
	"169.254.0.0/16", // Link-local
	"fc00::/7",       // IPv6 private
	"fe80::/10",      // IPv6 link-local
	"::1/128",        // IPv6 loopback
)

func mustParseCIDRs(cidrs ...string) []*net.IPNet {
	nets := make([]*net.IPNet, len(cidrs))
	for i, cidr := range cidrs {
		_, network, err := net.ParseCIDR(cidr)
		if err != nil {
			panic(err)
		}
		nets[i] = network
	}
	return nets
}

// isInternalIP checks if an IP is in a private/internal range.
func isInternalIP(ip net.IP) bool {
	for _, network := range privateNets {
		if network.Contains(ip) {
			return true
		}
	}
	return false
}
