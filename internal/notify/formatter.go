// Package notify delivers task notifications to a webhook and to the
// terminal of the server process.
package notify

import (
	"net/url"
	"strings"
)

// Formatter formats notifications for a specific webhook type.
type Formatter interface {
	// Format converts a notification into the webhook-specific payload.
	Format(n *Notification) ([]byte, error)

	// ContentType returns the HTTP Content-Type for the payload.
	ContentType() string
}

// FormatterFor picks the payload format for a webhook URL: Slack incoming
// webhooks get Block Kit payloads, everything else the generic JSON body or
// the given template.
func FormatterFor(webhookURL, template string) Formatter {
	if template != "" {
		return NewGenericFormatter(template)
	}
	if u, err := url.Parse(webhookURL); err == nil && strings.EqualFold(u.Hostname(), "hooks.slack.com") {
		return &SlackFormatter{}
	}
	return &GenericFormatter{}
}
