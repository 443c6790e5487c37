package notify

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/manav03panchal/tasktime/internal/api"
	"github.com/manav03panchal/tasktime/internal/config"
	"github.com/manav03panchal/tasktime/internal/logging"
)

// Targets reported in DispatchResult.
const (
	TargetWebhook = "webhook"
	TargetDesktop = "desktop"
)

// Dispatcher sends notifications to the configured webhook and, when
// enabled, rings the terminal bell of the server process.
type Dispatcher struct {
	webhookURL string
	formatter  Formatter
	client     *api.HTTPClient

	desktop bool
	mu      sync.Mutex
	bell    io.Writer
}

// NewDispatcher creates a dispatcher from the notify configuration.
func NewDispatcher(cfg config.NotifyConfig, client *api.HTTPClient) *Dispatcher {
	if client == nil {
		client = api.NewHTTPClient()
	}
	return &Dispatcher{
		webhookURL: cfg.WebhookURL,
		formatter:  FormatterFor(cfg.WebhookURL, cfg.WebhookTemplate),
		client:     client,
		desktop:    cfg.Desktop,
		bell:       os.Stderr,
	}
}

// SetBellWriter redirects desktop notifications.
func (d *Dispatcher) SetBellWriter(w io.Writer) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.bell = w
}

// Enabled reports whether any target is configured.
func (d *Dispatcher) Enabled() bool {
	return d.webhookURL != "" || d.desktop
}

// DispatchResult contains the result of delivering to one target.
type DispatchResult struct {
	Target     string
	Success    bool
	StatusCode int
	Duration   time.Duration
	Error      error
}

// Send delivers n to every configured target. Failures are logged and
// reported, never returned as errors: notifications are best effort.
func (d *Dispatcher) Send(ctx context.Context, n *Notification) []DispatchResult {
	var results []DispatchResult
	if d.webhookURL != "" {
		results = append(results, d.sendWebhook(ctx, n))
	}
	if d.desktop {
		results = append(results, d.ring(n))
	}

	for _, r := range results {
		if r.Error != nil {
			logging.FromContext(ctx).Warn("notification failed",
				"target", r.Target,
				"type", string(n.Type),
				logging.KeyTaskID, n.TaskID,
				logging.KeyError, r.Error)
		}
	}
	return results
}

// Test sends a test notification to every configured target.
func (d *Dispatcher) Test(ctx context.Context) []DispatchResult {
	n := New(TypeTest, "Tasktime Test",
		"This is a test notification from Tasktime. If you see this, notifications are configured correctly!").
		WithField("Time", time.Now().Format("3:04 PM"))
	return d.Send(ctx, n)
}

func (d *Dispatcher) sendWebhook(ctx context.Context, n *Notification) DispatchResult {
	result := DispatchResult{Target: TargetWebhook}

	payload, err := d.formatter.Format(n)
	if err != nil {
		result.Error = fmt.Errorf("failed to format notification: %w", err)
		return result
	}

	resp := d.client.Send(ctx, d.webhookURL, d.formatter.ContentType(), payload)
	result.StatusCode = resp.StatusCode
	result.Duration = resp.Duration
	result.Error = resp.Error
	result.Success = resp.Error == nil
	return result
}

func (d *Dispatcher) ring(n *Notification) DispatchResult {
	d.mu.Lock()
	defer d.mu.Unlock()

	start := time.Now()
	_, err := fmt.Fprintf(d.bell, "\a[%s] %s: %s\n", time.Now().Format("15:04"), n.Title, n.Message)
	return DispatchResult{
		Target:   TargetDesktop,
		Success:  err == nil,
		Duration: time.Since(start),
		Error:    err,
	}
}
