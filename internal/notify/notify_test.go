package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/manav03panchal/tasktime/internal/api"
	"github.com/manav03panchal/tasktime/internal/config"
	"github.com/manav03panchal/tasktime/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleTask() *model.Task {
	return &model.Task{
		ID:           "42",
		Title:        "Write <report>",
		Priority:     model.PriorityHigh,
		Status:       model.StatusCompleted,
		DueDate:      "Oct 20, 2026",
		AssignedUser: "7",
	}
}

func fastClient() *api.HTTPClient {
	return api.NewHTTPClientWithConfig(config.HTTPConfig{
		Timeout:     time.Second,
		MaxRetries:  1,
		RetryDelays: []time.Duration{0, time.Millisecond},
	})
}

// =============================================================================
// Notification Tests
// =============================================================================

func TestTaskNotifications(t *testing.T) {
	task := sampleTask()

	t.Run("status_changed", func(t *testing.T) {
		n := StatusChanged(task, model.StatusInProgress)
		assert.Equal(t, TypeStatusChanged, n.Type)
		assert.Equal(t, "Your task 'Write <report>' status changed to Completed", n.Message)
		assert.Equal(t, "In Progress", n.Fields["From"])
		assert.Equal(t, "42", n.TaskID)
		assert.Equal(t, "7", n.UserID)
	})

	t.Run("assigned", func(t *testing.T) {
		n := Assigned(task)
		assert.Equal(t, "Task 'Write <report>' has been assigned to you.", n.Message)
		assert.Equal(t, "7", n.Fields["User"])
	})

	t.Run("reminder", func(t *testing.T) {
		n := Reminder(task)
		assert.Equal(t, "Reminder: Task 'Write <report>' is pending.", n.Message)
		assert.Equal(t, "Oct 20, 2026", n.Fields["Due"])
	})

	t.Run("with_field_on_zero_value", func(t *testing.T) {
		n := (&Notification{}).WithField("k", "v")
		assert.Equal(t, "v", n.Fields["k"])
	})
}

// =============================================================================
// Formatter Tests
// =============================================================================

func TestFormatterFor(t *testing.T) {
	tests := []struct {
		url      string
		template string
		expected string
	}{
		{"https://hooks.slack.com/services/T/B/X", "", "*notify.SlackFormatter"},
		{"https://example.com/hook", "", "*notify.GenericFormatter"},
		{"https://hooks.slack.com/services/T/B/X", "{{.Title}}", "*notify.GenericFormatter"},
		{"", "", "*notify.GenericFormatter"},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			assert.Equal(t, tt.expected, fmt.Sprintf("%T", FormatterFor(tt.url, tt.template)))
		})
	}
}

func TestGenericFormatter(t *testing.T) {
	t.Run("default_payload", func(t *testing.T) {
		f := &GenericFormatter{}
		assert.Equal(t, "application/json", f.ContentType())

		payload, err := f.Format(Assigned(sampleTask()))
		require.NoError(t, err)

		var body map[string]any
		require.NoError(t, json.Unmarshal(payload, &body))
		assert.Equal(t, "assigned", body["type"])
		assert.Equal(t, "42", body["taskId"])
		assert.Equal(t, "7", body["userId"])
		assert.Equal(t, float64(DefaultColor(TypeAssigned)), body["color"])
	})

	t.Run("template", func(t *testing.T) {
		f := NewGenericFormatter(`{"text":"{{.Title}} for {{.UserID}}"}`)
		payload, err := f.Format(Assigned(sampleTask()))
		require.NoError(t, err)
		assert.JSONEq(t, `{"text":"Task assigned for 7"}`, string(payload))
	})

	t.Run("bad_template", func(t *testing.T) {
		_, err := NewGenericFormatter("{{.Title").Format(Assigned(sampleTask()))
		assert.Error(t, err)
	})
}

func TestSlackFormatter(t *testing.T) {
	f := &SlackFormatter{}
	payload, err := f.Format(StatusChanged(sampleTask(), model.StatusTodo))
	require.NoError(t, err)

	out := string(payload)
	assert.Contains(t, out, `"header"`)
	assert.Contains(t, out, "Write \\u0026lt;report\\u0026gt;")
	assert.Contains(t, out, "#3B82F6")
	assert.Contains(t, out, "Tasktime |")
}

// =============================================================================
// Dispatcher Tests
// =============================================================================

func TestDispatcherWebhook(t *testing.T) {
	var mu sync.Mutex
	var got []byte
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		got = body
		mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	d := NewDispatcher(config.NotifyConfig{WebhookURL: server.URL}, fastClient())
	assert.True(t, d.Enabled())

	results := d.Send(context.Background(), Reminder(sampleTask()))
	require.Len(t, results, 1)
	assert.Equal(t, TargetWebhook, results[0].Target)
	assert.True(t, results[0].Success)
	assert.Equal(t, http.StatusNoContent, results[0].StatusCode)

	mu.Lock()
	defer mu.Unlock()
	assert.Contains(t, string(got), "Reminder: Task")
}

func TestDispatcherWebhookFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadRequest)
	}))
	defer server.Close()

	d := NewDispatcher(config.NotifyConfig{WebhookURL: server.URL}, fastClient())
	results := d.Send(context.Background(), Assigned(sampleTask()))
	require.Len(t, results, 1)
	assert.False(t, results[0].Success)
	assert.Error(t, results[0].Error)
	assert.Equal(t, http.StatusBadRequest, results[0].StatusCode)
}

func TestDispatcherDesktop(t *testing.T) {
	var buf bytes.Buffer
	d := NewDispatcher(config.NotifyConfig{Desktop: true}, fastClient())
	d.SetBellWriter(&buf)

	results := d.Test(context.Background())
	require.Len(t, results, 1)
	assert.Equal(t, TargetDesktop, results[0].Target)
	assert.True(t, results[0].Success)
	assert.Contains(t, buf.String(), "\a")
	assert.Contains(t, buf.String(), "Tasktime Test")
}

func TestDispatcherDisabled(t *testing.T) {
	d := NewDispatcher(config.NotifyConfig{}, nil)
	assert.False(t, d.Enabled())
	assert.Empty(t, d.Send(context.Background(), Reminder(sampleTask())))
}
