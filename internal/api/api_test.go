package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/manav03panchal/tasktime/internal/config"
	"github.com/manav03panchal/tasktime/internal/errors"
	"github.com/manav03panchal/tasktime/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastHTTP() *HTTPClient {
	return NewHTTPClientWithConfig(config.HTTPConfig{
		Timeout:    2 * time.Second,
		MaxRetries: 2,
	})
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c, err := NewClient(srv.URL+"/api", fastHTTP())
	require.NoError(t, err)
	return c
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// =============================================================================
// HTTPClient Tests
// =============================================================================

func TestHTTPClientRetriesServerErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	resp := fastHTTP().Do(context.Background(), http.MethodGet, srv.URL, nil, nil)
	require.NoError(t, resp.Error)
	assert.Equal(t, 2, resp.Attempts)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestHTTPClientDoesNotRetryClientErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.Error(w, "nope", http.StatusNotFound)
	}))
	defer srv.Close()

	resp := fastHTTP().Do(context.Background(), http.MethodGet, srv.URL, nil, nil)
	require.Error(t, resp.Error)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	assert.False(t, errors.Is(resp.Error, errors.ErrAPIUnavailable))

	var statusErr *StatusError
	require.True(t, errors.As(resp.Error, &statusErr))
	assert.Equal(t, http.StatusNotFound, statusErr.StatusCode)
	assert.Contains(t, resp.Error.Error(), "client error (HTTP 404)")
}

func TestHTTPClientExhaustedRetriesAreUnavailable(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	resp := fastHTTP().Do(context.Background(), http.MethodGet, srv.URL, nil, nil)
	require.Error(t, resp.Error)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
	assert.True(t, errors.Is(resp.Error, errors.ErrAPIUnavailable))
	assert.Equal(t, errors.CategoryRecoverable, errors.Classify(resp.Error))

	var rerr *errors.RecoverableError
	require.True(t, errors.As(resp.Error, &rerr))
	assert.Equal(t, 2, rerr.RetryCount)
	assert.False(t, rerr.CanRetry)
}

func TestHTTPClientConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	resp := fastHTTP().Do(context.Background(), http.MethodGet, url, nil, nil)
	require.Error(t, resp.Error)
	assert.True(t, errors.Is(resp.Error, errors.ErrAPIUnavailable))
}

func TestHTTPClientSend(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "Tasktime/1.0", r.Header.Get("User-Agent"))
		body, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{"ok":true}`, string(body))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	resp := fastHTTP().Send(context.Background(), srv.URL, "application/json", []byte(`{"ok":true}`))
	require.NoError(t, resp.Error)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}

// =============================================================================
// DTO Tests
// =============================================================================

func TestStatusMapping(t *testing.T) {
	tests := []struct {
		backend  string
		expected model.Status
	}{
		{"TODO", model.StatusTodo},
		{"IN_PROGRESS", model.StatusInProgress},
		{"DONE", model.StatusCompleted},
		{"BLOCKED", model.StatusTodo},
		{"", model.StatusTodo},
	}
	for _, tt := range tests {
		t.Run(tt.backend, func(t *testing.T) {
			assert.Equal(t, tt.expected, StatusFromBackend(tt.backend))
		})
	}

	for _, s := range model.Statuses {
		assert.Equal(t, s, StatusFromBackend(StatusToBackend(s)))
	}
	assert.Equal(t, "TODO", StatusToBackend("bogus"))
}

func TestPriorityMapping(t *testing.T) {
	assert.Equal(t, model.PriorityLow, PriorityFromBackend("LOW"))
	assert.Equal(t, model.PriorityHigh, PriorityFromBackend("HIGH"))
	assert.Equal(t, model.PriorityMedium, PriorityFromBackend("URGENT"))

	for _, p := range model.Priorities {
		assert.Equal(t, p, PriorityFromBackend(PriorityToBackend(p)))
	}
	assert.Equal(t, "MEDIUM", PriorityToBackend(""))
}

func TestFromDTO(t *testing.T) {
	end := time.Date(2026, 10, 20, 12, 0, 0, 0, time.Local)
	started := time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)

	task := FromDTO(TaskDTO{
		ID:             7,
		Title:          "Ship",
		Priority:       "HIGH",
		Status:         "IN_PROGRESS",
		EndTime:        &end,
		TimerStartedAt: &started,
		TimeSpent:      3,
		AssignedUserID: "42",
	})

	assert.Equal(t, "7", task.ID)
	assert.Equal(t, model.PriorityHigh, task.Priority)
	assert.Equal(t, model.StatusInProgress, task.Status)
	assert.Equal(t, "Oct 20, 2026", task.DueDate)
	assert.Equal(t, int64(180), task.TimeLogged)
	require.NotNil(t, task.StartedAt)
	assert.True(t, started.Equal(*task.StartedAt))
	assert.Equal(t, "42", task.AssignedUser)
}

func TestToDTO(t *testing.T) {
	d := ToDTO(&model.Task{
		ID:         "12",
		Title:      "Ship",
		Priority:   model.PriorityLow,
		Status:     model.StatusCompleted,
		DueDate:    "Oct 20, 2026",
		TimeLogged: 179,
	})

	assert.Equal(t, int64(12), d.ID)
	assert.Equal(t, "LOW", d.Priority)
	assert.Equal(t, "DONE", d.Status)
	assert.Equal(t, int64(2), d.TimeSpent, "seconds floor to minutes")
	require.NotNil(t, d.EndTime)
	assert.Equal(t, 20, d.EndTime.Day())

	offline := ToDTO(&model.Task{ID: "0b6f0c3e-uuid", Title: "local"})
	assert.Zero(t, offline.ID)
	assert.Nil(t, offline.EndTime)
}

func TestIsRemoteID(t *testing.T) {
	assert.True(t, IsRemoteID("1"))
	assert.True(t, IsRemoteID("9000"))
	assert.False(t, IsRemoteID("0"))
	assert.False(t, IsRemoteID("-3"))
	assert.False(t, IsRemoteID("a1b2"))
	assert.False(t, IsRemoteID(""))
}

// =============================================================================
// Client Tests
// =============================================================================

func TestNewClientRejectsBadURL(t *testing.T) {
	for _, raw := range []string{"", "localhost:8080", "ftp://host/api", "http://"} {
		_, err := NewClient(raw, nil)
		assert.True(t, errors.Is(err, errors.ErrInvalidURL), raw)
	}

	c, err := NewClient("http://localhost:8080/api/", nil)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080/api", c.BaseURL())
}

func TestNewClientFromConfig(t *testing.T) {
	cfg := config.DefaultRuntimeConfig()
	_, err := NewClientFromConfig(cfg)
	assert.True(t, errors.Is(err, errors.ErrNotConfigured))

	cfg.API.URL = "http://localhost:8080/api"
	cfg.API.Token = "secret"
	cfg.API.PageSize = 5
	c, err := NewClientFromConfig(cfg)
	require.NoError(t, err)
	assert.Equal(t, "secret", c.token)
	assert.Equal(t, 5, c.pageSize)
}

func TestClientListFollowsPages(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/tasks", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		assert.Equal(t, "1", r.URL.Query().Get("size"))
		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		writeJSON(w, http.StatusOK, Page{
			Content:       []TaskDTO{{ID: int64(page + 1), Title: "t" + strconv.Itoa(page), Status: "TODO"}},
			TotalElements: 2,
			TotalPages:    2,
			Number:        page,
			Size:          1,
		})
	})
	c.token = "tok"
	c.pageSize = 1

	tasks, err := c.List(context.Background())
	require.NoError(t, err)
	require.Len(t, tasks, 2)
	assert.Equal(t, "1", tasks[0].ID)
	assert.Equal(t, "2", tasks[1].ID)
}

func TestClientListEmpty(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, Page{Content: []TaskDTO{}})
	})

	tasks, err := c.List(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, tasks)
	assert.Empty(t, tasks)
}

func TestClientCreate(t *testing.T) {
	now := time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		var raw map[string]json.RawMessage
		require.NoError(t, json.NewDecoder(r.Body).Decode(&raw))
		assert.JSONEq(t, `[]`, string(raw["dependencyIds"]))

		var req CreateRequest
		require.NoError(t, json.Unmarshal(mustJSON(t, raw), &req))
		assert.Zero(t, req.Task.ID)
		assert.Equal(t, "HIGH", req.Task.Priority)
		require.NotNil(t, req.Task.StartTime)
		require.NotNil(t, req.Task.EndTime)
		assert.True(t, now.Equal(*req.Task.StartTime))
		assert.True(t, now.Add(24*time.Hour).Equal(*req.Task.EndTime))

		req.Task.ID = 99
		writeJSON(w, http.StatusCreated, req.Task)
	})
	c.now = func() time.Time { return now }

	created, err := c.Create(context.Background(), &model.Task{
		ID:       "local-id",
		Title:    "New",
		Priority: model.PriorityHigh,
	})
	require.NoError(t, err)
	assert.Equal(t, "99", created.ID)
	assert.Equal(t, "New", created.Title)
}

func mustJSON(t *testing.T, v any) []byte {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return b
}

func TestClientTimerErrors(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/tasks/1/start":
			writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "timer is already running", Code: CodeTimerRunning})
		case "/api/tasks/1/stop":
			writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "timer is not running", Code: CodeTimerNotRunning})
		case "/api/tasks/2":
			writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "task 2 not found", Code: CodeNotFound})
		case "/api/tasks/3":
			writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "title is required", Code: CodeInvalid})
		default:
			w.WriteHeader(http.StatusInternalServerError)
		}
	})
	ctx := context.Background()

	_, err := c.StartTimer(ctx, "1")
	assert.True(t, errors.Is(err, errors.ErrTimerRunning))

	_, err = c.StopTimer(ctx, "1")
	assert.True(t, errors.Is(err, errors.ErrTimerNotRunning))

	_, err = c.Get(ctx, "2")
	assert.True(t, errors.Is(err, errors.ErrTaskNotFound))
	assert.Contains(t, err.Error(), "task 2 not found")

	_, err = c.Update(ctx, "3", &model.Task{Title: ""})
	assert.True(t, errors.IsUserError(err))
	assert.EqualError(t, err, "title is required")

	_, err = c.Get(ctx, "not-a-number")
	assert.True(t, errors.Is(err, errors.ErrInvalidTaskID))

	_, err = c.Get(ctx, "4")
	assert.True(t, errors.Is(err, errors.ErrAPIUnavailable))
}

func TestClientDelete(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		if r.URL.Path == "/api/tasks/1" {
			w.WriteHeader(http.StatusOK)
			return
		}
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "not found", Code: CodeNotFound})
	})

	ok, err := c.Delete(context.Background(), "1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = c.Delete(context.Background(), "2")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestClientAssignSendsUserID(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/tasks/5/assign", r.URL.Path)
		var user string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&user))
		writeJSON(w, http.StatusOK, TaskDTO{ID: 5, Title: "x", AssignedUserID: user})
	})

	task, err := c.Assign(context.Background(), "5", "42")
	require.NoError(t, err)
	assert.Equal(t, "42", task.AssignedUser)
}

func TestClientHealth(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/health", r.URL.Path)
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	assert.NoError(t, c.Health(context.Background()))
}
