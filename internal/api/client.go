// Package api is the client for the Tasktime REST task API.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/manav03panchal/tasktime/internal/config"
	"github.com/manav03panchal/tasktime/internal/errors"
	"github.com/manav03panchal/tasktime/internal/logging"
	"github.com/manav03panchal/tasktime/internal/model"
)

// Client talks to the task API.
type Client struct {
	baseURL  string
	token    string
	pageSize int
	http     *HTTPClient
	now      func() time.Time
}

// NewClient creates a client for the API rooted at baseURL, for example
// http://localhost:8080/api.
func NewClient(baseURL string, hc *HTTPClient) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	u, err := url.Parse(baseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, errors.Invalid(errors.ErrInvalidURL, "api_url", baseURL)
	}
	if hc == nil {
		hc = NewHTTPClient()
	}
	return &Client{
		baseURL:  baseURL,
		pageSize: 100,
		http:     hc,
		now:      time.Now,
	}, nil
}

// NewClientFromConfig creates a client from the API and HTTP settings.
func NewClientFromConfig(cfg *config.RuntimeConfig) (*Client, error) {
	if cfg.API.URL == "" {
		return nil, errors.Wrap(errors.ErrNotConfigured, "task API URL")
	}
	c, err := NewClient(cfg.API.URL, NewHTTPClientWithConfig(cfg.HTTP))
	if err != nil {
		return nil, err
	}
	c.token = cfg.API.Token
	if cfg.API.PageSize > 0 {
		c.pageSize = cfg.API.PageSize
	}
	return c, nil
}

// BaseURL returns the API root.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// List returns every task, following pages until the last one.
func (c *Client) List(ctx context.Context) ([]*model.Task, error) {
	var tasks []*model.Task
	for page := 0; ; page++ {
		var p Page
		path := fmt.Sprintf("/tasks?page=%d&size=%d", page, c.pageSize)
		if err := c.call(ctx, http.MethodGet, path, nil, &p); err != nil {
			return nil, err
		}
		for _, d := range p.Content {
			tasks = append(tasks, FromDTO(d))
		}
		if len(p.Content) == 0 || page+1 >= p.TotalPages {
			break
		}
	}
	if tasks == nil {
		tasks = []*model.Task{}
	}
	return tasks, nil
}

// Get returns one task.
func (c *Client) Get(ctx context.Context, id string) (*model.Task, error) {
	if err := checkID(id); err != nil {
		return nil, err
	}
	var d TaskDTO
	if err := c.call(ctx, http.MethodGet, "/tasks/"+id, nil, &d); err != nil {
		return nil, err
	}
	return FromDTO(d), nil
}

// Create posts a new task. The scheduled window starts now and ends at the
// due date, or a day from now without one.
func (c *Client) Create(ctx context.Context, task *model.Task) (*model.Task, error) {
	d := ToDTO(task)
	d.ID = 0
	d.TimerStartedAt = nil
	now := c.now().UTC()
	d.StartTime = &now
	if d.EndTime == nil {
		tomorrow := now.Add(24 * time.Hour)
		d.EndTime = &tomorrow
	}

	var created TaskDTO
	body := CreateRequest{Task: d, DependencyIDs: []int64{}}
	if err := c.call(ctx, http.MethodPost, "/tasks", body, &created); err != nil {
		return nil, err
	}
	return FromDTO(created), nil
}

// Update replaces a task.
func (c *Client) Update(ctx context.Context, id string, task *model.Task) (*model.Task, error) {
	if err := checkID(id); err != nil {
		return nil, err
	}
	d := ToDTO(task)
	var updated TaskDTO
	if err := c.call(ctx, http.MethodPut, "/tasks/"+id, d, &updated); err != nil {
		return nil, err
	}
	return FromDTO(updated), nil
}

// Delete removes a task. It reports false if the API has no such task.
func (c *Client) Delete(ctx context.Context, id string) (bool, error) {
	if err := checkID(id); err != nil {
		return false, err
	}
	err := c.call(ctx, http.MethodDelete, "/tasks/"+id, nil, nil)
	if errors.Is(err, errors.ErrTaskNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// StartTimer starts the server-side timer.
func (c *Client) StartTimer(ctx context.Context, id string) (*model.Task, error) {
	return c.action(ctx, id, "start", nil)
}

// StopTimer stops the server-side timer. The server adds the elapsed minutes
// and marks the task done.
func (c *Client) StopTimer(ctx context.Context, id string) (*model.Task, error) {
	return c.action(ctx, id, "stop", nil)
}

// Assign assigns the task to a user.
func (c *Client) Assign(ctx context.Context, id, userID string) (*model.Task, error) {
	return c.action(ctx, id, "assign", userID)
}

// Health checks that the API answers.
func (c *Client) Health(ctx context.Context) error {
	return c.call(ctx, http.MethodGet, "/health", nil, nil)
}

func (c *Client) action(ctx context.Context, id, name string, body any) (*model.Task, error) {
	if err := checkID(id); err != nil {
		return nil, err
	}
	var d TaskDTO
	if err := c.call(ctx, http.MethodPut, "/tasks/"+id+"/"+name, body, &d); err != nil {
		return nil, err
	}
	return FromDTO(d), nil
}

func checkID(id string) error {
	if !IsRemoteID(id) {
		return errors.Invalid(errors.ErrInvalidTaskID, "id", id)
	}
	return nil
}

// call performs one API request and decodes the response into out.
func (c *Client) call(ctx context.Context, method, path string, in, out any) error {
	var body []byte
	header := http.Header{}
	header.Set("Accept", "application/json")
	if in != nil {
		var err error
		body, err = json.Marshal(in)
		if err != nil {
			return err
		}
		header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		header.Set("Authorization", "Bearer "+c.token)
	}

	resp := c.http.Do(ctx, method, c.baseURL+path, header, body)
	logging.FromContext(ctx).DebugContext(ctx, "api request",
		logging.KeyEndpoint, method+" "+path,
		logging.KeyStatus, resp.StatusCode,
		logging.KeyDuration, resp.Duration.Milliseconds(),
		"attempts", resp.Attempts,
	)
	if resp.Error != nil {
		return mapError(resp.Error, resp.Body)
	}
	if out == nil || len(resp.Body) == 0 {
		return nil
	}
	if err := json.Unmarshal(resp.Body, out); err != nil {
		return fmt.Errorf("%w: invalid response: %w", errors.ErrAPIUnavailable, err)
	}
	return nil
}

// mapError turns API error responses into the matching sentinel errors.
func mapError(err error, body []byte) error {
	var statusErr *StatusError
	if !errors.As(err, &statusErr) || statusErr.Temporary() {
		return err
	}

	var resp ErrorResponse
	_ = json.Unmarshal(body, &resp)
	msg := resp.Error
	if msg == "" {
		msg = statusErr.Body
	}

	switch {
	case resp.Code == CodeTimerRunning:
		return wrapMessage(errors.ErrTimerRunning, msg)
	case resp.Code == CodeTimerNotRunning:
		return wrapMessage(errors.ErrTimerNotRunning, msg)
	case resp.Code == CodeNotFound || statusErr.StatusCode == http.StatusNotFound:
		return wrapMessage(errors.ErrTaskNotFound, msg)
	case statusErr.StatusCode == http.StatusBadRequest:
		if msg == "" {
			msg = statusErr.Error()
		}
		return &errors.UserError{
			Message:    msg,
			Suggestion: "Check the task fields and try again",
			Cause:      err,
		}
	}
	return err
}

func wrapMessage(sentinel error, msg string) error {
	if msg == "" || msg == sentinel.Error() {
		return sentinel
	}
	return errors.Wrap(sentinel, msg)
}
