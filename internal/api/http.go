package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/manav03panchal/tasktime/internal/config"
	"github.com/manav03panchal/tasktime/internal/errors"
)

// HTTPClient handles HTTP requests with retry logic. It is shared by the
// task API client and webhook notifications.
type HTTPClient struct {
	client     *http.Client
	maxRetries int
	retryDelay []time.Duration
	userAgent  string
}

// NewHTTPClient creates a new HTTP client from the global configuration.
func NewHTTPClient() *HTTPClient {
	return NewHTTPClientWithConfig(config.Global.HTTP)
}

// NewHTTPClientWithConfig creates a new HTTP client with explicit settings.
func NewHTTPClientWithConfig(cfg config.HTTPConfig) *HTTPClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPClient{
		client: &http.Client{
			Timeout: timeout,
		},
		maxRetries: cfg.MaxRetries,
		retryDelay: cfg.RetryDelays,
		userAgent:  "Tasktime/1.0",
	}
}

// StatusError is a non-2xx response.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	kind := "client error"
	if e.StatusCode >= 500 || e.StatusCode == http.StatusTooManyRequests {
		kind = "server error"
	}
	if e.Body == "" {
		return fmt.Sprintf("%s (HTTP %d)", kind, e.StatusCode)
	}
	return fmt.Sprintf("%s (HTTP %d): %s", kind, e.StatusCode, e.Body)
}

// Temporary reports whether retrying may succeed.
func (e *StatusError) Temporary() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// Response contains the result of a request.
type Response struct {
	StatusCode int
	Body       []byte
	Duration   time.Duration
	Attempts   int
	Error      error
}

// Do sends a request with retry logic. Rate limiting, server errors and
// transport failures are retried; other client errors are returned at once.
// When every attempt fails Error is a RecoverableError wrapping
// ErrAPIUnavailable.
func (c *HTTPClient) Do(ctx context.Context, method, url string, header http.Header, body []byte) *Response {
	result := &Response{}
	start := time.Now()

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		result.Attempts = attempt + 1

		if attempt > 0 {
			select {
			case <-ctx.Done():
				result.Error = ctx.Err()
				result.Duration = time.Since(start)
				return result
			case <-time.After(c.delay(attempt)):
			}
		}

		var reader io.Reader
		if body != nil {
			reader = bytes.NewReader(body)
		}
		req, err := http.NewRequestWithContext(ctx, method, url, reader)
		if err != nil {
			result.Error = fmt.Errorf("failed to create request: %w", err)
			result.Duration = time.Since(start)
			return result
		}
		for k, v := range header {
			req.Header[k] = v
		}
		req.Header.Set("User-Agent", c.userAgent)

		resp, err := c.client.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				result.Error = ctx.Err()
				result.Duration = time.Since(start)
				return result
			}
			result.Error = fmt.Errorf("request failed: %w", err)
			continue
		}

		bodyBytes, _ := io.ReadAll(resp.Body)
		resp.Body.Close()

		result.StatusCode = resp.StatusCode
		result.Body = bodyBytes

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			result.Error = nil
			result.Duration = time.Since(start)
			return result
		}

		statusErr := &StatusError{StatusCode: resp.StatusCode, Body: string(bytes.TrimSpace(bodyBytes))}
		result.Error = statusErr
		if statusErr.Temporary() {
			continue
		}

		result.Duration = time.Since(start)
		return result
	}

	result.Duration = time.Since(start)
	if result.Error == nil {
		result.Error = fmt.Errorf("max retries exceeded")
	}
	rerr := errors.NewRecoverableError("task API unavailable",
		fmt.Errorf("%w: %w", errors.ErrAPIUnavailable, result.Error), c.maxRetries)
	for i := 1; i < result.Attempts; i++ {
		rerr.IncrementRetry()
	}
	result.Error = rerr
	return result
}

// Send posts body to url. Used for webhooks.
func (c *HTTPClient) Send(ctx context.Context, url, contentType string, body []byte) *Response {
	header := http.Header{}
	header.Set("Content-Type", contentType)
	return c.Do(ctx, http.MethodPost, url, header, body)
}

func (c *HTTPClient) delay(attempt int) time.Duration {
	if len(c.retryDelay) == 0 {
		return 0
	}
	if attempt < len(c.retryDelay) {
		return c.retryDelay[attempt]
	}
	return c.retryDelay[len(c.retryDelay)-1]
}
