package server

import (
	"context"
	"runtime"
	"sort"
	"sync"
	"time"
)

// Health states reported by /api/health.
const (
	StatusOK        = "ok"
	StatusUnhealthy = "unhealthy"
)

// CheckFunc probes one dependency, such as the task database.
type CheckFunc func(ctx context.Context) error

// HealthStatus is the body of GET /api/health.
type HealthStatus struct {
	Status        string        `json:"status"`
	UptimeSeconds int64         `json:"uptime_seconds"`
	MemoryMB      float64       `json:"memory_mb"`
	Goroutines    int           `json:"goroutines"`
	Version       string        `json:"version,omitempty"`
	Checks        []CheckResult `json:"checks,omitempty"`
}

// CheckResult is the outcome of a single named check.
type CheckResult struct {
	Name    string `json:"name"`
	Healthy bool   `json:"healthy"`
	Error   string `json:"error,omitempty"`
}

// HealthChecker runs the registered checks on demand.
type HealthChecker struct {
	mu        sync.RWMutex
	startTime time.Time
	version   string
	checks    map[string]CheckFunc
}

// NewHealthChecker creates a checker with no checks.
func NewHealthChecker(version string) *HealthChecker {
	return &HealthChecker{
		startTime: time.Now(),
		version:   version,
		checks:    make(map[string]CheckFunc),
	}
}

// AddCheck registers a named check, replacing any with the same name.
func (h *HealthChecker) AddCheck(name string, check CheckFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.checks[name] = check
}

// Check runs every check. The status is ok only when all of them pass.
func (h *HealthChecker) Check(ctx context.Context) *HealthStatus {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	status := &HealthStatus{
		Status:        StatusOK,
		UptimeSeconds: int64(h.Uptime().Seconds()),
		MemoryMB:      float64(memStats.Alloc) / 1024 / 1024,
		Goroutines:    runtime.NumGoroutine(),
		Version:       h.version,
	}

	h.mu.RLock()
	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)
	checks := make([]CheckFunc, len(names))
	for i, name := range names {
		checks[i] = h.checks[name]
	}
	h.mu.RUnlock()

	for i, check := range checks {
		result := CheckResult{Name: names[i], Healthy: true}
		if err := check(ctx); err != nil {
			result.Healthy = false
			result.Error = err.Error()
			status.Status = StatusUnhealthy
		}
		status.Checks = append(status.Checks, result)
	}
	return status
}

// Uptime returns how long the server has been running.
func (h *HealthChecker) Uptime() time.Duration {
	return time.Since(h.startTime)
}
