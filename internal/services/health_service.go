package services

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

// CheckTimeout bounds every backend connectivity check
const CheckTimeout = 8 * time.Second

// CheckFunc reports whether one backend is reachable
type CheckFunc func(ctx context.Context) error

// CheckResult is the outcome of one connectivity check
type CheckResult struct {
	Name      string `json:"name"`
	Healthy   bool   `json:"healthy"`
	LatencyMs int64  `json:"latency_ms"`
	Error     string `json:"error,omitempty"`
}

// HealthReport aggregates the checks of every registered backend
type HealthReport struct {
	Status    string        `json:"status"`
	CheckedAt time.Time     `json:"checked_at"`
	Checks    []CheckResult `json:"checks"`
}

// HealthService checks the backends the service depends on
type HealthService struct {
	mu      sync.RWMutex
	checks  map[string]CheckFunc
	timeout time.Duration
}

// NewHealthService creates a health service with no checks registered
func NewHealthService() *HealthService {
	return &HealthService{checks: make(map[string]CheckFunc), timeout: CheckTimeout}
}

// Register adds a named check. A nil check is ignored.
func (s *HealthService) Register(name string, check CheckFunc) {
	if check == nil {
		return
	}
	s.mu.Lock()
	s.checks[name] = check
	s.mu.Unlock()
}

// RunCheck runs check and reports failure when it does not finish within timeout
func RunCheck(ctx context.Context, name string, check CheckFunc, timeout time.Duration) CheckResult {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	started := time.Now()
	done := make(chan error, 1)
	go func() { done <- check(ctx) }()

	result := CheckResult{Name: name}
	select {
	case err := <-done:
		if err != nil {
			result.Error = err.Error()
		} else {
			result.Healthy = true
		}
	case <-ctx.Done():
		result.Error = fmt.Sprintf("timed out after %s", timeout)
	}
	result.LatencyMs = time.Since(started).Milliseconds()
	return result
}

// Check tests every registered backend concurrently
func (s *HealthService) Check(ctx context.Context) HealthReport {
	s.mu.RLock()
	names := make([]string, 0, len(s.checks))
	for name := range s.checks {
		names = append(names, name)
	}
	checks := make(map[string]CheckFunc, len(s.checks))
	for name, check := range s.checks {
		checks[name] = check
	}
	s.mu.RUnlock()
	sort.Strings(names)

	results := make([]CheckResult, len(names))
	var wg sync.WaitGroup
	for i, name := range names {
		wg.Add(1)
		go func(i int, name string) {
			defer wg.Done()
			results[i] = RunCheck(ctx, name, checks[name], s.timeout)
		}(i, name)
	}
	wg.Wait()

	report := HealthReport{Status: "healthy", CheckedAt: time.Now().UTC(), Checks: results}
	for _, r := range results {
		if !r.Healthy {
			report.Status = "degraded"
			break
		}
	}
	return report
}
