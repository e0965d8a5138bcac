// Package health aggregates dependency checks into one status.
package health

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates a non-critical component failed.
	Degraded Status = "degraded"
	// Unhealthy indicates a critical component failed.
	Unhealthy Status = "error"
)

// CheckResult is the outcome of one check.
type CheckResult string

const (
	// CheckOK indicates a passing check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failed or timed out check.
	CheckError CheckResult = "error"
)

// Component names in Report.Checks.
const (
	ComponentSearch    = "search_engine"
	ComponentCatalog   = "catalog"
	ComponentEmbedding = "embedding"
)

// DefaultCheckTimeout bounds each check when New gets a zero timeout.
const DefaultCheckTimeout = 2 * time.Second

// Report aggregates check results. Errors holds the failure of every
// component whose check is CheckError; it is meant for logs, not clients.
type Report struct {
	Status Status
	Checks map[string]CheckResult
	Errors map[string]error
}

// Service checks its components concurrently, each under its own timeout,
// so one hung dependency cannot stall the health endpoint.
type Service struct {
	components []Component
	timeout    time.Duration
}

// New creates a Service. Components with a nil Check are skipped, which
// lets callers pass optional dependencies unconditionally.
func New(timeout time.Duration, components ...Component) *Service {
	if timeout <= 0 {
		timeout = DefaultCheckTimeout
	}
	kept := make([]Component, 0, len(components))
	for _, c := range components {
		if c.Check != nil {
			kept = append(kept, c)
		}
	}
	return &Service{components: kept, timeout: timeout}
}

// Check runs every check and aggregates the results.
func (s *Service) Check(ctx context.Context) Report {
	var (
		mu     sync.Mutex
		report = Report{
			Status: Healthy,
			Checks: make(map[string]CheckResult, len(s.components)),
			Errors: make(map[string]error),
		}
	)

	var g errgroup.Group
	for _, c := range s.components {
		g.Go(func() error {
			pctx, cancel := context.WithTimeout(ctx, s.timeout)
			defer cancel()
			err := c.Check(pctx)

			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				report.Checks[c.Name] = CheckOK
				return nil
			}
			report.Checks[c.Name] = CheckError
			report.Errors[c.Name] = err
			switch {
			case c.Critical:
				report.Status = Unhealthy
			case report.Status == Healthy:
				report.Status = Degraded
			}
			return nil
		})
	}
	_ = g.Wait()

	return report
}
