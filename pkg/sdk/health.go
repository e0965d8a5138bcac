package geodex

import (
	"context"
	"sort"
	"time"
)

// HealthStatus is the aggregated health of the embedded catalog.
type HealthStatus struct {
	// Status is "ok", "degraded" (catalog or embedding provider failing)
	// or "error" (search backend failing).
	Status string
	// Checks maps component names to "ok" or "error".
	Checks map[string]string
	// Errors holds the failure message of every failing component.
	Errors map[string]string
}

// OK reports whether every component passed.
func (h HealthStatus) OK() bool { return h.Status == "ok" }

// Failing lists failing components in name order.
func (h HealthStatus) Failing() []string {
	names := make([]string, 0, len(h.Errors))
	for name := range h.Errors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Health checks the search backend, the catalog and, when configured, the
// embedding provider.
func (c *Client) Health(ctx context.Context) HealthStatus {
	start := time.Now()
	report := c.healthSvc.Check(ctx)

	h := HealthStatus{
		Status: string(report.Status),
		Checks: make(map[string]string, len(report.Checks)),
		Errors: make(map[string]string, len(report.Errors)),
	}
	for name, res := range report.Checks {
		h.Checks[name] = string(res)
	}
	for name, err := range report.Errors {
		h.Errors[name] = err.Error()
	}
	c.obs.observe("health", start, nil)
	return h
}
