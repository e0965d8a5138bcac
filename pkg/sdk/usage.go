package geodex

import (
	"context"
	"time"

	usageuc "github.com/kailas-cloud/geodex/internal/usecase/usage"
)

// UsagePeriod is the budget window of a usage report.
type UsagePeriod string

// UsagePeriod constants.
const (
	PeriodDay   UsagePeriod = "day"
	PeriodMonth UsagePeriod = "month"
)

// UsageReport is embedding token usage over one budget window.
// A zero TokensLimit means unlimited.
type UsageReport struct {
	Period          UsagePeriod
	PeriodStart     time.Time
	PeriodEnd       time.Time
	TokensLimit     int64
	TokensUsed      int64
	TokensRemaining int64
	IsExhausted     bool
}

// Usage returns the embedding token report for period.
// The observer always records success; the report is built from counters
// already in memory.
func (c *Client) Usage(ctx context.Context, period UsagePeriod) UsageReport {
	start := time.Now()
	defer func() { c.obs.observe("usage", start, nil) }()

	r := c.usageSvc.Report(ctx, usageuc.Period(period))
	return UsageReport{
		Period:          UsagePeriod(r.Period),
		PeriodStart:     r.Start,
		PeriodEnd:       r.End,
		TokensLimit:     r.Limit,
		TokensUsed:      r.Used,
		TokensRemaining: r.Remaining,
		IsExhausted:     r.Exhausted,
	}
}
