// Package usage reports embedding token consumption against its budget.
package usage

import (
	"context"
	"fmt"
	"time"

	"github.com/kailas-cloud/geodex/internal/domain"
)

// Period selects the budget window of a report.
type Period string

// Report periods.
const (
	PeriodDay   Period = "day"
	PeriodMonth Period = "month"
)

// ParsePeriod validates a period selector; empty means the current day.
func ParsePeriod(s string) (Period, error) {
	switch Period(s) {
	case "", PeriodDay:
		return PeriodDay, nil
	case PeriodMonth:
		return PeriodMonth, nil
	}
	return "", fmt.Errorf("%w: period must be %q or %q, got %q", domain.ErrInvalidQuery, PeriodDay, PeriodMonth, s)
}

// Report is token usage over one budget window. A zero Limit means
// unlimited and Remaining is then -1.
type Report struct {
	Period    Period    `json:"period"`
	Start     time.Time `json:"period_start"`
	End       time.Time `json:"period_end"`
	Limit     int64     `json:"tokens_limit"`
	Used      int64     `json:"tokens_used"`
	Remaining int64     `json:"tokens_remaining"`
	Exhausted bool      `json:"is_exhausted"`
}

// Service handles usage reporting.
type Service struct {
	br  BudgetReader
	now func() time.Time
}

// New creates a Service. br can be nil (unlimited mode).
func New(br BudgetReader) *Service {
	return &Service{br: br, now: time.Now}
}

// Report builds the usage report for period.
func (s *Service) Report(_ context.Context, period Period) Report {
	now := s.now().UTC()
	r := Report{Period: period}

	switch period {
	case PeriodMonth:
		r.Start = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
		r.End = r.Start.AddDate(0, 1, 0)
		if s.br != nil {
			r.fill(s.br.Monthly())
		}
	default:
		r.Period = PeriodDay
		r.Start = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
		r.End = r.Start.Add(24 * time.Hour)
		if s.br != nil {
			r.fill(s.br.Daily())
		}
	}

	if r.Limit == 0 {
		r.Remaining = -1
	}
	r.Exhausted = r.Limit > 0 && r.Remaining <= 0
	return r
}

func (r *Report) fill(u domain.TokenUsage) {
	r.Limit, r.Used, r.Remaining = u.Limit, u.Used, u.Remaining
}
