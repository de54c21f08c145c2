// Package usage reports vision token consumption against the configured budget.
package usage

import (
	"context"
	"time"

	domusage "github.com/kailas-cloud/lostfound/internal/domain/usage"
)

// Service handles usage reporting.
type Service struct {
	br  BudgetReader
	now func() time.Time
}

// New creates a Service. br can be nil (unlimited mode, nothing tracked).
func New(br BudgetReader) *Service {
	return &Service{br: br, now: time.Now}
}

// GetReport builds a usage report for the given period.
// The total period has no boundaries and reports the monthly counters.
func (s *Service) GetReport(_ context.Context, period domusage.Period) domusage.Report {
	now := s.now().UTC()
	r := domusage.Report{Period: period}

	var limit, remaining int64
	switch period {
	case domusage.PeriodDay:
		dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
		r.PeriodStart = dayStart.UnixMilli()
		r.PeriodEnd = dayStart.AddDate(0, 0, 1).UnixMilli()
		if s.br != nil {
			limit, remaining = s.br.DailyLimit(), s.br.RemainingDaily()
			r.Tokens, r.Comparisons = s.br.DailyUsed(), s.br.DailyCalls()
		}
	case domusage.PeriodMonth:
		monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
		r.PeriodStart = monthStart.UnixMilli()
		r.PeriodEnd = monthStart.AddDate(0, 1, 0).UnixMilli()
		fallthrough
	default:
		if s.br != nil {
			limit, remaining = s.br.MonthlyLimit(), s.br.RemainingMonthly()
			r.Tokens, r.Comparisons = s.br.MonthlyUsed(), s.br.MonthlyCalls()
		}
	}

	r.Budget = domusage.Budget{
		Limit:     limit,
		Remaining: remaining,
		Exhausted: limit > 0 && remaining <= 0,
		ResetsAt:  r.PeriodEnd,
	}
	return r
}
