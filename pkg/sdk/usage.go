package lostfound

import (
	"context"
	"fmt"
	"time"

	"github.com/kailas-cloud/lostfound/internal/domain"
	domusage "github.com/kailas-cloud/lostfound/internal/domain/usage"
)

// UsagePeriod is the aggregation granularity for usage reports.
type UsagePeriod string

// UsagePeriod constants.
const (
	PeriodDay   UsagePeriod = "day"
	PeriodMonth UsagePeriod = "month"
	PeriodTotal UsagePeriod = "total"
)

// UsageReport describes vision token consumption for a period.
// Counters are those of this client's budget tracker; without WithTokenBudget they stay zero.
type UsageReport struct {
	Period      UsagePeriod
	PeriodStart time.Time // zero for PeriodTotal
	PeriodEnd   time.Time // zero for PeriodTotal
	Comparisons int64
	Tokens      int64
	Budget      BudgetStatus
}

// BudgetStatus tracks token quota state. Limit 0 means unlimited.
type BudgetStatus struct {
	Limit     int64
	Remaining int64
	Exhausted bool
	ResetsAt  time.Time
}

// Usage returns a vision usage report for the given period.
// An empty period means PeriodMonth.
func (c *Client) Usage(ctx context.Context, period UsagePeriod) (_ UsageReport, err error) {
	start := time.Now()
	defer func() { c.obs.observe("usage", start, err) }()

	p, err := domusage.ParsePeriod(string(period))
	if err != nil {
		return UsageReport{}, fmt.Errorf("%w: %w", domain.ErrInvalidInput, err)
	}
	r := c.usageSvc.GetReport(ctx, p)

	return UsageReport{
		Period:      UsagePeriod(r.Period),
		PeriodStart: millis(r.PeriodStart),
		PeriodEnd:   millis(r.PeriodEnd),
		Comparisons: r.Comparisons,
		Tokens:      r.Tokens,
		Budget: BudgetStatus{
			Limit:     r.Budget.Limit,
			Remaining: r.Budget.Remaining,
			Exhausted: r.Budget.Exhausted,
			ResetsAt:  millis(r.Budget.ResetsAt),
		},
	}, nil
}

func millis(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}

// usageUseCase is the internal interface for usage reports.
type usageUseCase interface {
	GetReport(ctx context.Context, period domusage.Period) domusage.Report
}
