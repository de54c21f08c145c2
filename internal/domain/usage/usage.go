// Package usage describes vision token consumption over a period.
package usage

import "fmt"

// Period is the aggregation granularity.
type Period string

// Aggregation period constants.
const (
	PeriodDay   Period = "day"
	PeriodMonth Period = "month"
	PeriodTotal Period = "total"
)

// ParsePeriod validates a period string. Empty means PeriodMonth.
func ParsePeriod(s string) (Period, error) {
	switch p := Period(s); p {
	case "":
		return PeriodMonth, nil
	case PeriodDay, PeriodMonth, PeriodTotal:
		return p, nil
	default:
		return "", fmt.Errorf("unknown period %q (expected day, month or total)", s)
	}
}

// Budget is the token budget state at report time. Limit 0 means unlimited.
type Budget struct {
	Limit     int64
	Remaining int64
	Exhausted bool
	ResetsAt  int64 // unix millis, 0 when the period has no end
}

// Report is vision usage for one period.
type Report struct {
	Period      Period
	PeriodStart int64 // unix millis
	PeriodEnd   int64 // unix millis
	Comparisons int64 // comparator calls that reached the provider
	Tokens      int64
	Budget      Budget
}
