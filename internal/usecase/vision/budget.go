// Package vision wraps the image comparator with budget enforcement,
// usage accounting and resolution of locally stored images.
package vision

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/lostfound/internal/domain"
)

// BudgetAction defines behavior when the token budget is exceeded.
type BudgetAction string

const (
	// BudgetActionWarn logs a warning but allows the request.
	BudgetActionWarn BudgetAction = "warn"
	// BudgetActionReject blocks the request.
	BudgetActionReject BudgetAction = "reject"
)

// BudgetStore persists counters. IncrBy may be called repeatedly for the same key.
type BudgetStore interface {
	IncrBy(ctx context.Context, key string, val int64) error
	Get(ctx context.Context, key string) (int64, error)
}

type counters struct {
	tokens int64
	calls  int64
}

// BudgetTracker keeps daily and monthly token and call counters in memory.
// Check never leaves the process; Record writes behind to the store when one is attached.
type BudgetTracker struct {
	mu           sync.Mutex
	daily        counters
	monthly      counters
	dailyLimit   int64
	monthlyLimit int64
	action       BudgetAction
	dayStart     time.Time
	monthStart   time.Time
	now          func() time.Time
	store        BudgetStore
	logger       *zap.Logger
}

// NewBudgetTracker creates a tracker. A zero limit means unlimited.
func NewBudgetTracker(dailyLimit, monthlyLimit int64, action BudgetAction, logger *zap.Logger) *BudgetTracker {
	b := &BudgetTracker{
		dailyLimit:   dailyLimit,
		monthlyLimit: monthlyLimit,
		action:       action,
		now:          time.Now,
		logger:       logger,
	}
	now := b.now().UTC()
	b.dayStart = truncateToDay(now)
	b.monthStart = truncateToMonth(now)
	return b
}

// WithStore attaches a persistence store and loads the current counters from it.
func (b *BudgetTracker) WithStore(ctx context.Context, store BudgetStore) *BudgetTracker {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.store = store
	now := b.now().UTC()

	load := func(key string, dst *int64) {
		val, err := store.Get(ctx, key)
		if err != nil {
			b.logger.Warn("Failed to load vision budget counter", zap.String("key", key), zap.Error(err))
			return
		}
		*dst = val
	}
	load(dailyKey(now), &b.daily.tokens)
	load(dailyKey(now)+":calls", &b.daily.calls)
	load(monthlyKey(now), &b.monthly.tokens)
	load(monthlyKey(now)+":calls", &b.monthly.calls)

	b.logger.Info("Vision budget loaded from store",
		zap.Int64("daily_tokens", b.daily.tokens),
		zap.Int64("monthly_tokens", b.monthly.tokens),
	)
	return b
}

func dailyKey(t time.Time) string {
	return fmt.Sprintf("%sbudget:vision:daily:%s", domain.KeyPrefix, t.Format("2006-01-02"))
}

func monthlyKey(t time.Time) string {
	return fmt.Sprintf("%sbudget:vision:monthly:%s", domain.KeyPrefix, t.Format("2006-01"))
}

// Check reports whether a new comparison may run.
func (b *BudgetTracker) Check(_ context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.resetIfNeeded()

	dailyExceeded := b.dailyLimit > 0 && b.daily.tokens >= b.dailyLimit
	monthlyExceeded := b.monthlyLimit > 0 && b.monthly.tokens >= b.monthlyLimit
	if !dailyExceeded && !monthlyExceeded {
		return nil
	}

	if b.action == BudgetActionReject {
		return domain.ErrVisionQuotaExceeded
	}

	b.logger.Warn("Vision token budget exceeded",
		zap.Int64("daily_used", b.daily.tokens),
		zap.Int64("daily_limit", b.dailyLimit),
		zap.Int64("monthly_used", b.monthly.tokens),
		zap.Int64("monthly_limit", b.monthlyLimit),
	)
	return nil
}

// Record counts one comparator call that consumed tokens.
func (b *BudgetTracker) Record(tokens int64) {
	b.mu.Lock()
	b.resetIfNeeded()
	b.daily.tokens += tokens
	b.daily.calls++
	b.monthly.tokens += tokens
	b.monthly.calls++
	store := b.store
	now := b.now().UTC()
	b.mu.Unlock()

	if store == nil {
		return
	}

	// Detached from the request so a cancelled search still gets billed.
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	writes := []struct {
		key string
		val int64
	}{
		{dailyKey(now), tokens},
		{dailyKey(now) + ":calls", 1},
		{monthlyKey(now), tokens},
		{monthlyKey(now) + ":calls", 1},
	}
	for _, w := range writes {
		if err := store.IncrBy(ctx, w.key, w.val); err != nil {
			b.logger.Warn("Failed to persist vision budget", zap.String("key", w.key), zap.Error(err))
		}
	}
}

// RemainingDaily returns tokens left today (-1 if unlimited).
func (b *BudgetTracker) RemainingDaily() int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.resetIfNeeded()
	return remaining(b.dailyLimit, b.daily.tokens)
}

// RemainingMonthly returns tokens left this month (-1 if unlimited).
func (b *BudgetTracker) RemainingMonthly() int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.resetIfNeeded()
	return remaining(b.monthlyLimit, b.monthly.tokens)
}

func remaining(limit, used int64) int64 {
	if limit == 0 {
		return -1
	}
	return max(limit-used, 0)
}

// DailyLimit returns the daily token cap.
func (b *BudgetTracker) DailyLimit() int64 { return b.dailyLimit }

// MonthlyLimit returns the monthly token cap.
func (b *BudgetTracker) MonthlyLimit() int64 { return b.monthlyLimit }

// DailyUsed returns tokens consumed today.
func (b *BudgetTracker) DailyUsed() int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.resetIfNeeded()
	return b.daily.tokens
}

// MonthlyUsed returns tokens consumed this month.
func (b *BudgetTracker) MonthlyUsed() int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.resetIfNeeded()
	return b.monthly.tokens
}

// DailyCalls returns comparator calls made today.
func (b *BudgetTracker) DailyCalls() int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.resetIfNeeded()
	return b.daily.calls
}

// MonthlyCalls returns comparator calls made this month.
func (b *BudgetTracker) MonthlyCalls() int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.resetIfNeeded()
	return b.monthly.calls
}

// resetIfNeeded zeroes counters when the day or month rolls over. Caller holds mu.
func (b *BudgetTracker) resetIfNeeded() {
	now := b.now().UTC()
	if today := truncateToDay(now); today.After(b.dayStart) {
		b.daily = counters{}
		b.dayStart = today
	}
	if month := truncateToMonth(now); month.After(b.monthStart) {
		b.monthly = counters{}
		b.monthStart = month
	}
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func truncateToMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}
