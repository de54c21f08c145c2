package vision

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/lostfound/internal/domain"
	"github.com/kailas-cloud/lostfound/internal/metrics"
)

// BudgetChecker is the local interface for budget enforcement.
type BudgetChecker interface {
	Check(ctx context.Context) error
	Record(tokens int64)
	RemainingDaily() int64
	RemainingMonthly() int64
}

// InstrumentedComparator wraps a comparator with budget enforcement and request usage accounting.
// Transport metrics (requests, duration, tokens) are recorded in transport/openai.
type InstrumentedComparator struct {
	inner  domain.Comparator
	model  string
	budget BudgetChecker
	logger *zap.Logger
}

// NewInstrumentedComparator wraps inner. budget can be nil (unlimited).
func NewInstrumentedComparator(
	inner domain.Comparator, model string, budget BudgetChecker, logger *zap.Logger,
) *InstrumentedComparator {
	return &InstrumentedComparator{inner: inner, model: model, budget: budget, logger: logger}
}

// Compare checks the budget, delegates, then records usage in the budget and the request context.
func (p *InstrumentedComparator) Compare(
	ctx context.Context, query string, imageRefs []string,
) (domain.ComparisonResult, error) {
	if p.budget != nil {
		if err := p.budget.Check(ctx); err != nil {
			p.logger.Error("Vision budget exceeded",
				zap.String("model", p.model),
				zap.Int("images", len(imageRefs)),
				zap.Error(err),
			)
			return domain.ComparisonResult{}, fmt.Errorf("budget check: %w", err)
		}
	}

	start := time.Now()
	result, err := p.inner.Compare(ctx, query, imageRefs)
	duration := time.Since(start)

	if err != nil {
		p.logger.Error("Vision comparison failed",
			zap.String("model", p.model),
			zap.Int("images", len(imageRefs)),
			zap.Duration("duration", duration),
			zap.Error(err),
		)
		return domain.ComparisonResult{}, fmt.Errorf("compare: %w", err)
	}

	domain.VisionUsageFromContext(ctx).AddBatch(result.TotalTokens)

	if p.budget != nil && result.TotalTokens > 0 {
		p.budget.Record(int64(result.TotalTokens))
		remaining := metrics.VisionBudgetTokensRemaining
		remaining.WithLabelValues("daily").Set(float64(p.budget.RemainingDaily()))
		remaining.WithLabelValues("monthly").Set(float64(p.budget.RemainingMonthly()))
	}

	p.logger.Debug("Vision comparison completed",
		zap.String("model", p.model),
		zap.Int("images", len(imageRefs)),
		zap.Duration("duration", duration),
		zap.Int("prompt_tokens", result.PromptTokens),
		zap.Int("total_tokens", result.TotalTokens),
	)
	return result, nil
}
