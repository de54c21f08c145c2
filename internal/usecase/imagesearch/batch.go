package imagesearch

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/kailas-cloud/lostfound/internal/domain"
	"github.com/kailas-cloud/lostfound/internal/domain/similarity"
	"github.com/kailas-cloud/lostfound/internal/logger"
	"github.com/kailas-cloud/lostfound/internal/metrics"
)

// batchRequester scores one batch of candidates with a single comparator call.
type batchRequester struct {
	comparator Comparator
	logger     *zap.Logger
}

// request returns one result per candidate, in submission order.
// Any failure is logged and yields an empty slice; the search goes on without this batch.
func (b *batchRequester) request(
	ctx context.Context, query string, batch []similarity.Candidate, index int,
) []similarity.Result {
	if len(batch) == 0 {
		return nil
	}

	results, err := b.compare(ctx, query, batch)
	if err != nil {
		cerr := &domain.ComparisonError{Batch: index, Err: err}
		metrics.SearchBatchesTotal.WithLabelValues("failed").Inc()
		logger.FromContextOr(ctx, b.logger).Warn("Comparison batch failed",
			zap.Int("batch", index),
			zap.Int("size", len(batch)),
			zap.String("first_item", batch[0].ItemID),
			zap.Bool("quota_exceeded", errors.Is(err, domain.ErrVisionQuotaExceeded)),
			zap.Error(cerr),
		)
		return nil
	}

	metrics.SearchBatchesTotal.WithLabelValues("ok").Inc()
	return results
}

func (b *batchRequester) compare(
	ctx context.Context, query string, batch []similarity.Candidate,
) ([]similarity.Result, error) {
	refs := make([]string, len(batch))
	for i, c := range batch {
		refs[i] = c.ImageURL
	}

	res, err := b.comparator.Compare(ctx, query, refs)
	if err != nil {
		return nil, err
	}
	if len(res.Scores) != len(batch) {
		return nil, fmt.Errorf("%w: got %d scores for %d candidates",
			domain.ErrComparisonFailed, len(res.Scores), len(batch))
	}

	results := make([]similarity.Result, len(batch))
	for i, c := range batch {
		results[i] = similarity.Result{ItemID: c.ItemID, Similarity: res.Scores[i]}
	}
	return results, nil
}
