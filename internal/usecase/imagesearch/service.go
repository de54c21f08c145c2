// Package imagesearch ranks catalog items by visual similarity to an uploaded photo.
package imagesearch

import (
	"context"
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/lostfound/internal/domain"
	"github.com/kailas-cloud/lostfound/internal/domain/similarity"
	"github.com/kailas-cloud/lostfound/internal/imagecodec"
	"github.com/kailas-cloud/lostfound/internal/logger"
	"github.com/kailas-cloud/lostfound/internal/metrics"
)

// Service runs image similarity searches against the item catalog.
// It holds no per-search state; concurrent searches are independent.
type Service struct {
	catalog   Catalog
	batches   *batchRequester
	batchSize int
	logger    *zap.Logger
}

// New creates a search service with the default batch size.
func New(catalog Catalog, comparator Comparator, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		catalog:   catalog,
		batches:   &batchRequester{comparator: comparator, logger: logger},
		batchSize: similarity.DefaultBatchSize,
		logger:    logger,
	}
}

// WithBatchSize sets the number of candidates per comparator call. n <= 0 keeps the current size.
func (s *Service) WithBatchSize(n int) *Service {
	if n > 0 {
		s.batchSize = n
	}
	return s
}

// BatchSize returns the configured batch size.
func (s *Service) BatchSize() int { return s.batchSize }

// Search compares image against every imaged item and returns them by descending similarity.
//
// An unreadable image fails with a domain.EncodingError before anything else runs.
// A catalog failure is returned as a domain.CatalogError. Failed batches are
// dropped, so the result may be partial or empty, never an error.
func (s *Service) Search(ctx context.Context, image io.Reader) ([]similarity.Result, error) {
	start := time.Now()

	query, err := imagecodec.Encode(image)
	if err != nil {
		metrics.SearchesTotal.WithLabelValues("encoding_failed").Inc()
		return nil, err
	}

	candidates, err := s.catalog.ListImaged(ctx)
	if err != nil {
		metrics.SearchesTotal.WithLabelValues("catalog_failed").Inc()
		return nil, domain.NewCatalogError(err)
	}

	candidates = similarity.Eligible(candidates)
	metrics.SearchCandidates.Observe(float64(len(candidates)))
	if len(candidates) == 0 {
		metrics.SearchesTotal.WithLabelValues("empty").Inc()
		return []similarity.Result{}, nil
	}

	batches := similarity.Partition(candidates, s.batchSize)
	results := make([]similarity.Result, 0, len(candidates))
	for i, batch := range batches {
		results = append(results, s.batches.request(ctx, query, batch, i)...)
	}

	similarity.SortDescending(results)

	outcome := "ok"
	if len(results) == 0 {
		outcome = "empty"
	}
	metrics.SearchesTotal.WithLabelValues(outcome).Inc()

	logger.FromContextOr(ctx, s.logger).Info("Image search completed",
		zap.Int("candidates", len(candidates)),
		zap.Int("batches", len(batches)),
		zap.Int("results", len(results)),
		zap.Duration("duration", time.Since(start)),
	)
	return results, nil
}
