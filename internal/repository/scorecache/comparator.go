// Package scorecache memoizes vision similarity scores per (query image, candidate image) pair.
package scorecache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kailas-cloud/lostfound/internal/db"
	"github.com/kailas-cloud/lostfound/internal/domain"
)

var cacheKeyPrefix = domain.KeyPrefix + "score_cache:"

// store is the consumer interface for the score cache (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// CachedComparator serves repeated comparisons from a key-value store.
// Only candidates without a cached score reach the inner comparator.
type CachedComparator struct {
	inner      domain.Comparator
	store      store
	ttl        time.Duration
	cacheTotal *prometheus.CounterVec
	logger     *zap.Logger
}

// New creates a caching decorator. ttl <= 0 keeps entries forever.
// cacheTotal is a counter vec with label "result" ("hit"/"miss"), passed explicitly.
func New(
	inner domain.Comparator,
	s store,
	ttl time.Duration,
	cacheTotal *prometheus.CounterVec,
	logger *zap.Logger,
) *CachedComparator {
	return &CachedComparator{
		inner:      inner,
		store:      s,
		ttl:        ttl,
		cacheTotal: cacheTotal,
		logger:     logger,
	}
}

// Compare returns cached scores where available and asks the inner comparator
// for the rest. Token usage covers only the inner call.
func (c *CachedComparator) Compare(
	ctx context.Context, query string, imageRefs []string,
) (domain.ComparisonResult, error) {
	if len(imageRefs) == 0 {
		return domain.ComparisonResult{}, nil
	}

	queryHash := hashOf(query)
	scores := make([]float64, len(imageRefs))
	keys := make([]string, len(imageRefs))
	var missIdx []int
	var missRefs []string

	for i, ref := range imageRefs {
		keys[i] = cacheKey(queryHash, ref)
		if score, ok := c.getFromCache(ctx, keys[i]); ok {
			c.incCache("hit")
			scores[i] = score
			continue
		}
		c.incCache("miss")
		missIdx = append(missIdx, i)
		missRefs = append(missRefs, ref)
	}

	if len(missRefs) == 0 {
		return domain.ComparisonResult{Scores: scores}, nil
	}

	result, err := c.inner.Compare(ctx, query, missRefs)
	if err != nil {
		return domain.ComparisonResult{}, fmt.Errorf("compare images: %w", err)
	}
	if len(result.Scores) != len(missRefs) {
		return domain.ComparisonResult{}, fmt.Errorf(
			"%w: got %d scores for %d images", domain.ErrComparisonFailed, len(result.Scores), len(missRefs))
	}

	for j, i := range missIdx {
		scores[i] = result.Scores[j]
		c.putToCache(ctx, keys[i], result.Scores[j])
	}

	result.Scores = scores
	return result, nil
}

func (c *CachedComparator) incCache(result string) {
	if c.cacheTotal != nil {
		c.cacheTotal.WithLabelValues(result).Inc()
	}
}

func (c *CachedComparator) getFromCache(ctx context.Context, key string) (float64, bool) {
	data, err := c.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, db.ErrKeyNotFound) {
			c.logger.Warn("Failed to get cached score", zap.String("key", key), zap.Error(err))
		}
		return 0, false
	}

	score, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		c.logger.Warn("Failed to parse cached score", zap.String("key", key), zap.Error(err))
		return 0, false
	}
	return score, true
}

func (c *CachedComparator) putToCache(ctx context.Context, key string, score float64) {
	data := []byte(strconv.FormatFloat(score, 'g', -1, 64))

	var err error
	if c.ttl > 0 {
		err = c.store.SetWithTTL(ctx, key, data, c.ttl)
	} else {
		err = c.store.Set(ctx, key, data)
	}
	if err != nil {
		c.logger.Warn("Failed to cache score", zap.String("key", key), zap.Error(err))
	}
}

func hashOf(s string) string {
	h := sha256.Sum256([]byte(s))
	return hex.EncodeToString(h[:])
}

// cacheKey is lostfound:score_cache:{sha256(query)}:{sha256(ref)}.
func cacheKey(queryHash, ref string) string {
	return cacheKeyPrefix + queryHash + ":" + hashOf(ref)
}
