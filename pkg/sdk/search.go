package lostfound

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/kailas-cloud/lostfound/internal/domain"
)

// SearchResult is the outcome of an image search.
type SearchResult struct {
	Matches []Match
	// Tokens and Batches describe the vision calls made for this search.
	Tokens  int
	Batches int
}

// Fallback reports whether nothing matched, so callers should offer the regular listing.
func (r *SearchResult) Fallback() bool { return len(r.Matches) == 0 }

// SearchImage compares image with every catalog photo and returns matches, best first.
func (c *Client) SearchImage(ctx context.Context, image io.Reader) (_ SearchResult, err error) {
	start := time.Now()
	defer func() { c.obs.observe("search_image", start, err) }()

	if c.searchSvc == nil {
		return SearchResult{}, ErrVisionNotConfigured
	}

	ctx, usage := domain.NewContextWithVisionUsage(ctx)
	results, err := c.searchSvc.Search(ctx, image)
	if err != nil {
		return SearchResult{}, fmt.Errorf("search image: %w", err)
	}
	return SearchResult{
		Matches: matchesFromDomain(results),
		Tokens:  usage.TotalTokens,
		Batches: usage.Batches,
	}, nil
}
