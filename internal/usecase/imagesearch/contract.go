package imagesearch

import (
	"context"

	"github.com/kailas-cloud/lostfound/internal/domain"
	"github.com/kailas-cloud/lostfound/internal/domain/similarity"
)

// Catalog lists every item that has an image reference.
type Catalog interface {
	ListImaged(ctx context.Context) ([]similarity.Candidate, error)
}

// Comparator scores candidate images against the query image.
type Comparator interface {
	Compare(ctx context.Context, query string, imageRefs []string) (domain.ComparisonResult, error)
}
