package vision

import (
	"context"
	"fmt"

	"github.com/kailas-cloud/lostfound/internal/domain"
)

// ImageSource resolves image URLs served by this API back to stored data URIs.
type ImageSource interface {
	IDFromURL(url string) (string, bool)
	DataURI(ctx context.Context, id string) (string, error)
}

// InliningComparator replaces references to locally stored images with their
// data URIs, so the provider never has to fetch from this API.
// Foreign URLs pass through unchanged.
type InliningComparator struct {
	inner  domain.Comparator
	images ImageSource
}

// NewInliningComparator wraps inner.
func NewInliningComparator(inner domain.Comparator, images ImageSource) *InliningComparator {
	return &InliningComparator{inner: inner, images: images}
}

// Compare inlines local references and delegates. The inner comparator sees refs in the same order.
func (c *InliningComparator) Compare(
	ctx context.Context, query string, imageRefs []string,
) (domain.ComparisonResult, error) {
	refs := make([]string, len(imageRefs))
	for i, ref := range imageRefs {
		id, ok := c.images.IDFromURL(ref)
		if !ok {
			refs[i] = ref
			continue
		}
		uri, err := c.images.DataURI(ctx, id)
		if err != nil {
			return domain.ComparisonResult{}, fmt.Errorf("inline image %s: %w: %w", id, err, domain.ErrComparisonFailed)
		}
		refs[i] = uri
	}

	result, err := c.inner.Compare(ctx, query, refs)
	if err != nil {
		return domain.ComparisonResult{}, fmt.Errorf("compare inlined: %w", err)
	}
	return result, nil
}
