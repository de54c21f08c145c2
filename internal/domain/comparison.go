package domain

import "context"

// Comparator is the shared image comparison contract between layers.
// query is an inline data URI; imageRefs are candidate image URLs in
// submission order. Scores in the result follow the same order.
type Comparator interface {
	Compare(ctx context.Context, query string, imageRefs []string) (ComparisonResult, error)
}

// HealthChecker verifies vision provider availability.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// ComparisonResult carries similarity scores and token usage through the decorator chain.
type ComparisonResult struct {
	Scores       []float64
	PromptTokens int
	TotalTokens  int
}
