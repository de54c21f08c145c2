package domain

import "context"

type visionUsageKey struct{}

// VisionUsage collects vision token usage for a single HTTP request.
// The handler puts a mutable pointer into the context before calling the service;
// the comparator chain writes after each batch; the handler reads it for response headers.
type VisionUsage struct {
	TotalTokens int
	Batches     int
}

// NewContextWithVisionUsage returns a context with an embedded usage collector.
func NewContextWithVisionUsage(ctx context.Context) (context.Context, *VisionUsage) {
	u := &VisionUsage{}
	return context.WithValue(ctx, visionUsageKey{}, u), u
}

// VisionUsageFromContext extracts the usage collector from context. Returns nil if not set.
func VisionUsageFromContext(ctx context.Context) *VisionUsage {
	u, _ := ctx.Value(visionUsageKey{}).(*VisionUsage)
	return u
}

// AddBatch records one comparator call and the tokens it consumed.
func (u *VisionUsage) AddBatch(tokens int) {
	if u != nil {
		u.TotalTokens += tokens
		u.Batches++
	}
}
