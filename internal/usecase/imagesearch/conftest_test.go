package imagesearch

import (
	"context"
	"errors"
	"os"
	"sync/atomic"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/lostfound/internal/domain"
	"github.com/kailas-cloud/lostfound/internal/domain/similarity"
	"github.com/kailas-cloud/lostfound/internal/metrics"
)

func TestMain(m *testing.M) {
	metrics.RegisterSearchMetrics()
	metrics.RegisterVisionMetrics()
	os.Exit(m.Run())
}

type mockCatalog struct {
	candidates []similarity.Candidate
	err        error
	calls      int
}

func (m *mockCatalog) ListImaged(_ context.Context) ([]similarity.Candidate, error) {
	m.calls++
	return m.candidates, m.err
}

// mockComparator scores each ref via scoreFn; failOn lists 1-based call numbers that fail.
type mockComparator struct {
	scoreFn  func(ref string) float64
	failOn   map[int]bool
	short    map[int]bool // calls that return one score too few
	calls    [][]string
	queries  []string
	inFlight atomic.Int32
	maxSeen  atomic.Int32
}

func (m *mockComparator) Compare(_ context.Context, query string, refs []string) (domain.ComparisonResult, error) {
	n := m.inFlight.Add(1)
	defer m.inFlight.Add(-1)
	if n > m.maxSeen.Load() {
		m.maxSeen.Store(n)
	}

	m.calls = append(m.calls, append([]string(nil), refs...))
	m.queries = append(m.queries, query)
	call := len(m.calls)
	if m.failOn[call] {
		return domain.ComparisonResult{}, errors.New("provider unavailable")
	}

	scores := make([]float64, len(refs))
	for i, r := range refs {
		scores[i] = m.scoreFn(r)
	}
	if m.short[call] {
		scores = scores[:len(scores)-1]
	}
	return domain.ComparisonResult{Scores: scores, TotalTokens: 100}, nil
}

func candidates(ids ...string) []similarity.Candidate {
	out := make([]similarity.Candidate, len(ids))
	for i, id := range ids {
		out[i] = similarity.Candidate{ItemID: id, ImageURL: "https://img.test/" + id}
	}
	return out
}

func scoresByID(m map[string]float64) func(string) float64 {
	return func(ref string) float64 {
		return m[ref[len("https://img.test/"):]]
	}
}

func newTestService(t *testing.T, cat *mockCatalog, cmp *mockComparator) *Service {
	t.Helper()
	return New(cat, cmp, zap.NewNop())
}
