package scorecache

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/lostfound/internal/db"
	"github.com/kailas-cloud/lostfound/internal/domain"
)

type mockComparator struct {
	scores func(refs []string) []float64
	err    error
	calls  [][]string
}

func (m *mockComparator) Compare(_ context.Context, _ string, refs []string) (domain.ComparisonResult, error) {
	m.calls = append(m.calls, append([]string(nil), refs...))
	if m.err != nil {
		return domain.ComparisonResult{}, m.err
	}
	return domain.ComparisonResult{Scores: m.scores(refs), TotalTokens: 100 * len(refs)}, nil
}

// mockKVStore is an in-memory implementation of the consumer interface.
type mockKVStore struct {
	data   map[string][]byte
	ttls   map[string]time.Duration
	getErr error
}

func newMockKVStore() *mockKVStore {
	return &mockKVStore{data: map[string][]byte{}, ttls: map[string]time.Duration{}}
}

func (m *mockKVStore) Get(_ context.Context, key string) ([]byte, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	v, ok := m.data[key]
	if !ok {
		return nil, db.ErrKeyNotFound
	}
	return v, nil
}

func (m *mockKVStore) Set(_ context.Context, key string, value []byte) error {
	m.data[key] = value
	return nil
}

func (m *mockKVStore) SetWithTTL(_ context.Context, key string, value []byte, ttl time.Duration) error {
	m.data[key] = value
	m.ttls[key] = ttl
	return nil
}

func newTestComparator(t *testing.T, inner *mockComparator, ttl time.Duration) (*CachedComparator, *mockKVStore) {
	t.Helper()
	ms := newMockKVStore()
	return New(inner, ms, ttl, nil, zap.NewNop()), ms
}
