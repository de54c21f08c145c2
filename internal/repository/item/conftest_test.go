package item

import (
	"context"
	"testing"

	"github.com/kailas-cloud/lostfound/internal/db"
	domitem "github.com/kailas-cloud/lostfound/internal/domain/item"
)

// mockStore implements the consumer interface for tests.
type mockStore struct {
	jsonSetFn     func(ctx context.Context, key, path string, data []byte) error
	jsonGetFn     func(ctx context.Context, key string, paths ...string) ([]byte, error)
	delFn         func(ctx context.Context, key string) error
	existsFn      func(ctx context.Context, key string) (bool, error)
	getFn         func(ctx context.Context, key string) ([]byte, error)
	setFn         func(ctx context.Context, key string, value []byte) error
	createIndexFn func(ctx context.Context, def *db.IndexDefinition) error
	dropIndexFn   func(ctx context.Context, name string) error
	indexExistsFn func(ctx context.Context, name string) (bool, error)
	searchListFn  func(ctx context.Context, q *db.ListQuery) (*db.SearchResult, error)
	countFn       func(ctx context.Context, index string, f db.Filter) (int, error)
}

func (m *mockStore) Get(ctx context.Context, key string) ([]byte, error) {
	if m.getFn != nil {
		return m.getFn(ctx, key)
	}
	return nil, db.ErrKeyNotFound
}

func (m *mockStore) Set(ctx context.Context, key string, value []byte) error {
	if m.setFn != nil {
		return m.setFn(ctx, key, value)
	}
	return nil
}

func (m *mockStore) DropIndex(ctx context.Context, name string) error {
	if m.dropIndexFn != nil {
		return m.dropIndexFn(ctx, name)
	}
	return nil
}

func (m *mockStore) SearchCount(ctx context.Context, index string, f db.Filter) (int, error) {
	if m.countFn != nil {
		return m.countFn(ctx, index, f)
	}
	return 0, nil
}

func (m *mockStore) JSONSet(ctx context.Context, key, path string, data []byte) error {
	if m.jsonSetFn != nil {
		return m.jsonSetFn(ctx, key, path, data)
	}
	return nil
}

func (m *mockStore) JSONGet(ctx context.Context, key string, paths ...string) ([]byte, error) {
	if m.jsonGetFn != nil {
		return m.jsonGetFn(ctx, key, paths...)
	}
	return nil, db.ErrKeyNotFound
}

func (m *mockStore) Del(ctx context.Context, key string) error {
	if m.delFn != nil {
		return m.delFn(ctx, key)
	}
	return nil
}

func (m *mockStore) Exists(ctx context.Context, key string) (bool, error) {
	if m.existsFn != nil {
		return m.existsFn(ctx, key)
	}
	return false, nil
}

func (m *mockStore) CreateIndex(ctx context.Context, def *db.IndexDefinition) error {
	if m.createIndexFn != nil {
		return m.createIndexFn(ctx, def)
	}
	return nil
}

func (m *mockStore) IndexExists(ctx context.Context, name string) (bool, error) {
	if m.indexExistsFn != nil {
		return m.indexExistsFn(ctx, name)
	}
	return false, nil
}

func (m *mockStore) SearchList(ctx context.Context, q *db.ListQuery) (*db.SearchResult, error) {
	if m.searchListFn != nil {
		return m.searchListFn(ctx, q)
	}
	return &db.SearchResult{}, nil
}

func newTestRepo(t *testing.T) (*Repo, *mockStore) {
	t.Helper()
	ms := &mockStore{}
	return New(ms), ms
}

func testItem(t *testing.T, id, imageURL string) domitem.Item {
	t.Helper()
	return domitem.Reconstruct(domitem.Snapshot{
		ID:        id,
		Type:      domitem.TypeFound,
		Title:     "Blue water bottle",
		Category:  domitem.CategoryOther,
		Date:      "2025-03-05",
		Status:    domitem.StatusPending,
		ImageURL:  imageURL,
		OwnerID:   "user-1",
		CreatedAt: 1741170000000,
		UpdatedAt: 1741170000000,
	})
}
