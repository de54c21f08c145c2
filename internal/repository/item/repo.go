// Package item stores lost and found reports as JSON documents in Redis.
package item

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/kailas-cloud/lostfound/internal/db"
	"github.com/kailas-cloud/lostfound/internal/domain"
	domitem "github.com/kailas-cloud/lostfound/internal/domain/item"
	"github.com/kailas-cloud/lostfound/internal/domain/similarity"
)

// scanPageSize is the FT.SEARCH page used when walking the whole catalog.
const scanPageSize = 500

// store is the consumer interface for items (ISP).
type store interface {
	JSONSet(ctx context.Context, key, path string, data []byte) error
	JSONGet(ctx context.Context, key string, paths ...string) ([]byte, error)
	Del(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
	DropIndex(ctx context.Context, name string) error
	IndexExists(ctx context.Context, name string) (bool, error)
	SearchList(ctx context.Context, q *db.ListQuery) (*db.SearchResult, error)
	SearchCount(ctx context.Context, index string, f db.Filter) (int, error)
}

// Repo implements usecase/item.Repository and the image search catalog.
type Repo struct {
	store store
}

// New creates an item repository.
func New(s store) *Repo {
	return &Repo{store: s}
}

// Create stores a new item. Returns domain.ErrAlreadyExists when the ID is taken.
func (r *Repo) Create(ctx context.Context, it *domitem.Item) error {
	key := itemKey(it.ID())
	exists, err := r.store.Exists(ctx, key)
	if err != nil {
		return fmt.Errorf("check exists %s: %w", key, err)
	}
	if exists {
		return domain.ErrAlreadyExists
	}
	return r.put(ctx, key, it)
}

// Save overwrites an existing item.
func (r *Repo) Save(ctx context.Context, it *domitem.Item) error {
	key := itemKey(it.ID())
	exists, err := r.store.Exists(ctx, key)
	if err != nil {
		return fmt.Errorf("check exists %s: %w", key, err)
	}
	if !exists {
		return domain.ErrItemNotFound
	}
	return r.put(ctx, key, it)
}

func (r *Repo) put(ctx context.Context, key string, it *domitem.Item) error {
	data, err := json.Marshal(toDoc(it))
	if err != nil {
		return fmt.Errorf("marshal item: %w", err)
	}
	if err := r.store.JSONSet(ctx, key, "$", data); err != nil {
		return fmt.Errorf("json.set %s: %w", key, err)
	}
	return nil
}

// Get returns an item by ID.
func (r *Repo) Get(ctx context.Context, id string) (domitem.Item, error) {
	key := itemKey(id)
	raw, err := r.store.JSONGet(ctx, key, "$")
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return domitem.Item{}, domain.ErrItemNotFound
		}
		return domitem.Item{}, fmt.Errorf("json.get %s: %w", key, err)
	}

	// JSON.GET with a $ path returns an array of matches.
	var docs []itemDoc
	if err := json.Unmarshal(raw, &docs); err != nil {
		return domitem.Item{}, fmt.Errorf("unmarshal item %s: %w", id, err)
	}
	if len(docs) == 0 {
		return domitem.Item{}, domain.ErrItemNotFound
	}
	return docs[0].toDomain(), nil
}

// Delete removes an item.
func (r *Repo) Delete(ctx context.Context, id string) error {
	key := itemKey(id)

	exists, err := r.store.Exists(ctx, key)
	if err != nil {
		return fmt.Errorf("check exists %s: %w", key, err)
	}
	if !exists {
		return domain.ErrItemNotFound
	}

	if err := r.store.Del(ctx, key); err != nil {
		return fmt.Errorf("del %s: %w", key, err)
	}
	return nil
}

// List returns items matching f, newest first, with offset-cursor pagination.
// f must already be validated.
func (r *Repo) List(ctx context.Context, f domitem.Filter) ([]domitem.Item, string, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = domitem.DefaultPageSize
	}

	offset := 0
	if f.Cursor != "" {
		parsed, err := strconv.Atoi(f.Cursor)
		if err != nil || parsed < 0 {
			return nil, "", fmt.Errorf("invalid cursor %q: %w", f.Cursor, domain.ErrInvalidInput)
		}
		offset = parsed
	}

	dbFilter, err := buildFilter(f)
	if err != nil {
		return nil, "", err
	}

	result, err := r.store.SearchList(ctx, &db.ListQuery{
		IndexName:    indexName(),
		Filter:       dbFilter,
		Offset:       offset,
		Limit:        limit + 1,
		SortBy:       fieldCreatedAt,
		SortDesc:     true,
		ReturnFields: []string{"$"},
	})
	if err != nil {
		return nil, "", fmt.Errorf("search items: %w", err)
	}
	if result == nil || result.Total == 0 {
		return nil, "", nil
	}

	items := make([]domitem.Item, 0, min(limit, len(result.Entries)))
	for i, entry := range result.Entries {
		if i >= limit {
			break
		}
		it, ok := decodeEntry(entry)
		if !ok {
			continue
		}
		items = append(items, it)
	}

	var nextCursor string
	if len(result.Entries) > limit {
		nextCursor = strconv.Itoa(offset + limit)
	}
	return items, nextCursor, nil
}

// ListByOwner returns every item reported by ownerID, newest first.
func (r *Repo) ListByOwner(ctx context.Context, ownerID string) ([]domitem.Item, error) {
	var out []domitem.Item
	err := r.walk(ctx, db.Filter{
		Tags: []db.TagCondition{{Field: fieldOwner, Value: ownerID}},
	}, func(it domitem.Item) {
		out = append(out, it)
	})
	if err != nil {
		return nil, fmt.Errorf("list items of %s: %w", ownerID, err)
	}
	return out, nil
}

// ListImaged returns every item with a stored image, newest first.
func (r *Repo) ListImaged(ctx context.Context) ([]similarity.Candidate, error) {
	var out []similarity.Candidate
	err := r.walk(ctx, db.Filter{
		Tags: []db.TagCondition{{Field: fieldHasImage, Value: "1"}},
	}, func(it domitem.Item) {
		if it.HasImage() {
			out = append(out, similarity.Candidate{ItemID: it.ID(), ImageURL: it.ImageURL()})
		}
	})
	if err != nil {
		return nil, fmt.Errorf("list imaged items: %w", err)
	}
	return out, nil
}

// walk pages through every document matching f.
func (r *Repo) walk(ctx context.Context, f db.Filter, fn func(domitem.Item)) error {
	for offset := 0; ; offset += scanPageSize {
		result, err := r.store.SearchList(ctx, &db.ListQuery{
			IndexName:    indexName(),
			Filter:       f,
			Offset:       offset,
			Limit:        scanPageSize,
			SortBy:       fieldCreatedAt,
			SortDesc:     true,
			ReturnFields: []string{"$"},
		})
		if err != nil {
			return err
		}
		if result == nil {
			return nil
		}
		for _, entry := range result.Entries {
			if it, ok := decodeEntry(entry); ok {
				fn(it)
			}
		}
		if len(result.Entries) < scanPageSize || offset+scanPageSize >= result.Total {
			return nil
		}
	}
}

func decodeEntry(entry db.SearchEntry) (domitem.Item, bool) {
	raw := entry.Fields["$"]
	if raw == "" {
		return domitem.Item{}, false
	}
	var doc itemDoc
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return domitem.Item{}, false
	}
	if doc.ID == "" {
		doc.ID = strings.TrimPrefix(entry.Key, keyPrefix())
	}
	return doc.toDomain(), true
}

// buildFilter maps a domain filter onto index conditions.
func buildFilter(f domitem.Filter) (db.Filter, error) {
	var out db.Filter
	if f.Type != "" {
		out.Tags = append(out.Tags, db.TagCondition{Field: fieldType, Value: string(f.Type)})
	}
	if f.Category != "" {
		out.Tags = append(out.Tags, db.TagCondition{Field: fieldCategory, Value: string(f.Category)})
	}
	if f.Status != "" {
		out.Tags = append(out.Tags, db.TagCondition{Field: fieldStatus, Value: string(f.Status)})
	}
	if f.OwnerID != "" {
		out.Tags = append(out.Tags, db.TagCondition{Field: fieldOwner, Value: f.OwnerID})
	}

	if f.From != "" || f.To != "" {
		rc := db.RangeCondition{Field: fieldDateDays}
		if f.From != "" {
			days, err := domitem.DateToUnixDays(f.From)
			if err != nil {
				return db.Filter{}, fmt.Errorf("%w: %w", domain.ErrInvalidInput, err)
			}
			v := float64(days)
			rc.Min = &v
		}
		if f.To != "" {
			days, err := domitem.DateToUnixDays(f.To)
			if err != nil {
				return db.Filter{}, fmt.Errorf("%w: %w", domain.ErrInvalidInput, err)
			}
			v := float64(days)
			rc.Max = &v
		}
		out.Ranges = append(out.Ranges, rc)
	}

	if f.Keyword != "" {
		out.Text = f.Keyword
		out.TextFields = []string{fieldTitle, fieldDescription}
	}
	return out, nil
}
