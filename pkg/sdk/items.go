package lostfound

import (
	"context"
	"fmt"
	"io"
	"time"
)

// ItemService reports and manages catalog items.
// Mutations act on behalf of actor, the ID of a registered user.
type ItemService struct {
	svc itemUseCase
	obs *observer
}

// Report stores a new pending item. image is optional.
func (s *ItemService) Report(ctx context.Context, actor string, d ItemDraft, image io.Reader) (_ Item, err error) {
	start := time.Now()
	defer func() { s.obs.observe("item_report", start, err) }()

	blob, err := readImage(image)
	if err != nil {
		return Item{}, err
	}
	it, err := s.svc.Report(ctx, actor, d.toDomain(), blob)
	if err != nil {
		return Item{}, fmt.Errorf("report item: %w", err)
	}
	return itemFromDomain(&it), nil
}

// Get returns an item by ID.
func (s *ItemService) Get(ctx context.Context, id string) (_ Item, err error) {
	start := time.Now()
	defer func() { s.obs.observe("item_get", start, err) }()

	it, err := s.svc.Get(ctx, id)
	if err != nil {
		return Item{}, fmt.Errorf("get item %s: %w", id, err)
	}
	return itemFromDomain(&it), nil
}

// List browses the catalog, newest first.
func (s *ItemService) List(ctx context.Context, opts ListOptions) (_ ItemPage, err error) {
	start := time.Now()
	defer func() { s.obs.observe("item_list", start, err) }()

	page, err := s.svc.List(ctx, opts.toDomain())
	if err != nil {
		return ItemPage{}, fmt.Errorf("list items: %w", err)
	}
	return ItemPage{Items: itemsFromDomain(page.Items), NextCursor: page.NextCursor}, nil
}

// ListByOwner returns the lost and the found reports of one user.
func (s *ItemService) ListByOwner(ctx context.Context, ownerID string) (lost, found []Item, err error) {
	start := time.Now()
	defer func() { s.obs.observe("item_list_owner", start, err) }()

	items, err := s.svc.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, nil, fmt.Errorf("list items of %s: %w", ownerID, err)
	}
	lost, found = []Item{}, []Item{}
	for _, it := range itemsFromDomain(items) {
		if it.Type == TypeLost {
			lost = append(lost, it)
		} else {
			found = append(found, it)
		}
	}
	return lost, found, nil
}

// Update changes an item owned by actor. A non-nil image replaces its photo.
func (s *ItemService) Update(
	ctx context.Context, actor, id string, p ItemPatch, image io.Reader,
) (_ Item, err error) {
	start := time.Now()
	defer func() { s.obs.observe("item_update", start, err) }()

	blob, err := readImage(image)
	if err != nil {
		return Item{}, err
	}
	it, err := s.svc.Update(ctx, actor, id, p.toDomain(), blob)
	if err != nil {
		return Item{}, fmt.Errorf("update item %s: %w", id, err)
	}
	return itemFromDomain(&it), nil
}

// SetStatus moves an item owned by actor to a new lifecycle state.
func (s *ItemService) SetStatus(ctx context.Context, actor, id string, status ItemStatus) (_ Item, err error) {
	start := time.Now()
	defer func() { s.obs.observe("item_status", start, err) }()

	it, err := s.svc.SetStatus(ctx, actor, id, string(status))
	if err != nil {
		return Item{}, fmt.Errorf("set status of %s: %w", id, err)
	}
	return itemFromDomain(&it), nil
}

// Delete removes an item owned by actor together with its stored photo.
func (s *ItemService) Delete(ctx context.Context, actor, id string) (err error) {
	start := time.Now()
	defer func() { s.obs.observe("item_delete", start, err) }()

	if err = s.svc.Delete(ctx, actor, id); err != nil {
		return fmt.Errorf("delete item %s: %w", id, err)
	}
	return nil
}
