// Package item implements reporting, browsing and owner-only management of lost and found items.
package item

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kailas-cloud/lostfound/internal/domain"
	domitem "github.com/kailas-cloud/lostfound/internal/domain/item"
	"github.com/kailas-cloud/lostfound/internal/imagecodec"
	"github.com/kailas-cloud/lostfound/internal/logger"
)

// Page is one page of a listing.
type Page struct {
	Items      []domitem.Item
	NextCursor string
}

// Service handles item reports.
type Service struct {
	repo   Repository
	images ImageStore
	users  UserReader
	newID  func() string
	now    func() time.Time
}

// New creates an item service. users can be nil, in which case reporters are not looked up.
func New(repo Repository, images ImageStore, users UserReader) *Service {
	return &Service{
		repo:   repo,
		images: images,
		users:  users,
		newID:  uuid.NewString,
		now:    time.Now,
	}
}

// Report validates and stores a new pending item owned by actor.
// image is optional; when present it is stored and referenced by the item.
func (s *Service) Report(
	ctx context.Context, actor string, d domitem.Draft, image *imagecodec.Blob,
) (domitem.Item, error) {
	if err := s.requireUser(ctx, actor, &d); err != nil {
		return domitem.Item{}, err
	}

	id := s.newID()
	now := s.now()

	// Validate before touching the image store.
	if _, err := domitem.New(id, actor, d, now); err != nil {
		return domitem.Item{}, fmt.Errorf("%w: %w", domain.ErrInvalidInput, err)
	}

	var imageID string
	if image != nil {
		url, storedID, err := s.storeImage(ctx, image)
		if err != nil {
			return domitem.Item{}, err
		}
		d.ImageURL = url
		imageID = storedID
	}

	it, err := domitem.New(id, actor, d, now)
	if err != nil {
		return domitem.Item{}, fmt.Errorf("%w: %w", domain.ErrInvalidInput, err)
	}

	if err := s.repo.Create(ctx, &it); err != nil {
		if imageID != "" {
			s.dropImage(ctx, imageID)
		}
		return domitem.Item{}, fmt.Errorf("create item: %w", err)
	}
	return it, nil
}

// requireUser checks that actor is a known user and fills missing contact details from the profile.
func (s *Service) requireUser(ctx context.Context, actor string, d *domitem.Draft) error {
	if actor == "" {
		return domain.ErrUnauthenticated
	}
	if s.users == nil {
		return nil
	}
	u, err := s.users.Get(ctx, actor)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return fmt.Errorf("unknown user %s: %w", actor, domain.ErrUnauthenticated)
		}
		return fmt.Errorf("get user: %w", err)
	}
	if d.ContactEmail == "" {
		d.ContactEmail = u.Email()
	}
	if d.ContactName == "" {
		d.ContactName = u.Username()
	}
	return nil
}

// Get returns an item by ID.
func (s *Service) Get(ctx context.Context, id string) (domitem.Item, error) {
	it, err := s.repo.Get(ctx, id)
	if err != nil {
		return domitem.Item{}, fmt.Errorf("get item: %w", err)
	}
	return it, nil
}

// List browses items matching f, newest first.
func (s *Service) List(ctx context.Context, f domitem.Filter) (Page, error) {
	if err := f.Validate(); err != nil {
		return Page{}, fmt.Errorf("%w: %w", domain.ErrInvalidInput, err)
	}
	items, next, err := s.repo.List(ctx, f)
	if err != nil {
		return Page{}, fmt.Errorf("list items: %w", err)
	}
	return Page{Items: items, NextCursor: next}, nil
}

// ListByOwner returns every item reported by ownerID, newest first.
func (s *Service) ListByOwner(ctx context.Context, ownerID string) ([]domitem.Item, error) {
	if ownerID == "" {
		return nil, fmt.Errorf("%w: owner is required", domain.ErrInvalidInput)
	}
	items, err := s.repo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list items by owner: %w", err)
	}
	return items, nil
}

// Update applies p to an item owned by actor. A non-nil image replaces the current photo.
func (s *Service) Update(
	ctx context.Context, actor, id string, p domitem.Patch, image *imagecodec.Blob,
) (domitem.Item, error) {
	current, err := s.owned(ctx, actor, id)
	if err != nil {
		return domitem.Item{}, err
	}

	now := s.now()
	updated := current
	if !p.IsEmpty() {
		updated, err = current.Apply(p, now)
		if err != nil {
			return domitem.Item{}, fmt.Errorf("%w: %w", domain.ErrInvalidInput, err)
		}
	} else if image == nil {
		return domitem.Item{}, fmt.Errorf("%w: nothing to update", domain.ErrInvalidInput)
	}

	var newImageID string
	if image != nil {
		url, storedID, err := s.storeImage(ctx, image)
		if err != nil {
			return domitem.Item{}, err
		}
		updated = updated.WithImageURL(url, now)
		newImageID = storedID
	}

	if err := s.repo.Save(ctx, &updated); err != nil {
		if newImageID != "" {
			s.dropImage(ctx, newImageID)
		}
		return domitem.Item{}, fmt.Errorf("save item: %w", err)
	}

	if newImageID != "" {
		s.dropLocalImage(ctx, current.ImageURL())
	}
	return updated, nil
}

// SetStatus moves an item owned by actor to a new lifecycle state.
func (s *Service) SetStatus(ctx context.Context, actor, id, status string) (domitem.Item, error) {
	st, err := domitem.ParseStatus(status)
	if err != nil {
		return domitem.Item{}, fmt.Errorf("%w: %w", domain.ErrInvalidInput, err)
	}

	current, err := s.owned(ctx, actor, id)
	if err != nil {
		return domitem.Item{}, err
	}
	if current.Status() == st {
		return current, nil
	}

	updated := current.WithStatus(st, s.now())
	if err := s.repo.Save(ctx, &updated); err != nil {
		return domitem.Item{}, fmt.Errorf("save item: %w", err)
	}
	return updated, nil
}

// Delete removes an item owned by actor together with its stored photo.
func (s *Service) Delete(ctx context.Context, actor, id string) error {
	current, err := s.owned(ctx, actor, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete item: %w", err)
	}
	s.dropLocalImage(ctx, current.ImageURL())
	return nil
}

// owned loads an item and checks that actor reported it.
func (s *Service) owned(ctx context.Context, actor, id string) (domitem.Item, error) {
	if actor == "" {
		return domitem.Item{}, domain.ErrUnauthenticated
	}
	it, err := s.repo.Get(ctx, id)
	if err != nil {
		return domitem.Item{}, fmt.Errorf("get item: %w", err)
	}
	if !it.OwnedBy(actor) {
		return domitem.Item{}, fmt.Errorf("item %s is owned by another user: %w", id, domain.ErrForbidden)
	}
	return it, nil
}

func (s *Service) storeImage(ctx context.Context, image *imagecodec.Blob) (url, id string, err error) {
	if len(image.Data) == 0 {
		return "", "", fmt.Errorf("%w: image is empty", domain.ErrInvalidInput)
	}
	ct := image.ContentType
	if ct == "" {
		ct = imagecodec.Sniff(image.Data)
	}
	if !imagecodec.IsImage(ct) {
		return "", "", fmt.Errorf("%w: unsupported image type %q", domain.ErrInvalidInput, ct)
	}

	id = s.newID()
	url, err = s.images.Save(ctx, id, imagecodec.Blob{ContentType: ct, Data: image.Data})
	if err != nil {
		return "", "", fmt.Errorf("store image: %w", err)
	}
	return url, id, nil
}

// dropLocalImage deletes the stored photo behind url, if this API serves it.
func (s *Service) dropLocalImage(ctx context.Context, url string) {
	if url == "" {
		return
	}
	if id, ok := s.images.IDFromURL(url); ok {
		s.dropImage(ctx, id)
	}
}

func (s *Service) dropImage(ctx context.Context, id string) {
	if err := s.images.Delete(ctx, id); err != nil {
		logger.FromContext(ctx).Warn("Failed to delete stored image", zap.String("image_id", id), zap.Error(err))
	}
}
