package item

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/kailas-cloud/lostfound/internal/domain"
	domitem "github.com/kailas-cloud/lostfound/internal/domain/item"
	domuser "github.com/kailas-cloud/lostfound/internal/domain/user"
	"github.com/kailas-cloud/lostfound/internal/imagecodec"
)

// memRepo is an in-memory Repository.
type memRepo struct {
	items     map[string]domitem.Item
	createErr error
	saveErr   error
	lastList  domitem.Filter
}

func newMemRepo() *memRepo { return &memRepo{items: map[string]domitem.Item{}} }

func (m *memRepo) Create(_ context.Context, it *domitem.Item) error {
	if m.createErr != nil {
		return m.createErr
	}
	if _, ok := m.items[it.ID()]; ok {
		return domain.ErrAlreadyExists
	}
	m.items[it.ID()] = *it
	return nil
}

func (m *memRepo) Save(_ context.Context, it *domitem.Item) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	if _, ok := m.items[it.ID()]; !ok {
		return domain.ErrItemNotFound
	}
	m.items[it.ID()] = *it
	return nil
}

func (m *memRepo) Get(_ context.Context, id string) (domitem.Item, error) {
	it, ok := m.items[id]
	if !ok {
		return domitem.Item{}, domain.ErrItemNotFound
	}
	return it, nil
}

func (m *memRepo) Delete(_ context.Context, id string) error {
	if _, ok := m.items[id]; !ok {
		return domain.ErrItemNotFound
	}
	delete(m.items, id)
	return nil
}

func (m *memRepo) List(_ context.Context, f domitem.Filter) ([]domitem.Item, string, error) {
	m.lastList = f
	var out []domitem.Item
	for _, it := range m.items {
		if f.Matches(&it) {
			out = append(out, it)
		}
	}
	return out, "", nil
}

func (m *memRepo) ListByOwner(_ context.Context, ownerID string) ([]domitem.Item, error) {
	var out []domitem.Item
	for _, it := range m.items {
		if it.OwnerID() == ownerID {
			out = append(out, it)
		}
	}
	return out, nil
}

// memImages is an in-memory ImageStore serving http://api.test/images/{id}.
type memImages struct {
	blobs   map[string]imagecodec.Blob
	saveErr error
}

func newMemImages() *memImages { return &memImages{blobs: map[string]imagecodec.Blob{}} }

func (m *memImages) Save(_ context.Context, id string, blob imagecodec.Blob) (string, error) {
	if m.saveErr != nil {
		return "", m.saveErr
	}
	m.blobs[id] = blob
	return "http://api.test/images/" + id, nil
}

func (m *memImages) Delete(_ context.Context, id string) error {
	delete(m.blobs, id)
	return nil
}

func (m *memImages) IDFromURL(url string) (string, bool) {
	id, ok := strings.CutPrefix(url, "http://api.test/images/")
	return id, ok && id != ""
}

type memUsers map[string]domuser.User

func (m memUsers) Get(_ context.Context, id string) (domuser.User, error) {
	u, ok := m[id]
	if !ok {
		return domuser.User{}, domain.ErrUserNotFound
	}
	return u, nil
}

var testNow = time.Date(2025, 3, 5, 12, 0, 0, 0, time.UTC)

func newTestService(t *testing.T) (*Service, *memRepo, *memImages) {
	t.Helper()
	repo := newMemRepo()
	images := newMemImages()
	users := memUsers{
		"user-1": domuser.Reconstruct("user-1", "alice@campus.edu", "alice", 1),
		"user-2": domuser.Reconstruct("user-2", "bob@campus.edu", "bob", 1),
	}
	svc := New(repo, images, users)

	n := 0
	svc.newID = func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
	svc.now = func() time.Time { return testNow }
	return svc, repo, images
}

var pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func pngBlob() *imagecodec.Blob {
	return &imagecodec.Blob{Data: pngBytes}
}

func lostDraft() domitem.Draft {
	return domitem.Draft{
		Type:     "lost",
		Title:    "Blue backpack",
		Category: "accessories",
		Building: "Carlson Library",
		Date:     "2025-03-04",
	}
}
