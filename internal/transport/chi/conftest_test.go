package chi

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/lostfound/internal/domain"
	domitem "github.com/kailas-cloud/lostfound/internal/domain/item"
	"github.com/kailas-cloud/lostfound/internal/domain/similarity"
	domusage "github.com/kailas-cloud/lostfound/internal/domain/usage"
	domuser "github.com/kailas-cloud/lostfound/internal/domain/user"
	"github.com/kailas-cloud/lostfound/internal/imagecodec"
	healthuc "github.com/kailas-cloud/lostfound/internal/usecase/health"
	itemuc "github.com/kailas-cloud/lostfound/internal/usecase/item"
)

// --- Mocks ---

type mockItems struct {
	reportFn      func(ctx context.Context, actor string, d domitem.Draft, image *imagecodec.Blob) (domitem.Item, error)
	getFn         func(ctx context.Context, id string) (domitem.Item, error)
	listFn        func(ctx context.Context, f domitem.Filter) (itemuc.Page, error)
	listByOwnerFn func(ctx context.Context, ownerID string) ([]domitem.Item, error)
	updateFn      func(ctx context.Context, actor, id string, p domitem.Patch, image *imagecodec.Blob) (domitem.Item, error)
	setStatusFn   func(ctx context.Context, actor, id, status string) (domitem.Item, error)
	deleteFn      func(ctx context.Context, actor, id string) error
}

func (m *mockItems) Report(
	ctx context.Context, actor string, d domitem.Draft, image *imagecodec.Blob,
) (domitem.Item, error) {
	return m.reportFn(ctx, actor, d, image)
}

func (m *mockItems) Get(ctx context.Context, id string) (domitem.Item, error) {
	return m.getFn(ctx, id)
}

func (m *mockItems) List(ctx context.Context, f domitem.Filter) (itemuc.Page, error) {
	return m.listFn(ctx, f)
}

func (m *mockItems) ListByOwner(ctx context.Context, ownerID string) ([]domitem.Item, error) {
	return m.listByOwnerFn(ctx, ownerID)
}

func (m *mockItems) Update(
	ctx context.Context, actor, id string, p domitem.Patch, image *imagecodec.Blob,
) (domitem.Item, error) {
	return m.updateFn(ctx, actor, id, p, image)
}

func (m *mockItems) SetStatus(ctx context.Context, actor, id, status string) (domitem.Item, error) {
	return m.setStatusFn(ctx, actor, id, status)
}

func (m *mockItems) Delete(ctx context.Context, actor, id string) error {
	return m.deleteFn(ctx, actor, id)
}

type mockUsers struct {
	registerFn func(ctx context.Context, email, username string) (domuser.User, error)
	getFn      func(ctx context.Context, id string) (domuser.User, error)
}

func (m *mockUsers) Register(ctx context.Context, email, username string) (domuser.User, error) {
	return m.registerFn(ctx, email, username)
}

func (m *mockUsers) Get(ctx context.Context, id string) (domuser.User, error) {
	return m.getFn(ctx, id)
}

type mockSearch struct {
	searchFn func(ctx context.Context, image io.Reader) ([]similarity.Result, error)
}

func (m *mockSearch) Search(ctx context.Context, image io.Reader) ([]similarity.Result, error) {
	return m.searchFn(ctx, image)
}

type mockImages struct {
	blobs map[string]imagecodec.Blob
}

func (m *mockImages) Get(_ context.Context, id string) (imagecodec.Blob, error) {
	b, ok := m.blobs[id]
	if !ok {
		return imagecodec.Blob{}, domain.ErrImageNotFound
	}
	return b, nil
}

type mockUsage struct {
	report domusage.Report
}

func (m *mockUsage) GetReport(_ context.Context, period domusage.Period) domusage.Report {
	r := m.report
	r.Period = period
	return r
}

type mockHealth struct {
	report healthuc.Report
}

func (m *mockHealth) Check(_ context.Context) healthuc.Report { return m.report }

// --- Helpers ---

type deps struct {
	items  *mockItems
	users  *mockUsers
	search *mockSearch
	images *mockImages
	usage  *mockUsage
	health *mockHealth
}

func newDeps() *deps {
	return &deps{
		items:  &mockItems{},
		users:  &mockUsers{},
		search: &mockSearch{},
		images: &mockImages{blobs: map[string]imagecodec.Blob{}},
		usage:  &mockUsage{},
		health: &mockHealth{report: healthuc.Report{Status: healthuc.Healthy, Checks: map[string]healthuc.CheckResult{}}},
	}
}

func (d *deps) handler() http.Handler {
	srv := NewServer(d.items, d.users, d.search, d.images, d.usage, d.health, zap.NewNop()).
		WithMaxImageBytes(1024)
	return HandlerWithOptions(srv, ChiServerOptions{})
}

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func testItem(t *testing.T, id, owner string, typ domitem.Type) domitem.Item {
	t.Helper()
	return domitem.Reconstruct(domitem.Snapshot{
		ID:        id,
		Type:      typ,
		Title:     "Blue backpack",
		Category:  domitem.CategoryAccessories,
		Status:    domitem.StatusPending,
		OwnerID:   owner,
		Date:      "2025-03-01",
		CreatedAt: 1740787200000,
		UpdatedAt: 1740787200000,
	})
}

// multipartBody builds a form with text fields and an optional image part.
func multipartBody(t *testing.T, fields map[string]string, image []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatal(err)
		}
	}
	if image != nil {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="image"; filename="photo.png"`)
		h.Set("Content-Type", "image/png")
		part, err := mw.CreatePart(h)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := part.Write(image); err != nil {
			t.Fatal(err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatal(err)
	}
	return &buf, mw.FormDataContentType()
}
