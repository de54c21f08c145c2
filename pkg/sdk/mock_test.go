package lostfound

import (
	"context"
	"io"

	domitem "github.com/kailas-cloud/lostfound/internal/domain/item"
	"github.com/kailas-cloud/lostfound/internal/domain/similarity"
	domusage "github.com/kailas-cloud/lostfound/internal/domain/usage"
	domuser "github.com/kailas-cloud/lostfound/internal/domain/user"
	"github.com/kailas-cloud/lostfound/internal/imagecodec"
	healthuc "github.com/kailas-cloud/lostfound/internal/usecase/health"
	itemuc "github.com/kailas-cloud/lostfound/internal/usecase/item"
)

// --- itemUseCase mock ---

type mockItemUC struct {
	reportFn      func(ctx context.Context, actor string, d domitem.Draft, image *imagecodec.Blob) (domitem.Item, error)
	getFn         func(ctx context.Context, id string) (domitem.Item, error)
	listFn        func(ctx context.Context, f domitem.Filter) (itemuc.Page, error)
	listByOwnerFn func(ctx context.Context, ownerID string) ([]domitem.Item, error)
	updateFn      func(ctx context.Context, actor, id string, p domitem.Patch, image *imagecodec.Blob) (domitem.Item, error)
	setStatusFn   func(ctx context.Context, actor, id, status string) (domitem.Item, error)
	deleteFn      func(ctx context.Context, actor, id string) error
}

func (m *mockItemUC) Report(
	ctx context.Context, actor string, d domitem.Draft, image *imagecodec.Blob,
) (domitem.Item, error) {
	return m.reportFn(ctx, actor, d, image)
}

func (m *mockItemUC) Get(ctx context.Context, id string) (domitem.Item, error) {
	return m.getFn(ctx, id)
}

func (m *mockItemUC) List(ctx context.Context, f domitem.Filter) (itemuc.Page, error) {
	return m.listFn(ctx, f)
}

func (m *mockItemUC) ListByOwner(ctx context.Context, ownerID string) ([]domitem.Item, error) {
	return m.listByOwnerFn(ctx, ownerID)
}

func (m *mockItemUC) Update(
	ctx context.Context, actor, id string, p domitem.Patch, image *imagecodec.Blob,
) (domitem.Item, error) {
	return m.updateFn(ctx, actor, id, p, image)
}

func (m *mockItemUC) SetStatus(ctx context.Context, actor, id, status string) (domitem.Item, error) {
	return m.setStatusFn(ctx, actor, id, status)
}

func (m *mockItemUC) Delete(ctx context.Context, actor, id string) error {
	return m.deleteFn(ctx, actor, id)
}

// --- userUseCase mock ---

type mockUserUC struct {
	registerFn   func(ctx context.Context, email, username string) (domuser.User, error)
	getFn        func(ctx context.Context, id string) (domuser.User, error)
	getByEmailFn func(ctx context.Context, email string) (domuser.User, error)
}

func (m *mockUserUC) Register(ctx context.Context, email, username string) (domuser.User, error) {
	return m.registerFn(ctx, email, username)
}

func (m *mockUserUC) Get(ctx context.Context, id string) (domuser.User, error) {
	return m.getFn(ctx, id)
}

func (m *mockUserUC) GetByEmail(ctx context.Context, email string) (domuser.User, error) {
	return m.getByEmailFn(ctx, email)
}

// --- searchUseCase mock ---

type mockSearchUC struct {
	searchFn func(ctx context.Context, image io.Reader) ([]similarity.Result, error)
}

func (m *mockSearchUC) Search(ctx context.Context, image io.Reader) ([]similarity.Result, error) {
	return m.searchFn(ctx, image)
}

// --- healthUseCase / usageUseCase mocks ---

type mockHealthUC struct {
	report healthuc.Report
}

func (m *mockHealthUC) Check(_ context.Context) healthuc.Report { return m.report }

type mockUsageUC struct {
	getReportFn func(ctx context.Context, period domusage.Period) domusage.Report
}

func (m *mockUsageUC) GetReport(ctx context.Context, period domusage.Period) domusage.Report {
	return m.getReportFn(ctx, period)
}

// --- helpers ---

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func testItem(id string, typ domitem.Type) domitem.Item {
	return domitem.Reconstruct(domitem.Snapshot{
		ID:        id,
		Type:      typ,
		Title:     "Black umbrella",
		Category:  domitem.CategoryAccessories,
		Location:  "Library",
		Date:      "2026-10-01",
		Status:    domitem.StatusPending,
		OwnerID:   "u1",
		CreatedAt: 1_760_000_000_000,
		UpdatedAt: 1_760_000_000_000,
	})
}
