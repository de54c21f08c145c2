package chi

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

// ItemService reports and manages items.
type ItemService interface {
	Report(ctx context.Context, actor string, d domitem.Draft, image *imagecodec.Blob) (domitem.Item, error)
	Get(ctx context.Context, id string) (domitem.Item, error)
	List(ctx context.Context, f domitem.Filter) (itemuc.Page, error)
	ListByOwner(ctx context.Context, ownerID string) ([]domitem.Item, error)
	Update(ctx context.Context, actor, id string, p domitem.Patch, image *imagecodec.Blob) (domitem.Item, error)
	SetStatus(ctx context.Context, actor, id, status string) (domitem.Item, error)
	Delete(ctx context.Context, actor, id string) error
}

// UserService registers and looks up users.
type UserService interface {
	Register(ctx context.Context, email, username string) (domuser.User, error)
	Get(ctx context.Context, id string) (domuser.User, error)
}

// ImageSearcher ranks catalog items by visual similarity to an uploaded photo.
type ImageSearcher interface {
	Search(ctx context.Context, image io.Reader) ([]similarity.Result, error)
}

// ImageReader serves stored item photos.
type ImageReader interface {
	Get(ctx context.Context, id string) (imagecodec.Blob, error)
}

// UsageReporter reports vision token usage.
type UsageReporter interface {
	GetReport(ctx context.Context, period domusage.Period) domusage.Report
}

// HealthChecker aggregates component health.
type HealthChecker interface {
	Check(ctx context.Context) healthuc.Report
}
