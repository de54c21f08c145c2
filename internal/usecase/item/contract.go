package item

import (
	"context"

	domitem "github.com/kailas-cloud/lostfound/internal/domain/item"
	domuser "github.com/kailas-cloud/lostfound/internal/domain/user"
	"github.com/kailas-cloud/lostfound/internal/imagecodec"
)

// Repository defines the storage contract for items.
type Repository interface {
	Create(ctx context.Context, it *domitem.Item) error
	Save(ctx context.Context, it *domitem.Item) error
	Get(ctx context.Context, id string) (domitem.Item, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, f domitem.Filter) (items []domitem.Item, nextCursor string, err error)
	ListByOwner(ctx context.Context, ownerID string) ([]domitem.Item, error)
}

// ImageStore keeps uploaded photos and hands out their public URLs.
type ImageStore interface {
	Save(ctx context.Context, id string, blob imagecodec.Blob) (string, error)
	Delete(ctx context.Context, id string) error
	IDFromURL(url string) (string, bool)
}

// UserReader resolves the acting user.
type UserReader interface {
	Get(ctx context.Context, id string) (domuser.User, error)
}
