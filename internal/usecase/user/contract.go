package user

import (
	"context"

	domuser "github.com/kailas-cloud/lostfound/internal/domain/user"
)

// Repository defines the storage contract for users.
type Repository interface {
	Create(ctx context.Context, u *domuser.User) error
	Get(ctx context.Context, id string) (domuser.User, error)
	GetByEmail(ctx context.Context, email string) (domuser.User, error)
}
