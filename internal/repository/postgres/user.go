package postgres

import (
	"context"
	"fmt"

	pgstore "github.com/kailas-cloud/lostfound/internal/db/postgres"
	"github.com/kailas-cloud/lostfound/internal/domain"
	domuser "github.com/kailas-cloud/lostfound/internal/domain/user"
)

// UserRepo implements usecase/user.Repository.
type UserRepo struct {
	q querier
}

// NewUserRepo creates a Postgres user repository.
func NewUserRepo(q querier) *UserRepo {
	return &UserRepo{q: q}
}

// Create inserts a user; the email column is unique.
func (r *UserRepo) Create(ctx context.Context, u *domuser.User) error {
	_, err := r.q.Exec(ctx,
		`INSERT INTO users (id, email, username, created_at) VALUES ($1, $2, $3, $4)`,
		u.ID(), u.Email(), u.Username(), u.CreatedAt(),
	)
	if err != nil {
		if pgstore.IsUniqueViolation(err) {
			return domain.ErrAlreadyExists
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// Get returns a user by ID.
func (r *UserRepo) Get(ctx context.Context, id string) (domuser.User, error) {
	return r.getBy(ctx, "id", id)
}

// GetByEmail returns a user by (lowercased) email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (domuser.User, error) {
	return r.getBy(ctx, "email", email)
}

func (r *UserRepo) getBy(ctx context.Context, column, value string) (domuser.User, error) {
	var (
		id, email, username string
		createdAt           int64
	)
	// column is one of two constants above, never user input
	err := r.q.QueryRow(ctx,
		`SELECT id, email, username, created_at FROM users WHERE `+column+` = $1`, value,
	).Scan(&id, &email, &username, &createdAt)
	if err != nil {
		if pgstore.IsNoRows(err) {
			return domuser.User{}, domain.ErrUserNotFound
		}
		return domuser.User{}, fmt.Errorf("get user by %s: %w", column, err)
	}
	return domuser.Reconstruct(id, email, username, createdAt), nil
}
