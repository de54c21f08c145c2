// Package user stores registered users as Redis hashes with a unique email index.
package user

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/kailas-cloud/lostfound/internal/db"
	"github.com/kailas-cloud/lostfound/internal/domain"
	domuser "github.com/kailas-cloud/lostfound/internal/domain/user"
)

// store is the consumer interface for users (ISP).
type store interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	Get(ctx context.Context, key string) ([]byte, error)
	SetNX(ctx context.Context, key string, value []byte) (bool, error)
	Del(ctx context.Context, key string) error
}

// Repo implements usecase/user.Repository.
type Repo struct {
	store store
}

// New creates a user repository.
func New(s store) *Repo {
	return &Repo{store: s}
}

// Create stores a user. The email is claimed first so concurrent
// registrations of the same address cannot both succeed.
func (r *Repo) Create(ctx context.Context, u *domuser.User) error {
	claimed, err := r.store.SetNX(ctx, emailKey(u.Email()), []byte(u.ID()))
	if err != nil {
		return fmt.Errorf("claim email: %w", err)
	}
	if !claimed {
		return domain.ErrAlreadyExists
	}

	if err := r.store.HSet(ctx, userKey(u.ID()), map[string]string{
		"id":         u.ID(),
		"email":      u.Email(),
		"username":   u.Username(),
		"created_at": strconv.FormatInt(u.CreatedAt(), 10),
	}); err != nil {
		// release the email so the user can retry
		if delErr := r.store.Del(ctx, emailKey(u.Email())); delErr != nil {
			return fmt.Errorf("hset user: %w (release email: %v)", err, delErr)
		}
		return fmt.Errorf("hset user: %w", err)
	}
	return nil
}

// Get returns a user by ID.
func (r *Repo) Get(ctx context.Context, id string) (domuser.User, error) {
	m, err := r.store.HGetAll(ctx, userKey(id))
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return domuser.User{}, domain.ErrUserNotFound
		}
		return domuser.User{}, fmt.Errorf("hgetall user %s: %w", id, err)
	}
	return parseHash(id, m), nil
}

// GetByEmail resolves a user through the email index.
func (r *Repo) GetByEmail(ctx context.Context, email string) (domuser.User, error) {
	raw, err := r.store.Get(ctx, emailKey(email))
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return domuser.User{}, domain.ErrUserNotFound
		}
		return domuser.User{}, fmt.Errorf("get email index: %w", err)
	}
	return r.Get(ctx, string(raw))
}

func parseHash(id string, m map[string]string) domuser.User {
	createdAt, _ := strconv.ParseInt(m["created_at"], 10, 64)
	if v := m["id"]; v != "" {
		id = v
	}
	return domuser.Reconstruct(id, m["email"], m["username"], createdAt)
}

func userKey(id string) string {
	return domain.KeyPrefix + "user:" + id
}

func emailKey(email string) string {
	return domain.KeyPrefix + "user:email:" + email
}
