// Package user registers campus members.
package user

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kailas-cloud/lostfound/internal/domain"
	domuser "github.com/kailas-cloud/lostfound/internal/domain/user"
)

// Service handles user registration and lookup.
type Service struct {
	repo  Repository
	newID func() string
	now   func() time.Time
}

// New creates a user service.
func New(repo Repository) *Service {
	return &Service{repo: repo, newID: uuid.NewString, now: time.Now}
}

// Register creates a user. A taken email yields domain.ErrAlreadyExists.
func (s *Service) Register(ctx context.Context, email, username string) (domuser.User, error) {
	u, err := domuser.New(s.newID(), email, username, s.now())
	if err != nil {
		return domuser.User{}, fmt.Errorf("%w: %w", domain.ErrInvalidInput, err)
	}
	if err := s.repo.Create(ctx, &u); err != nil {
		return domuser.User{}, fmt.Errorf("create user: %w", err)
	}
	return u, nil
}

// Get returns a user by ID.
func (s *Service) Get(ctx context.Context, id string) (domuser.User, error) {
	u, err := s.repo.Get(ctx, id)
	if err != nil {
		return domuser.User{}, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

// GetByEmail returns a user by email address (case-insensitive).
func (s *Service) GetByEmail(ctx context.Context, email string) (domuser.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return domuser.User{}, fmt.Errorf("%w: email is required", domain.ErrInvalidInput)
	}
	u, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return domuser.User{}, fmt.Errorf("get user by email: %w", err)
	}
	return u, nil
}
