package lostfound

import (
	"context"
	"fmt"
	"time"
)

// UserService registers and looks up users.
type UserService struct {
	svc userUseCase
	obs *observer
}

// Register creates a user. Emails are unique.
func (s *UserService) Register(ctx context.Context, email, username string) (_ User, err error) {
	start := time.Now()
	defer func() { s.obs.observe("user_register", start, err) }()

	u, err := s.svc.Register(ctx, email, username)
	if err != nil {
		return User{}, fmt.Errorf("register user: %w", err)
	}
	return userFromDomain(&u), nil
}

// Get returns a user by ID.
func (s *UserService) Get(ctx context.Context, id string) (_ User, err error) {
	start := time.Now()
	defer func() { s.obs.observe("user_get", start, err) }()

	u, err := s.svc.Get(ctx, id)
	if err != nil {
		return User{}, fmt.Errorf("get user %s: %w", id, err)
	}
	return userFromDomain(&u), nil
}

// GetByEmail returns the user registered with email.
func (s *UserService) GetByEmail(ctx context.Context, email string) (_ User, err error) {
	start := time.Now()
	defer func() { s.obs.observe("user_get_by_email", start, err) }()

	u, err := s.svc.GetByEmail(ctx, email)
	if err != nil {
		return User{}, fmt.Errorf("get user by email: %w", err)
	}
	return userFromDomain(&u), nil
}
