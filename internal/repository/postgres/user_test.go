package postgres

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/kailas-cloud/lostfound/internal/domain"
	domuser "github.com/kailas-cloud/lostfound/internal/domain/user"
)

func TestUserCreate_Duplicate(t *testing.T) {
	q := &mockQuerier{execFn: func(context.Context, string, ...any) (pgconn.CommandTag, error) {
		return pgconn.CommandTag{}, &pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"}
	}}
	u, _ := domuser.New("u-1", "a@b.c", "", time.Now())
	if err := NewUserRepo(q).Create(context.Background(), &u); !errors.Is(err, domain.ErrAlreadyExists) {
		t.Errorf("expected ErrAlreadyExists, got %v", err)
	}
}

func TestUserCreate_OtherError(t *testing.T) {
	q := &mockQuerier{execFn: func(context.Context, string, ...any) (pgconn.CommandTag, error) {
		return pgconn.CommandTag{}, errors.New("conn closed")
	}}
	u, _ := domuser.New("u-1", "a@b.c", "", time.Now())
	err := NewUserRepo(q).Create(context.Background(), &u)
	if err == nil || errors.Is(err, domain.ErrAlreadyExists) {
		t.Errorf("expected plain error, got %v", err)
	}
}

func TestUserGetByEmail(t *testing.T) {
	q := &mockQuerier{queryRowFn: func(_ context.Context, sql string, args ...any) pgx.Row {
		if !strings.Contains(sql, "WHERE email = $1") {
			t.Errorf("unexpected sql: %s", sql)
		}
		if args[0] != "a@b.c" {
			return fakeRow{err: pgx.ErrNoRows}
		}
		return fakeRow{values: []any{"u-1", "a@b.c", "a", int64(5)}}
	}}
	repo := NewUserRepo(q)

	u, err := repo.GetByEmail(context.Background(), "a@b.c")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if u.ID() != "u-1" || u.CreatedAt() != 5 {
		t.Errorf("unexpected user: %+v", u)
	}
	if _, err := repo.GetByEmail(context.Background(), "x@y.z"); !errors.Is(err, domain.ErrUserNotFound) {
		t.Errorf("expected ErrUserNotFound, got %v", err)
	}
}

func TestUserGet_NotFound(t *testing.T) {
	if _, err := NewUserRepo(&mockQuerier{}).Get(context.Background(), "u-1"); !errors.Is(err, domain.ErrUserNotFound) {
		t.Errorf("expected ErrUserNotFound, got %v", err)
	}
}
