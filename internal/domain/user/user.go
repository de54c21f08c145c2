package user

import (
	"fmt"
	"strings"
	"time"
)

const maxUsernameLen = 64

// User is a registered campus member who can report items.
type User struct {
	id        string
	email     string
	username  string
	createdAt int64 // unix millis
}

// New validates and creates a User. The email is lowercased.
func New(id, email, username string, now time.Time) (User, error) {
	if id == "" {
		return User{}, fmt.Errorf("user ID is required")
	}
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return User{}, fmt.Errorf("email is required")
	}
	at := strings.IndexByte(email, '@')
	if at <= 0 || at == len(email)-1 {
		return User{}, fmt.Errorf("email %q is not valid", email)
	}
	username = strings.TrimSpace(username)
	if username == "" {
		username = email[:at]
	}
	if len(username) > maxUsernameLen {
		return User{}, fmt.Errorf("username too long (max %d)", maxUsernameLen)
	}
	return User{id: id, email: email, username: username, createdAt: now.UnixMilli()}, nil
}

// Reconstruct creates a User without validation (storage hydration).
func Reconstruct(id, email, username string, createdAt int64) User {
	return User{id: id, email: email, username: username, createdAt: createdAt}
}

// ID returns the user identifier.
func (u *User) ID() string { return u.id }

// Email returns the lowercased email address.
func (u *User) Email() string { return u.email }

// Username returns the display name.
func (u *User) Username() string { return u.username }

// CreatedAt returns the registration timestamp (unix millis).
func (u *User) CreatedAt() int64 { return u.createdAt }
