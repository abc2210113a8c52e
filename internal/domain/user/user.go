package user

import (
	"context"
	"errors"
	"time"
)

// Role is the authorization attribute of a user. Registration stores whatever
// the client submits, so values outside the named constants are valid.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

func (r Role) String() string { return string(r) }

type User struct {
	ID           int64
	Username     string
	PasswordHash []byte
	Role         Role
	CreatedAt    time.Time
}

// Anonymous is returned for requests without an authenticated session.
var Anonymous = User{}

func (u User) IsAnonymous() bool { return u.ID == 0 }

var (
	ErrNotFound  = errors.New("user not found")
	ErrDuplicate = errors.New("username already exists")
)

// Store persists users. Implementations return ErrNotFound for missing rows and
// ErrDuplicate when a username is already taken.
type Store interface {
	Create(ctx context.Context, username string, passwordHash []byte, role Role) (User, error)
	FindByUsername(ctx context.Context, username string) (User, error)
	FindByID(ctx context.Context, id int64) (User, error)
}
