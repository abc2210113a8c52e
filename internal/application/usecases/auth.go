package usecases

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/example/roleguard/internal/domain/user"
	"github.com/example/roleguard/internal/infrastructure/crypto"
	"github.com/example/roleguard/internal/internaltypes"
)

type AuthService struct {
	Users  user.Store
	Hasher crypto.PasswordHasher
}

func NewAuthService(users user.Store, hasher crypto.PasswordHasher) AuthService {
	return AuthService{Users: users, Hasher: hasher}
}

// dummyHash is compared against when the username is unknown so both failure
// paths cost one bcrypt comparison.
var dummyHash = sync.OnceValue(func() []byte {
	h, err := crypto.NewBcryptHasher().Hash("not-a-real-password")
	if err != nil {
		panic(fmt.Sprintf("usecases: dummy password hash: %v", err))
	}
	return h
})

// Authenticate returns internaltypes.ErrInvalidCredentials for both an unknown
// username and a wrong password.
func (a AuthService) Authenticate(ctx context.Context, username, password string) (user.User, error) {
	u, err := a.Users.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			_ = a.Hasher.Compare(dummyHash(), password)
			return user.User{}, internaltypes.ErrInvalidCredentials
		}
		return user.User{}, err
	}
	if err := a.Hasher.Compare(u.PasswordHash, password); err != nil {
		return user.User{}, internaltypes.ErrInvalidCredentials
	}
	return u, nil
}

// Register stores a new user with the role exactly as submitted.
func (a AuthService) Register(ctx context.Context, username, password string, role user.Role) (user.User, error) {
	h, err := a.Hasher.Hash(password)
	if err != nil {
		return user.User{}, fmt.Errorf("hash password: %w", err)
	}
	return a.Users.Create(ctx, username, h, role)
}

// ResolveUser loads the user a session refers to.
func (a AuthService) ResolveUser(ctx context.Context, id int64) (user.User, error) {
	if id <= 0 {
		return user.User{}, user.ErrNotFound
	}
	return a.Users.FindByID(ctx, id)
}
