package testutil

import (
	"context"
	"io"
	"path/filepath"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/example/roleguard/internal/application/usecases"
	"github.com/example/roleguard/internal/infrastructure/crypto"
	"github.com/example/roleguard/internal/infrastructure/database"
	"github.com/example/roleguard/internal/logger"
)

// OpenSQLite opens a migrated SQLite store in a temporary directory.
// The handle is closed via t.Cleanup.
func OpenSQLite(t *testing.T) *database.Handle {
	t.Helper()
	ctx := context.Background()
	h, err := database.Open(ctx, "sqlite://"+filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(h.Close)
	if err := h.Migrate(ctx); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return h
}

// FastHasher uses the minimum bcrypt cost so tests stay quick.
func FastHasher() crypto.BcryptHasher {
	return crypto.BcryptHasher{Cost: bcrypt.MinCost}
}

// AuthService returns an AuthService over a fresh SQLite store.
func AuthService(t *testing.T) (usecases.AuthService, *database.Handle) {
	t.Helper()
	h := OpenSQLite(t)
	return usecases.NewAuthService(h.Users, FastHasher()), h
}

func DiscardLogger() *logger.Logger {
	return logger.New(io.Discard, "test", "error")
}
