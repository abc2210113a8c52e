// Package database picks the user store backend from the database URL.
package database

import (
	"context"
	"fmt"
	"strings"

	"github.com/example/roleguard/internal/domain/user"
	"github.com/example/roleguard/internal/infrastructure/postgres"
	"github.com/example/roleguard/internal/infrastructure/sqlite"
)

type Backend string

const (
	BackendPostgres Backend = "postgres"
	BackendSQLite   Backend = "sqlite"
)

// Handle is an open user store plus the means to migrate and close it.
type Handle struct {
	Backend Backend
	Users   user.Store

	migrate func(context.Context) error
	ping    func(context.Context) error
	close   func()
}

func (h *Handle) Migrate(ctx context.Context) error { return h.migrate(ctx) }

func (h *Handle) Ping(ctx context.Context) error { return h.ping(ctx) }

func (h *Handle) Close() { h.close() }

// ParseURL returns the backend for url and the driver-specific DSN.
//
//	postgres://... | postgresql://...  -> pgx
//	sqlite://<path> | file:<path>      -> modernc sqlite
func ParseURL(url string) (Backend, string, error) {
	switch {
	case strings.HasPrefix(url, "postgres://"), strings.HasPrefix(url, "postgresql://"):
		return BackendPostgres, url, nil
	case strings.HasPrefix(url, "sqlite://"):
		path := strings.TrimPrefix(url, "sqlite://")
		if path == "" {
			return "", "", fmt.Errorf("sqlite url %q has no path", url)
		}
		return BackendSQLite, path, nil
	case strings.HasPrefix(url, "file:"):
		return BackendSQLite, url, nil
	default:
		return "", "", fmt.Errorf("unsupported database url %q (want postgres://, sqlite:// or file:)", url)
	}
}

func Open(ctx context.Context, url string) (*Handle, error) {
	backend, dsn, err := ParseURL(url)
	if err != nil {
		return nil, err
	}
	switch backend {
	case BackendPostgres:
		pool, err := postgres.Open(ctx, dsn)
		if err != nil {
			return nil, err
		}
		return &Handle{
			Backend: backend,
			Users:   postgres.NewUserRepo(pool),
			migrate: func(ctx context.Context) error { return postgres.Migrate(ctx, pool) },
			ping:    pool.Ping,
			close:   pool.Close,
		}, nil
	default:
		d, err := sqlite.Open(ctx, dsn)
		if err != nil {
			return nil, err
		}
		return &Handle{
			Backend: backend,
			Users:   sqlite.NewUserRepo(d),
			migrate: func(ctx context.Context) error { return sqlite.Migrate(ctx, d) },
			ping:    d.PingContext,
			close:   func() { _ = d.Close() },
		}, nil
	}
}
