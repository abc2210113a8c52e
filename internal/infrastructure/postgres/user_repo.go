package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/example/roleguard/internal/domain/user"
	"github.com/example/roleguard/internal/internaltypes"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const uniqueViolation = "23505"

type UserRepo struct{ pool *pgxpool.Pool }

func NewUserRepo(pool *pgxpool.Pool) *UserRepo { return &UserRepo{pool: pool} }

func (r *UserRepo) Create(ctx context.Context, username string, passwordHash []byte, role user.Role) (user.User, error) {
	u := user.User{Username: username, PasswordHash: passwordHash, Role: role, CreatedAt: time.Now().UTC()}
	err := r.pool.QueryRow(ctx,
		`INSERT INTO users (username, password_hash, role, created_at) VALUES ($1,$2,$3,$4) RETURNING id`,
		u.Username, u.PasswordHash, string(u.Role), u.CreatedAt,
	).Scan(&u.ID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return user.User{}, internaltypes.Persistence(user.ErrDuplicate)
		}
		return user.User{}, internaltypes.Persistence(err)
	}
	return u, nil
}

func (r *UserRepo) FindByUsername(ctx context.Context, username string) (user.User, error) {
	row := r.pool.QueryRow(ctx, `SELECT id, username, password_hash, role, created_at FROM users WHERE username=$1`, username)
	return scanUser(row)
}

func (r *UserRepo) FindByID(ctx context.Context, id int64) (user.User, error) {
	row := r.pool.QueryRow(ctx, `SELECT id, username, password_hash, role, created_at FROM users WHERE id=$1`, id)
	return scanUser(row)
}

func scanUser(row pgx.Row) (user.User, error) {
	var (
		u    user.User
		role string
	)
	if err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &role, &u.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, internaltypes.Persistence(err)
	}
	u.Role = user.Role(role)
	return u, nil
}
