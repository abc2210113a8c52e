package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/example/roleguard/internal/domain/user"
	"github.com/example/roleguard/internal/internaltypes"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

type UserRepo struct{ db *sql.DB }

func NewUserRepo(d *sql.DB) *UserRepo { return &UserRepo{db: d} }

func (r *UserRepo) Create(ctx context.Context, username string, passwordHash []byte, role user.Role) (user.User, error) {
	u := user.User{Username: username, PasswordHash: passwordHash, Role: role, CreatedAt: time.Now().UTC()}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO users (username, password_hash, role, created_at) VALUES (?, ?, ?, ?)`,
		u.Username, u.PasswordHash, string(u.Role), u.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return user.User{}, internaltypes.Persistence(user.ErrDuplicate)
		}
		return user.User{}, internaltypes.Persistence(err)
	}
	if u.ID, err = res.LastInsertId(); err != nil {
		return user.User{}, internaltypes.Persistence(err)
	}
	return u, nil
}

func (r *UserRepo) FindByUsername(ctx context.Context, username string) (user.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT id, username, password_hash, role, created_at FROM users WHERE username = ?`, username)
	return scanUser(row)
}

func (r *UserRepo) FindByID(ctx context.Context, id int64) (user.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT id, username, password_hash, role, created_at FROM users WHERE id = ?`, id)
	return scanUser(row)
}

func scanUser(row *sql.Row) (user.User, error) {
	var (
		u       user.User
		role    string
		created string
	)
	if err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &role, &created); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, internaltypes.Persistence(err)
	}
	u.Role = user.Role(role)
	if t, err := time.Parse(time.RFC3339Nano, created); err == nil {
		u.CreatedAt = t
	}
	return u, nil
}

func isUniqueViolation(err error) bool {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return false
	}
	switch se.Code() {
	case sqlite3.SQLITE_CONSTRAINT_UNIQUE:
		return true
	case sqlite3.SQLITE_CONSTRAINT:
		// extended result codes disabled
		return strings.Contains(se.Error(), "UNIQUE")
	}
	return false
}
