package web

import (
	"errors"
	"net/http"

	"github.com/example/roleguard/internal/domain/user"
	"github.com/example/roleguard/internal/internaltypes"
	"github.com/example/roleguard/internal/metrics"
)

// Guard decides whether a request may reach its handler. A nil error allows it;
// internaltypes.ErrUnauthenticated and internaltypes.ErrForbidden deny it.
type Guard interface {
	Check(r *http.Request) error
}

type GuardFunc func(r *http.Request) error

func (f GuardFunc) Check(r *http.Request) error { return f(r) }

// Authenticated denies anonymous requests.
func Authenticated(a *Authenticator) Guard {
	return GuardFunc(func(r *http.Request) error {
		if a.CurrentUser(r).IsAnonymous() {
			return internaltypes.ErrUnauthenticated
		}
		return nil
	})
}

// RoleGuard allows only users whose role equals Role exactly.
type RoleGuard struct {
	auth *Authenticator
	Role user.Role
}

func RequireRole(a *Authenticator, role user.Role) RoleGuard {
	return RoleGuard{auth: a, Role: role}
}

func (g RoleGuard) Check(r *http.Request) error {
	u := g.auth.CurrentUser(r)
	if u.IsAnonymous() {
		return internaltypes.ErrUnauthenticated
	}
	if u.Role != g.Role {
		return internaltypes.ErrForbidden
	}
	return nil
}

// Protect runs guards in order and calls next only if all allow the request.
func Protect(next http.Handler, guards ...Guard) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		for _, g := range guards {
			if err := g.Check(r); err != nil {
				deny(w, r, err)
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

func deny(w http.ResponseWriter, r *http.Request, err error) {
	path := metrics.KnownPath(r.URL.Path)
	switch {
	case errors.Is(err, internaltypes.ErrUnauthenticated):
		metrics.GuardDenialsTotal.WithLabelValues("unauthenticated", path).Inc()
		http.Redirect(w, r, "/login", http.StatusFound)
	case errors.Is(err, internaltypes.ErrForbidden):
		metrics.GuardDenialsTotal.WithLabelValues("forbidden", path).Inc()
		http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
	default:
		metrics.GuardDenialsTotal.WithLabelValues("error", path).Inc()
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}
