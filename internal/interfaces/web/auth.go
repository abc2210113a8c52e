package web

import (
	"context"
	"errors"
	"net/http"

	"github.com/example/roleguard/internal/application/usecases"
	"github.com/example/roleguard/internal/domain/user"
	"github.com/example/roleguard/internal/logger"
)

type ctxKeyUser struct{}

func withUser(ctx context.Context, u user.User) context.Context {
	return context.WithValue(ctx, ctxKeyUser{}, u)
}

// UserFromContext returns the user Identify attached to ctx.
func UserFromContext(ctx context.Context) (user.User, bool) {
	u, ok := ctx.Value(ctxKeyUser{}).(user.User)
	return u, ok
}

// Authenticator ties the session cookie to stored users.
type Authenticator struct {
	sessions *SessionManager
	auth     usecases.AuthService
	log      *logger.Logger
}

func NewAuthenticator(sessions *SessionManager, auth usecases.AuthService, log *logger.Logger) *Authenticator {
	return &Authenticator{sessions: sessions, auth: auth, log: log}
}

func (a *Authenticator) Login(w http.ResponseWriter, r *http.Request, u user.User) error {
	return a.sessions.SetUserID(w, r, u.ID)
}

func (a *Authenticator) Logout(w http.ResponseWriter) {
	a.sessions.Clear(w)
}

func (a *Authenticator) ResolveUser(ctx context.Context, id int64) (user.User, error) {
	return a.auth.ResolveUser(ctx, id)
}

// CurrentUser returns the authenticated user or user.Anonymous.
func (a *Authenticator) CurrentUser(r *http.Request) user.User {
	if u, ok := UserFromContext(r.Context()); ok {
		return u
	}
	u, err := a.load(r)
	if err != nil {
		return user.Anonymous
	}
	return u
}

func (a *Authenticator) load(r *http.Request) (user.User, error) {
	uid, ok := a.sessions.GetUserID(r)
	if !ok {
		return user.Anonymous, nil
	}
	u, err := a.ResolveUser(r.Context(), uid)
	if errors.Is(err, user.ErrNotFound) {
		return user.Anonymous, nil
	}
	if err != nil {
		return user.Anonymous, err
	}
	return u, nil
}

// Identify rehydrates the session user once per request and stores it in the
// request context. A cookie pointing at a deleted user reads as anonymous.
func (a *Authenticator) Identify(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, err := a.load(r)
		if err != nil {
			a.log.WithFields(r.Context(), logger.Fields{"action": "resolve_user"}).Errorf("load session user: %v", err)
			http.Error(w, "internal server error", http.StatusInternalServerError)
			return
		}
		next.ServeHTTP(w, r.WithContext(withUser(r.Context(), u)))
	})
}

// RequireAuthenticated redirects anonymous requests to /login.
func (a *Authenticator) RequireAuthenticated(next http.Handler) http.Handler {
	return Protect(next, Authenticated(a))
}
