package web

import (
	"context"
	"errors"
	"html/template"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/example/roleguard/internal/application/usecases"
	"github.com/example/roleguard/internal/domain/user"
	"github.com/example/roleguard/internal/internaltypes"
	"github.com/example/roleguard/internal/logger"
	"github.com/example/roleguard/internal/metrics"
)

const (
	flashRegistered      = "Registered successfully. Please login."
	msgInvalidCredential = "invalid credentials!"
	requestTimeout       = 5 * time.Second
)

type Server struct {
	addr     string
	sessions *SessionManager
	auth     usecases.AuthService
	authn    *Authenticator
	tmpl     *template.Template
	log      *logger.Logger

	loginLimiter *RateLimiter
}

type Option func(*Server)

// WithLoginRateLimit throttles POST /login per client IP. A zero rate disables it.
func WithLoginRateLimit(perSecond float64, burst int) Option {
	return func(s *Server) {
		if perSecond > 0 {
			s.loginLimiter = NewRateLimiter(perSecond, burst)
		}
	}
}

func New(addr string, sessions *SessionManager, auth usecases.AuthService, tmpl *template.Template, log *logger.Logger, opts ...Option) *Server {
	s := &Server{
		addr:     addr,
		sessions: sessions,
		auth:     auth,
		authn:    NewAuthenticator(sessions, auth, log),
		tmpl:     tmpl,
		log:      log,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Handler returns the routed, fully wrapped application handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/register", s.handleRegister)
	mux.HandleFunc("/login", s.handleLogin)

	authed := Authenticated(s.authn)
	mux.Handle("GET /logout", Protect(http.HandlerFunc(s.handleLogout), authed))
	mux.Handle("GET /dashboard", Protect(http.HandlerFunc(s.handleDashboard), authed))
	mux.Handle("GET /admin", Protect(http.HandlerFunc(s.handleAdmin), authed, RequireRole(s.authn, user.RoleAdmin)))

	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/dashboard", http.StatusFound)
	})

	// ambient routes never load the session user
	root := http.NewServeMux()
	root.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	})
	root.Handle("GET /metrics", promhttp.Handler())
	root.Handle("/", s.authn.Identify(mux))

	var h http.Handler = root
	h = maxBody(h)
	h = logging(s.log)(h)
	h = securityHeaders(h)
	h = traceID(h)
	h = recovery(s.log)(h)
	return h
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Infof("listening on %s", s.addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

type pageData struct {
	Title    string
	User     user.User
	Flash    string
	Error    string
	Username string
}

func (s *Server) render(w http.ResponseWriter, name string, data pageData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.tmpl.ExecuteTemplate(w, name, data); err != nil {
		s.log.Errorf("render %s: %v", name, err)
		http.Error(w, "render error", http.StatusInternalServerError)
	}
}

// formFields returns the named POST fields. A missing field is a bad request;
// an empty one is accepted.
func formFields(r *http.Request, names ...string) ([]string, bool) {
	if err := r.ParseForm(); err != nil {
		return nil, false
	}
	out := make([]string, len(names))
	for i, n := range names {
		v, ok := r.PostForm[n]
		if !ok || len(v) == 0 {
			return nil, false
		}
		out[i] = v[0]
	}
	return out, true
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet, http.MethodHead:
		s.render(w, "register.html", pageData{Title: "Register", User: s.authn.CurrentUser(r)})
		return
	case http.MethodPost:
		f, ok := formFields(r, "username", "password", "role")
		if !ok {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		username, password, role := f[0], f[1], user.Role(f[2])

		ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
		defer cancel()
		u, err := s.auth.Register(ctx, username, password, role)
		if err != nil {
			s.log.WithFields(r.Context(), logger.Fields{
				"action":    "register",
				"username":  username,
				"duplicate": errors.Is(err, user.ErrDuplicate),
			}).Errorf("register failed: %v", err)
			s.render(w, "register.html", pageData{Title: "Register", User: s.authn.CurrentUser(r), Username: username})
			return
		}

		if u.Role != user.RoleUser {
			// registration does not check who may hold a role
			s.log.WithFields(r.Context(), logger.Fields{
				"action":  "register",
				"user_id": u.ID,
				"role":    u.Role,
			}).Warn("self-assigned role at registration")
		}
		metrics.RegistrationsTotal.WithLabelValues(roleLabel(u.Role)).Inc()

		if err := s.sessions.SetFlash(w, r, flashRegistered); err != nil {
			s.log.Warnf("set flash: %v", err)
		}
		http.Redirect(w, r, "/login", http.StatusFound)
		return
	default:
		w.Header().Set("Allow", "GET, HEAD, POST")
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet, http.MethodHead:
		s.render(w, "login.html", pageData{
			Title: "Login",
			User:  s.authn.CurrentUser(r),
			Flash: s.sessions.PopFlash(w, r),
		})
		return
	case http.MethodPost:
		if s.loginLimiter != nil && !s.loginLimiter.Allow(clientIP(r)) {
			metrics.RateLimitBlocked.WithLabelValues("/login").Inc()
			http.Error(w, "too many requests", http.StatusTooManyRequests)
			return
		}
		f, ok := formFields(r, "username", "password")
		if !ok {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		username, password := f[0], f[1]

		ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
		defer cancel()
		u, err := s.auth.Authenticate(ctx, username, password)
		if err != nil {
			if internaltypes.KindOf(err) == internaltypes.KindAuthentication {
				metrics.LoginAttemptsTotal.WithLabelValues("invalid").Inc()
				s.render(w, "login.html", pageData{Title: "Login", Error: msgInvalidCredential, Username: username})
				return
			}
			metrics.LoginAttemptsTotal.WithLabelValues("error").Inc()
			s.fail(w, r, err)
			return
		}
		if err := s.authn.Login(w, r, u); err != nil {
			s.fail(w, r, err)
			return
		}
		metrics.LoginAttemptsTotal.WithLabelValues("success").Inc()
		http.Redirect(w, r, "/dashboard", http.StatusFound)
		return
	default:
		w.Header().Set("Allow", "GET, HEAD, POST")
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.authn.Logout(w)
	http.Redirect(w, r, "/login", http.StatusFound)
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	s.render(w, "dashboard.html", pageData{Title: "Dashboard", User: s.authn.CurrentUser(r)})
}

func (s *Server) handleAdmin(w http.ResponseWriter, r *http.Request) {
	s.render(w, "admin.html", pageData{Title: "Admin", User: s.authn.CurrentUser(r)})
}

// fail logs err and answers with the status of its class.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := internaltypes.StatusOf(err)
	s.log.WithFields(r.Context(), logger.Fields{
		"kind":   internaltypes.KindOf(err),
		"status": status,
	}).Errorf("%s %s: %v", r.Method, r.URL.Path, err)
	http.Error(w, http.StatusText(status), status)
}

func roleLabel(r user.Role) string {
	switch r {
	case user.RoleUser, user.RoleAdmin:
		return string(r)
	default:
		return "other"
	}
}
