package web

import (
	"net/http"
	"time"

	"github.com/gorilla/securecookie"
)

const (
	sessionName = "roleguard_session"
	flashName   = "roleguard_flash"
)

// sessionValue is what the session cookie carries: only the user id.
type sessionValue struct {
	UID int64
}

// SessionManager reads and writes the signed, encrypted session cookie.
type SessionManager struct {
	sc     *securecookie.SecureCookie
	maxAge time.Duration
}

func NewSessionManager(hashKey, blockKey []byte, maxAge time.Duration) *SessionManager {
	if maxAge <= 0 {
		maxAge = 14 * 24 * time.Hour
	}
	sc := securecookie.New(hashKey, blockKey)
	sc.MaxAge(int(maxAge.Seconds()))
	return &SessionManager{sc: sc, maxAge: maxAge}
}

func (s *SessionManager) SetUserID(w http.ResponseWriter, r *http.Request, userID int64) error {
	encoded, err := s.sc.Encode(sessionName, sessionValue{UID: userID})
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     sessionName,
		Value:    encoded,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   r.TLS != nil,
		MaxAge:   int(s.maxAge.Seconds()),
	})
	return nil
}

func (s *SessionManager) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name: sessionName, Value: "", Path: "/", MaxAge: -1,
		HttpOnly: true, SameSite: http.SameSiteLaxMode,
	})
}

// GetUserID reports the user id stored in the request's session cookie.
// Missing, tampered and expired cookies all read as no session.
func (s *SessionManager) GetUserID(r *http.Request) (int64, bool) {
	c, err := r.Cookie(sessionName)
	if err != nil {
		return 0, false
	}
	var v sessionValue
	if err := s.sc.Decode(sessionName, c.Value, &v); err != nil {
		return 0, false
	}
	if v.UID <= 0 {
		return 0, false
	}
	return v.UID, true
}

// SetFlash stores a one-shot message shown on the next rendered page.
func (s *SessionManager) SetFlash(w http.ResponseWriter, r *http.Request, msg string) error {
	encoded, err := s.sc.Encode(flashName, msg)
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name: flashName, Value: encoded, Path: "/",
		HttpOnly: true, SameSite: http.SameSiteLaxMode, Secure: r.TLS != nil,
	})
	return nil
}

// PopFlash returns the pending flash message and expires it.
func (s *SessionManager) PopFlash(w http.ResponseWriter, r *http.Request) string {
	c, err := r.Cookie(flashName)
	if err != nil {
		return ""
	}
	http.SetCookie(w, &http.Cookie{
		Name: flashName, Value: "", Path: "/", MaxAge: -1,
		HttpOnly: true, SameSite: http.SameSiteLaxMode,
	})
	var msg string
	if err := s.sc.Decode(flashName, c.Value, &msg); err != nil {
		return ""
	}
	return msg
}
