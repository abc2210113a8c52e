package internaltypes

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind groups failures by how the route layer reacts to them.
type Kind string

const (
	KindAuthentication  Kind = "AUTHENTICATION"
	KindAuthorization   Kind = "AUTHORIZATION"
	KindUnauthenticated Kind = "UNAUTHENTICATED"
	KindPersistence     Kind = "PERSISTENCE"
	KindInternal        Kind = "INTERNAL"
)

// Error is a classified application error. Two Errors match under errors.Is
// when their codes are equal, so a wrapped cause never hides the class.
type Error struct {
	Code    string
	Kind    Kind
	Status  int
	Message string
	cause   error
}

func New(code string, kind Kind, status int, message string) *Error {
	return &Error{Code: code, Kind: kind, Status: status, Message: message}
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.cause }

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

// WithCause returns a copy of e carrying cause.
func (e *Error) WithCause(cause error) *Error {
	cp := *e
	cp.cause = cause
	return &cp
}

var (
	ErrInvalidCredentials = New("INVALID_CREDENTIALS", KindAuthentication, http.StatusOK, "invalid credentials!")
	ErrForbidden          = New("FORBIDDEN", KindAuthorization, http.StatusForbidden, "forbidden")
	ErrUnauthenticated    = New("UNAUTHENTICATED", KindUnauthenticated, http.StatusFound, "login required")
	ErrPersistence        = New("PERSISTENCE", KindPersistence, http.StatusInternalServerError, "database operation failed")
)

// Persistence wraps a driver error into the persistence class.
func Persistence(err error) error {
	if err == nil {
		return nil
	}
	return ErrPersistence.WithCause(err)
}

// KindOf reports the class of err, or KindInternal for unclassified errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// StatusOf reports the HTTP status for err.
func StatusOf(err error) int {
	var e *Error
	if errors.As(err, &e) {
		return e.Status
	}
	return http.StatusInternalServerError
}
