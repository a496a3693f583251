package apperr

import (
	"errors"
	"net/http"
)

// Kind classifies an error for HTTP mapping and for callers that need to
// branch on failure class without parsing messages.
type Kind int

const (
	KindUnknown Kind = iota
	KindValidation
	KindDuplicate
	KindInvalidCredentials
	KindAccountDeactivated
	KindAccountLocked
	KindInvalidToken
	KindSessionInvalid
	KindRoleMissing
	KindRoleNotFound
	KindUnauthenticated
	KindForbidden
	KindConflict
	KindNotFound
	KindStore
)

// Error is the application error type carried from services to handlers.
// Message is safe to return to clients; Err (if set) holds the underlying
// cause and is for logs only.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is lets errors.Is match two apperr values by Kind, so services can return
// wrapped errors and tests can still assert on the class.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Kind == t.Kind
	}
	return false
}

// New builds an error of the given kind with a client-safe message.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap attaches an underlying cause to a client-safe message.
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf extracts the kind from any error; non-apperr errors are KindUnknown.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// Status maps an error to its HTTP status code. Conflict maps to 400 to keep
// the delete-precondition contract the admin frontend already depends on.
func Status(err error) int {
	switch KindOf(err) {
	case KindValidation, KindDuplicate, KindConflict:
		return http.StatusBadRequest
	case KindInvalidCredentials, KindAccountDeactivated, KindAccountLocked,
		KindInvalidToken, KindSessionInvalid, KindRoleMissing, KindRoleNotFound,
		KindUnauthenticated:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
