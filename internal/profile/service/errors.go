package service

import (
	"errors"
	"fmt"

	"linkerai/backend/internal/db"
	"linkerai/backend/internal/profile/domain"
)

// Kind classifies an onboarding failure. Handlers map kinds to HTTP status codes.
type Kind string

const (
	KindUnauthenticated  Kind = "unauthenticated"
	KindRoleMismatch     Kind = "role_mismatch"
	KindRoleForbidden    Kind = "role_forbidden"
	KindValidationFailed Kind = "validation_failed"
	KindStoreUnavailable Kind = "store_unavailable"
	KindNotFound         Kind = "not_found"
	// KindStoreRejected is a write refused by a table constraint. Retrying the same write fails again.
	KindStoreRejected Kind = "store_rejected"
)

// Sentinel errors for errors.Is checks against a returned *Error.
var (
	ErrUnauthenticated  = &Error{Kind: KindUnauthenticated}
	ErrRoleMismatch     = &Error{Kind: KindRoleMismatch}
	ErrRoleForbidden    = &Error{Kind: KindRoleForbidden}
	ErrValidationFailed = &Error{Kind: KindValidationFailed}
	ErrStoreUnavailable = &Error{Kind: KindStoreUnavailable}
	ErrNotFound         = &Error{Kind: KindNotFound}
	ErrStoreRejected    = &Error{Kind: KindStoreRejected}
)

// Error is the typed failure returned by the resolver, writer and status queries.
type Error struct {
	Kind    Kind
	Message string
	// Details maps JSON field names to messages for KindValidationFailed.
	Details map[string]string
	// StoredRole and ExpectedRole are set for KindRoleMismatch and KindRoleForbidden.
	StoredRole   domain.Role
	ExpectedRole domain.Role
	Err          error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = string(e.Kind)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error with the same Kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// KindOf returns the Kind of err, or "" if err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

func unauthenticated(msg string) *Error {
	return &Error{Kind: KindUnauthenticated, Message: msg}
}

func storeUnavailable(err error) *Error {
	return &Error{Kind: KindStoreUnavailable, Message: "profile store unavailable", Err: err}
}

// storeError classifies a failed write: constraint violations are KindStoreRejected, everything
// else is KindStoreUnavailable.
func storeError(err error) *Error {
	if db.IsConstraintViolation(err) {
		return &Error{Kind: KindStoreRejected, Message: "profile store rejected the write", Err: err}
	}
	return storeUnavailable(err)
}

func roleMismatch(stored, expected domain.Role) *Error {
	return &Error{
		Kind:         KindRoleMismatch,
		Message:      fmt.Sprintf("account is already registered as %s", stored),
		StoredRole:   stored,
		ExpectedRole: expected,
	}
}

func roleForbidden(stored, requested domain.Role, reason string) *Error {
	msg := fmt.Sprintf("a %s profile cannot be written by this account", requested)
	if reason != "" {
		msg += " (" + reason + ")"
	}
	return &Error{Kind: KindRoleForbidden, Message: msg, StoredRole: stored, ExpectedRole: requested}
}

func validationFailed(details map[string]string) *Error {
	return &Error{Kind: KindValidationFailed, Message: "invalid onboarding submission", Details: details}
}
