package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies the failures the service surfaces. Handlers map kinds to
// HTTP statuses; the outward message stays opaque so that a Forbidden caused
// by a tenant mismatch is indistinguishable from one caused by role, and a
// NotFound never confirms that another tenant's resource exists.
type Kind int

const (
	Unauthenticated Kind = iota
	Forbidden
	NotFound
	Conflict
	UpstreamUnavailable
	Timeout
	Internal
)

// Error carries a kind, an internal message for logs, and an optional cause.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates an Error with the given kind and internal message
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap creates an Error wrapping a cause
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf extracts the kind from an error chain, defaulting to Internal
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return Internal
}

// Is reports whether the error chain contains an Error of the given kind
func Is(err error, kind Kind) bool {
	var appErr *Error
	return errors.As(err, &appErr) && appErr.Kind == kind
}

// HTTPStatus maps a kind to its HTTP status code
func (k Kind) HTTPStatus() int {
	switch k {
	case Unauthenticated:
		return http.StatusUnauthorized
	case Forbidden:
		return http.StatusForbidden
	case NotFound:
		return http.StatusNotFound
	case Conflict:
		return http.StatusConflict
	case UpstreamUnavailable:
		return http.StatusBadGateway
	case Timeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage returns the opaque outward message for a kind. Internal
// detail never leaks through this message.
func (k Kind) PublicMessage() string {
	switch k {
	case Unauthenticated:
		return "authentication required"
	case Forbidden:
		return "access denied"
	case NotFound:
		return "resource not found"
	case Conflict:
		return "resource already exists"
	case UpstreamUnavailable:
		return "upstream service unavailable"
	case Timeout:
		return "request timed out"
	default:
		return "internal error"
	}
}
