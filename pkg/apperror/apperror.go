package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an application error and determines its HTTP status
type Kind int

const (
	KindValidation Kind = iota
	KindAuthentication
	KindNotFound
	KindStorage
	KindInternal
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation_error"
	case KindAuthentication:
		return "authentication_error"
	case KindNotFound:
		return "not_found"
	case KindStorage:
		return "storage_error"
	default:
		return "internal_error"
	}
}

// HTTPStatus maps the kind to its response status code
func (k Kind) HTTPStatus() int {
	switch k {
	case KindValidation:
		return http.StatusBadRequest
	case KindAuthentication:
		return http.StatusUnauthorized
	case KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// Error is a typed application error carrying a kind and a client-safe message
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Newf(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a kind and message to an underlying error
func Wrap(kind Kind, err error, message string) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

func Validation(message string) *Error {
	return New(KindValidation, message)
}

func Authentication(message string) *Error {
	return New(KindAuthentication, message)
}

func NotFound(message string) *Error {
	return New(KindNotFound, message)
}

func Storage(err error, message string) *Error {
	return Wrap(KindStorage, err, message)
}

func Internal(err error, message string) *Error {
	return Wrap(KindInternal, err, message)
}

// KindOf extracts the kind of err, defaulting to KindInternal for untyped errors
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// ClientMessage returns the client-safe message for err. Untyped errors are
// masked so internals never leak into responses.
func ClientMessage(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return "internal server error"
}
