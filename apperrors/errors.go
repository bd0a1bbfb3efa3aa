// Package apperrors defines the error taxonomy shared by services, middleware
// and controllers.
package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind int

const (
	KindValidation Kind = iota + 1
	KindAuth
	KindForbidden
	KindNotFound
	KindServer
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindAuth:
		return "auth"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	case KindServer:
		return "server"
	default:
		return "unknown"
	}
}

// Status is the default HTTP status for the kind.
func (k Kind) Status() int {
	switch k {
	case KindValidation:
		return http.StatusBadRequest
	case KindAuth:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// AppError is an error with a kind and an HTTP status. Operational errors carry
// a message that is safe to show to the client; anything else is reported as a
// generic failure and only logged.
type AppError struct {
	Kind        Kind
	Status      int
	Message     string
	Operational bool
	Err         error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error { return e.Err }

// WithStatus returns a copy of e answering with a different HTTP status.
func (e *AppError) WithStatus(status int) *AppError {
	cp := *e
	cp.Status = status
	return &cp
}

// ResponseStatus is "fail" for client errors and "error" otherwise.
func (e *AppError) ResponseStatus() string {
	if e.Status >= 400 && e.Status < 500 {
		return "fail"
	}
	return "error"
}

func newOperational(kind Kind, msg string) *AppError {
	return &AppError{Kind: kind, Status: kind.Status(), Message: msg, Operational: true}
}

func Validation(msg string) *AppError   { return newOperational(KindValidation, msg) }
func Unauthorized(msg string) *AppError { return newOperational(KindAuth, msg) }
func Forbidden(msg string) *AppError    { return newOperational(KindForbidden, msg) }
func NotFound(msg string) *AppError     { return newOperational(KindNotFound, msg) }

// Server is an operational 500: the message is shown, the cause is logged.
func Server(msg string, err error) *AppError {
	e := newOperational(KindServer, msg)
	e.Err = err
	return e
}

// Internal wraps an unexpected fault. Its message never reaches the client.
func Internal(err error) *AppError {
	return &AppError{
		Kind:    KindServer,
		Status:  http.StatusInternalServerError,
		Message: "internal error",
		Err:     err,
	}
}

// As extracts an *AppError from err's chain.
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// IsKind reports whether err is an *AppError of the given kind.
func IsKind(err error, kind Kind) bool {
	appErr, ok := As(err)
	return ok && appErr.Kind == kind
}
