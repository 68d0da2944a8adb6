package domain

import (
	"errors"
	"fmt"
)

type ErrorKind string

const (
	KindInvalidRequest ErrorKind = "invalid-request"
	KindUnauthorized   ErrorKind = "unauthorized"
	KindForbidden      ErrorKind = "forbidden"
	KindNotFound       ErrorKind = "not-found"
	KindConflict       ErrorKind = "conflict"
	KindInternal       ErrorKind = "internal"
)

// AppError is an error the HTTP layer knows how to report to the client.
// Err keeps the underlying cause for logging and is never sent over the wire.
type AppError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func InvalidRequest(message string) *AppError {
	return &AppError{Kind: KindInvalidRequest, Message: message}
}

func Unauthorized(message string) *AppError {
	return &AppError{Kind: KindUnauthorized, Message: message}
}

func Forbidden(message string) *AppError {
	return &AppError{Kind: KindForbidden, Message: message}
}

func NotFound(message string) *AppError {
	return &AppError{Kind: KindNotFound, Message: message}
}

func Conflict(message string) *AppError {
	return &AppError{Kind: KindConflict, Message: message}
}

func Internal(message string, err error) *AppError {
	return &AppError{Kind: KindInternal, Message: message, Err: err}
}

// KindOf reports the kind of err, or KindInternal for anything that is not an AppError.
func KindOf(err error) ErrorKind {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

var (
	errListingNotFound = errors.New("listing not found")
	errUserNotFound    = errors.New("user not found")
	errStaleListing    = errors.New("listing availability changed concurrently")
	errDuplicateEmail  = errors.New("email already registered")
)

// Repositories return these sentinels; services translate them into AppErrors.
func ErrListingNotFound() error {
	return errListingNotFound
}

func ErrUserNotFound() error {
	return errUserNotFound
}

func ErrStaleListing() error {
	return errStaleListing
}

func ErrDuplicateEmail() error {
	return errDuplicateEmail
}
