// Package apperror holds the error taxonomy shared by services and HTTP handlers.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Code is an entry of the client facing error table.
type Code struct {
	Name    string
	Status  int
	Message string
}

var (
	CodeNotFound     = Code{Name: "NOT_FOUND", Status: http.StatusNotFound, Message: "resource not found"}
	CodeAccessDenied = Code{Name: "ACCESS_DENIED", Status: http.StatusForbidden, Message: "access denied"}
	CodeExpiredToken = Code{Name: "EXPIRED_TOKEN", Status: http.StatusBadRequest, Message: "refresh token expired"}
	CodeInvalidToken = Code{Name: "INVALID_TOKEN", Status: http.StatusBadRequest, Message: "invalid refresh token"}
	CodeInvalidInput = Code{Name: "INVALID_INPUT", Status: http.StatusBadRequest, Message: "invalid input"}
	CodeUnauthorized = Code{Name: "UNAUTHORIZED", Status: http.StatusUnauthorized, Message: "unauthorized"}
	CodeConflict     = Code{Name: "CONFLICT", Status: http.StatusConflict, Message: "resource already exists"}
	CodeInternal     = Code{Name: "INTERNAL", Status: http.StatusInternalServerError, Message: "internal server error"}
)

// Error carries a table code and the underlying cause.
type Error struct {
	Code Code
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Code.Name
	}
	return e.Code.Name + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error with the same code name, so wrapped sentinels compare equal.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return t.Code.Name == e.Code.Name
	}
	return false
}

var (
	ErrNotFound     = &Error{Code: CodeNotFound}
	ErrAccessDenied = &Error{Code: CodeAccessDenied}
	ErrExpiredToken = &Error{Code: CodeExpiredToken}
	ErrInvalidToken = &Error{Code: CodeInvalidToken}
	ErrInvalidInput = &Error{Code: CodeInvalidInput}
	ErrUnauthorized = &Error{Code: CodeUnauthorized}
	ErrConflict     = &Error{Code: CodeConflict}
)

// Wrap attaches a code to err. A nil err returns nil.
func Wrap(code Code, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Err: err}
}

// New builds a coded error with a formatted cause.
func New(code Code, format string, args ...any) error {
	return &Error{Code: code, Err: fmt.Errorf(format, args...)}
}

// From resolves the table entry for err; unknown errors are INTERNAL.
func From(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeInternal
}
