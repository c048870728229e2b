// Package apperr holds the closed set of error kinds the API answers with and the
// single echo error handler that turns them into responses.
package apperr

import (
	"net/http"
)

// Error is implemented only by the kinds declared in this file.
type Error interface {
	error
	StatusCode() int
	Details() any
	kind()
}

const (
	msgInvalidRequest = "Invalid request"
	msgUnauthorized   = "Unauthorized"
	msgForbidden      = "Forbidden"
	msgNotFound       = "Not found"
	msgUnique         = "Unique constraint failed"
	msgInternal       = "Internal server error"

	// MsgSignIn is shared by every login failure so a caller cannot tell an unknown
	// e-mail from a wrong password.
	MsgSignIn = "Invalid email or password"
)

type ValidationError struct {
	Fields map[string]string
}

func Validation(fields map[string]string) *ValidationError {
	return &ValidationError{Fields: fields}
}

func (e *ValidationError) Error() string   { return msgInvalidRequest }
func (e *ValidationError) StatusCode() int { return http.StatusBadRequest }
func (e *ValidationError) kind()           {}
func (e *ValidationError) Details() any {
	if len(e.Fields) == 0 {
		return nil
	}
	return e.Fields
}

type UnauthorizedError struct {
	Message string
}

func Unauthorized(msg string) *UnauthorizedError {
	if msg == "" {
		msg = msgUnauthorized
	}
	return &UnauthorizedError{Message: msg}
}

// SignIn is the login failure, identical for every cause.
func SignIn() *UnauthorizedError { return &UnauthorizedError{Message: MsgSignIn} }

func (e *UnauthorizedError) Error() string   { return e.Message }
func (e *UnauthorizedError) StatusCode() int { return http.StatusUnauthorized }
func (e *UnauthorizedError) Details() any    { return nil }
func (e *UnauthorizedError) kind()           {}

type ForbiddenError struct {
	Message string
}

func Forbidden(msg string) *ForbiddenError {
	if msg == "" {
		msg = msgForbidden
	}
	return &ForbiddenError{Message: msg}
}

func (e *ForbiddenError) Error() string   { return e.Message }
func (e *ForbiddenError) StatusCode() int { return http.StatusForbidden }
func (e *ForbiddenError) Details() any    { return nil }
func (e *ForbiddenError) kind()           {}

type NotFoundError struct {
	Message string
}

func NotFound(msg string) *NotFoundError {
	if msg == "" {
		msg = msgNotFound
	}
	return &NotFoundError{Message: msg}
}

func (e *NotFoundError) Error() string   { return e.Message }
func (e *NotFoundError) StatusCode() int { return http.StatusNotFound }
func (e *NotFoundError) Details() any    { return nil }
func (e *NotFoundError) kind()           {}

// UniqueConstraintError is raised when storage rejects a duplicate key. Fields maps the
// offending column to a message when the column could be identified.
type UniqueConstraintError struct {
	Fields map[string]string
}

func UniqueConstraint(field string) *UniqueConstraintError {
	e := &UniqueConstraintError{}
	if field != "" {
		e.Fields = map[string]string{field: "already exists"}
	}
	return e
}

func (e *UniqueConstraintError) Error() string   { return msgUnique }
func (e *UniqueConstraintError) StatusCode() int { return http.StatusBadRequest }
func (e *UniqueConstraintError) kind()           {}
func (e *UniqueConstraintError) Details() any {
	if len(e.Fields) == 0 {
		return nil
	}
	return e.Fields
}

// InternalError hides Cause from clients unless the handler runs outside production.
type InternalError struct {
	Cause error
}

func Internal(cause error) *InternalError { return &InternalError{Cause: cause} }

func (e *InternalError) Error() string {
	if e.Cause != nil {
		return msgInternal + ": " + e.Cause.Error()
	}
	return msgInternal
}
func (e *InternalError) Unwrap() error   { return e.Cause }
func (e *InternalError) StatusCode() int { return http.StatusInternalServerError }
func (e *InternalError) Details() any    { return nil }
func (e *InternalError) kind()           {}
