// Package apperr defines the error taxonomy shared by all listing
// operations. Every public operation returns one of these tagged
// errors rather than leaking storage detail past its boundary.
package apperr

import (
	"errors"
	"net/http"
)

// Code tags an error with its business meaning.
type Code string

const (
	CodeUnauthorized     Code = "UNAUTHORIZED"
	CodeNotFound         Code = "NOT_FOUND"
	CodeValidation       Code = "VALIDATION_ERROR"
	CodeForbidden        Code = "FORBIDDEN"
	CodeConflict         Code = "CONFLICT"
	CodePlanLimitReached Code = "PLAN_LIMIT_REACHED"
	CodeServer           Code = "SERVER_ERROR"
)

// Error is a tagged business error. Quota errors carry the current
// count and limit so the UI can render an actionable message.
type Error struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`

	CurrentCount int `json:"current_count,omitempty"`
	Limit        int `json:"limit,omitempty"`

	err error
}

func (e *Error) Error() string {
	if e.err != nil {
		return string(e.Code) + ": " + e.Message + ": " + e.err.Error()
	}
	return string(e.Code) + ": " + e.Message
}

func (e *Error) Unwrap() error {
	return e.err
}

func Unauthorized(msg string) *Error {
	return &Error{Code: CodeUnauthorized, Message: msg}
}

func NotFound(msg string) *Error {
	return &Error{Code: CodeNotFound, Message: msg}
}

func Validation(msg string) *Error {
	return &Error{Code: CodeValidation, Message: msg}
}

func Forbidden(msg string) *Error {
	return &Error{Code: CodeForbidden, Message: msg}
}

func Conflict(msg string) *Error {
	return &Error{Code: CodeConflict, Message: msg}
}

func PlanLimit(currentCount, limit int) *Error {
	return &Error{
		Code:         CodePlanLimitReached,
		Message:      "plan limit reached",
		CurrentCount: currentCount,
		Limit:        limit,
	}
}

// Server wraps a backing-store failure. The wrapped detail is logged
// by the caller; only the opaque code crosses the API boundary.
func Server(err error) *Error {
	return &Error{Code: CodeServer, Message: "internal error", err: err}
}

// From extracts the tagged error, or wraps err as SERVER_ERROR.
func From(err error) *Error {
	var ae *Error
	if errors.As(err, &ae) {
		return ae
	}
	return Server(err)
}

// Is reports whether err carries the given code.
func Is(err error, code Code) bool {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Code == code
	}
	return false
}

// HTTPStatus maps a code to its HTTP response status.
func HTTPStatus(code Code) int {
	switch code {
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeNotFound:
		return http.StatusNotFound
	case CodeValidation:
		return http.StatusUnprocessableEntity
	case CodeForbidden:
		return http.StatusForbidden
	case CodeConflict:
		return http.StatusConflict
	case CodePlanLimitReached:
		return http.StatusPaymentRequired
	default:
		return http.StatusInternalServerError
	}
}
