package core

import (
	"errors"
	"fmt"
)

type ErrorCode string

const (
	ErrBadRequest  ErrorCode = "WS_BAD_REQUEST"
	ErrNotFound    ErrorCode = "WS_NOT_FOUND"
	ErrConflict    ErrorCode = "WS_CONFLICT"
	ErrUnavailable ErrorCode = "WS_UNAVAILABLE"
	ErrRuntime     ErrorCode = "WS_RUNTIME_ERROR"
	ErrInternal    ErrorCode = "WS_INTERNAL"
)

// HTTPStatus returns the HTTP status code for this error code.
func (e ErrorCode) HTTPStatus() int {
	switch e {
	case ErrBadRequest:
		return 400
	case ErrNotFound:
		return 404
	case ErrConflict:
		return 409
	case ErrUnavailable:
		return 503
	case ErrRuntime:
		return 502
	default:
		return 500
	}
}

type AppError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func NewAppError(code ErrorCode, msg string) *AppError {
	return &AppError{Code: code, Message: msg}
}

// AsAppError extracts an AppError from err, defaulting to ErrInternal so
// handlers never leak raw engine or database messages with a 200-series
// shape.
func AsAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return &AppError{Code: ErrInternal, Message: "internal error"}
}
