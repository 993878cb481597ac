package domain

import (
	"errors"
	"fmt"
)

// ErrorCode represents a semantic classification shared across transport layers.
type ErrorCode string

const (
	ErrCodeNotFound     ErrorCode = "NOT_FOUND"
	ErrCodeInvalid      ErrorCode = "INVALID"
	ErrCodeConflict     ErrorCode = "CONFLICT"
	ErrCodeForbidden    ErrorCode = "FORBIDDEN"
	ErrCodeUnauthorized ErrorCode = "UNAUTHORIZED"
	ErrCodeInternal     ErrorCode = "INTERNAL"
)

// Error represents a domain-level error.
type Error struct {
	Code    ErrorCode
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// NewError builds a domain error.
func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// WrapError wraps an existing error with a domain classification.
func WrapError(code ErrorCode, message string, err error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Domain-rule violations raised while folding a shopping cart stream. All of
// them are terminal: a failing event aborts the fold and leaves no new
// snapshot.
var (
	ErrCartNotFound        = NewError(ErrCodeNotFound, "shopping cart not found")
	ErrOpenedExistingCart  = NewError(ErrCodeConflict, "shopping cart already opened")
	ErrProductItemNotFound = NewError(ErrCodeNotFound, "product item not found")
	ErrUnknownEventType    = NewError(ErrCodeInternal, "unknown event type")
	ErrCartViewNotFound    = NewError(ErrCodeNotFound, "cart view not found")
	ErrCartClosed          = NewError(ErrCodeConflict, "shopping cart already closed")
	ErrInvalidPayload      = NewError(ErrCodeInvalid, "invalid payload")
	ErrUnauthorized        = NewError(ErrCodeUnauthorized, "unauthorized")
)

// IsDomainError helps checking error codes.
func IsDomainError(err error, code ErrorCode) bool {
	var dErr *Error
	if errors.As(err, &dErr) {
		return dErr.Code == code
	}
	return false
}
