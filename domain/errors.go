package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrorCode represents a semantic classification shared across the client layers.
type ErrorCode string

const (
	ErrCodeNotFound     ErrorCode = "NOT_FOUND"
	ErrCodeInvalid      ErrorCode = "INVALID"
	ErrCodeConflict     ErrorCode = "CONFLICT"
	ErrCodeForbidden    ErrorCode = "FORBIDDEN"
	ErrCodeUnauthorized ErrorCode = "UNAUTHORIZED"
	ErrCodeInternal     ErrorCode = "INTERNAL"
	ErrCodeTransport    ErrorCode = "TRANSPORT"
)

// Error represents a domain-level error.
//
// Field names the form input a server message belongs to when the API said so
// explicitly. Fields carries per-input messages produced by validation.
type Error struct {
	Code    ErrorCode
	Message string
	Field   string
	Fields  FieldErrors
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

// NewValidationError builds an INVALID error carrying per-field messages.
func NewValidationError(fields FieldErrors) *Error {
	return &Error{
		Code:    ErrCodeInvalid,
		Message: fields.String(),
		Fields:  fields,
	}
}

// Common domain errors.
var (
	ErrTaskNotFound   = NewError(ErrCodeNotFound, "task not found")
	ErrKeyNotFound    = NewError(ErrCodeNotFound, "key not found")
	ErrUnauthorized   = NewError(ErrCodeUnauthorized, "unauthorized")
	ErrInvalidPayload = NewError(ErrCodeInvalid, "invalid payload")
	ErrNotSignedIn    = NewError(ErrCodeUnauthorized, "not signed in")
)

// IsDomainError helps checking error codes.
func IsDomainError(err error, code ErrorCode) bool {
	var dErr *Error
	if errors.As(err, &dErr) {
		return dErr.Code == code
	}
	return false
}

// Message returns the human readable part of err without wrapped causes.
func Message(err error) string {
	var dErr *Error
	if errors.As(err, &dErr) && dErr.Message != "" {
		return dErr.Message
	}
	if err == nil {
		return ""
	}
	return err.Error()
}

// FieldErrors maps a form input name to the message rendered beneath it.
type FieldErrors map[string]string

// Get returns the message for field, or "".
func (f FieldErrors) Get(field string) string {
	if f == nil {
		return ""
	}
	return f[field]
}

// Clear drops the message for field; called when the user edits that input.
func (f FieldErrors) Clear(field string) {
	delete(f, field)
}

func (f FieldErrors) String() string {
	if len(f) == 0 {
		return "validation failed"
	}
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, f[k]))
	}
	return strings.Join(parts, "; ")
}

// FieldError is a single message attributed to a form input.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}
