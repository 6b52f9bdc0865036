package errors

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Error is the structured error type used across the engine.
type Error struct {
	code      Code
	category  Category
	message   string
	cause     error
	timestamp time.Time
}

// Error returns the error message.
func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.message, e.cause)
	}
	return e.message
}

// Code returns the error code.
func (e *Error) Code() Code {
	return e.code
}

// Category returns the error category.
func (e *Error) Category() Category {
	return e.category
}

// Retryable returns whether a later attempt may succeed.
func (e *Error) Retryable() bool {
	return e.category.IsRetryable()
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.cause
}

// Timestamp returns when the error occurred.
func (e *Error) Timestamp() time.Time {
	return e.timestamp
}

// Option is a functional option for configuring an Error.
type Option func(*Error)

// WithCategory overrides the code's default category.
func WithCategory(cat Category) Option {
	return func(e *Error) {
		e.category = cat
	}
}

// WithCause sets the underlying cause.
func WithCause(cause error) Option {
	return func(e *Error) {
		e.cause = cause
	}
}

// New creates a new Error with the given code and message.
func New(code Code, message string, opts ...Option) *Error {
	e := &Error{
		code:      code,
		category:  code.DefaultCategory(),
		message:   message,
		timestamp: time.Now(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Newf creates a new Error with a formatted message.
func Newf(code Code, format string, args ...interface{}) *Error {
	return New(code, fmt.Sprintf(format, args...))
}

// Wrap wraps an error with a code and context message, preserving the chain.
// A nil err yields nil. Context cancellation and deadline errors keep their
// timeout/canceled meaning regardless of the requested code.
func Wrap(err error, code Code, message string) *Error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		code = CodeTimeout
	}
	wrapped := New(code, message)
	wrapped.cause = err
	return wrapped
}

// UnknownPersona creates the rejection for an invalid persona name,
// listing the valid options in the message.
func UnknownPersona(name string, valid []string) *Error {
	return Newf(CodeUnknownPersona, "unknown persona %q (valid: %s)", name, strings.Join(valid, ", "))
}

// Gateway creates a gateway failure error wrapping the transport cause.
func Gateway(cause error, message string) *Error {
	return Wrap(cause, CodeGateway, message)
}

// Storage creates a storage failure error wrapping the I/O cause.
func Storage(cause error, message string) *Error {
	return Wrap(cause, CodeStorage, message)
}

// AsError extracts an *Error from an error chain.
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// CodeOf returns the code of an error, or CodeInternal for foreign errors.
// A nil error has no code; callers should check for nil first.
func CodeOf(err error) Code {
	if e, ok := AsError(err); ok {
		return e.code
	}
	return CodeInternal
}

// IsRetryable reports whether the error chain indicates a retryable failure.
func IsRetryable(err error) bool {
	if e, ok := AsError(err); ok {
		return e.Retryable()
	}
	return false
}
