// Package errors carries the typed error codes shared by services and the
// HTTP layer. Each code maps to a status and to what a client may see.
package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
)

type Code string

const (
	CodeValidation        Code = "VALIDATION_ERROR"
	CodeUnauthorized      Code = "UNAUTHORIZED"
	CodeForbidden         Code = "FORBIDDEN"
	CodeNotFound          Code = "NOT_FOUND"
	CodeConflict          Code = "CONFLICT"
	CodeStateConflict     Code = "STATE_CONFLICT"
	CodeInsufficientStock Code = "INSUFFICIENT_STOCK"
	CodePersistence       Code = "PERSISTENCE_FAILURE"
	CodeIdempotency       Code = "IDEMPOTENCY_KEY_REUSED"
	CodeRateLimit         Code = "RATE_LIMIT_EXCEEDED"
	CodeInternal          Code = "INTERNAL_ERROR"
	CodeDependency        Code = "DEPENDENCY_ERROR"
)

// Metadata describes how a code is rendered. Fallback is sent when the error
// message is private; ClientMessage codes send their own message instead.
type Metadata struct {
	HTTPStatus    int
	Retryable     bool
	Fallback      string
	ClientMessage bool
	ClientDetails bool
}

const (
	public    = true
	private   = false
	retryable = true
	final     = false
)

var metadataByCode = map[Code]Metadata{
	CodeValidation:        {http.StatusBadRequest, final, "validation failed", public, public},
	CodeUnauthorized:      {http.StatusUnauthorized, final, "authentication required", public, private},
	CodeForbidden:         {http.StatusForbidden, final, "access denied", public, private},
	CodeNotFound:          {http.StatusNotFound, final, "resource not found", public, private},
	CodeConflict:          {http.StatusConflict, final, "conflict detected", public, private},
	CodeStateConflict:     {http.StatusUnprocessableEntity, final, "state transition disallowed", public, public},
	CodeInsufficientStock: {http.StatusConflict, final, "insufficient stock", public, public},
	CodePersistence:       {http.StatusInternalServerError, retryable, "could not persist changes", private, private},
	CodeIdempotency:       {http.StatusConflict, final, "idempotency key reused", public, public},
	CodeRateLimit:         {http.StatusTooManyRequests, final, "rate limit exceeded", public, private},
	CodeInternal:          {http.StatusInternalServerError, retryable, "internal server error", private, private},
	CodeDependency:        {http.StatusServiceUnavailable, retryable, "dependency unavailable", private, public},
}

// MetadataFor falls back to CodeInternal for unknown codes.
func MetadataFor(code Code) Metadata {
	if meta, ok := metadataByCode[code]; ok {
		return meta
	}
	return metadataByCode[CodeInternal]
}

// Error is a coded error with an optional cause and client-facing details.
type Error struct {
	code    Code
	message string
	details any
	cause   error
}

func New(code Code, message string) *Error {
	return &Error{code: code, message: message}
}

func Newf(code Code, format string, args ...any) *Error {
	return New(code, fmt.Sprintf(format, args...))
}

// Wrap attaches a code to err. A nil err yields a plain New.
func Wrap(code Code, err error, message string) *Error {
	return &Error{code: code, message: message, cause: err}
}

func (e *Error) Code() Code {
	if e == nil {
		return CodeInternal
	}
	return e.code
}

func (e *Error) Message() string {
	if e == nil {
		return ""
	}
	return e.message
}

func (e *Error) Details() any {
	if e == nil {
		return nil
	}
	return e.details
}

func (e *Error) WithDetails(details any) *Error {
	if e != nil {
		e.details = details
	}
	return e
}

func (e *Error) Error() string {
	switch {
	case e == nil:
		return ""
	case e.cause != nil:
		return fmt.Sprintf("%s: %s: %v", e.code, e.message, e.cause)
	default:
		return fmt.Sprintf("%s: %s", e.code, e.message)
	}
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

// Public returns the message and details a client is allowed to see.
func (e *Error) Public() (string, any) {
	meta := MetadataFor(e.Code())
	msg := meta.Fallback
	if meta.ClientMessage && e.Message() != "" {
		msg = e.Message()
	}
	var details any
	if meta.ClientDetails {
		details = e.Details()
	}
	return msg, details
}

// IsCode reports whether err carries the given typed code anywhere in its chain.
func IsCode(err error, code Code) bool {
	typed := As(err)
	return typed != nil && typed.Code() == code
}

// As returns the outermost *Error in err's chain, or nil.
func As(err error) *Error {
	var typed *Error
	if stdErrors.As(err, &typed) {
		return typed
	}
	return nil
}

// Ensure returns err's typed form, wrapping untyped errors as internal.
func Ensure(err error) *Error {
	if err == nil {
		return New(CodeInternal, "unknown error")
	}
	if typed := As(err); typed != nil {
		return typed
	}
	return Wrap(CodeInternal, err, "unexpected error")
}
