package goerror

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrNotFound reports that the requested row or resource does not exist.
	ErrNotFound = errors.New("resource not found")

	// ErrConflict reports a uniqueness or state conflict.
	ErrConflict = errors.New("resource conflict")
)

// Type buckets errors by who is at fault.
type Type int

const (
	// TypeServer is an infrastructure or programming failure.
	TypeServer Type = iota
	// TypeBusiness is a domain rule violation.
	TypeBusiness
	// TypeValidation is a malformed or invalid request.
	TypeValidation
)

func (t Type) String() string {
	switch t {
	case TypeValidation:
		return "ERROR_TYPE_VALIDATION"
	case TypeBusiness:
		return "ERROR_TYPE_BUSINESS"
	case TypeServer:
		return "ERROR_TYPE_SERVER"
	default:
		return "ERROR_TYPE_UNKNOWN"
	}
}

// Code is a stable identifier that maps onto an HTTP status code.
type Code int

const (
	// CodeInternal is an internal or unspecified error.
	CodeInternal Code = iota
	// CodeInvalidFormat is a request body that could not be decoded.
	CodeInvalidFormat
	// CodeInvalidInput is a decoded request that failed validation.
	CodeInvalidInput
	// CodeNotFound is a missing resource.
	CodeNotFound
	// CodeConflict is a duplicate or state conflict.
	CodeConflict
	// CodeTooManyRequest is a throttled request.
	CodeTooManyRequest
	// CodeUnauthorized is a failed authentication.
	CodeUnauthorized
	// CodeForbidden is a denied operation.
	CodeForbidden
	// CodeTimeout is an expired deadline.
	CodeTimeout
)

func (c Code) String() string {
	switch c {
	case CodeInvalidFormat:
		return "ERROR_CODE_INVALID_FORMAT"
	case CodeInvalidInput:
		return "ERROR_CODE_INVALID_INPUT"
	case CodeNotFound:
		return "ERROR_CODE_NOT_FOUND"
	case CodeConflict:
		return "ERROR_CODE_CONFLICT"
	case CodeTooManyRequest:
		return "ERROR_CODE_TOO_MANY_REQUESTS"
	case CodeUnauthorized:
		return "ERROR_CODE_UNAUTHORIZED"
	case CodeForbidden:
		return "ERROR_CODE_FORBIDDEN"
	case CodeInternal:
		return "ERROR_CODE_INTERNAL"
	default:
		return "ERROR_CODE_INTERNAL"
	}
}

// Error carries a user-facing message, a type, and a stable code alongside an
// optional wrapped cause. Handlers render it straight into the response
// envelope.
type Error struct {
	err     error
	msg     string
	errType Type
	code    Code
	fields  map[string]string
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.err != nil {
		return e.err.Error()
	}
	if e.msg != "" {
		return e.msg
	}

	switch e.errType {
	case TypeValidation:
		return "Validation violation"
	case TypeBusiness:
		return "Business rule violation"
	case TypeServer:
		return "Internal error"
	default:
		return "Unknown error"
	}
}

// String returns a verbose representation for logs.
func (e *Error) String() string {
	return fmt.Sprintf(
		"Error Type: %s, Code: %s, Message: %s, Underlying Error: %v",
		e.errType.String(), e.code.String(), e.msg, e.err,
	)
}

// Msg returns the user-facing message, if set.
func (e *Error) Msg() string {
	return e.msg
}

// Type returns the fault bucket.
func (e *Error) Type() Type {
	return e.errType
}

// Code returns the stable code.
func (e *Error) Code() Code {
	return e.code
}

// Fields returns per-field validation messages, if any.
func (e *Error) Fields() map[string]string {
	return e.fields
}

// Unwrap returns the wrapped cause.
func (e *Error) Unwrap() error {
	return e.err
}

// StatusCode maps the code to an HTTP status.
func (e *Error) StatusCode() int {
	switch e.code {
	case CodeInvalidFormat:
		return http.StatusBadRequest
	case CodeInvalidInput:
		return http.StatusUnprocessableEntity
	case CodeNotFound:
		return http.StatusNotFound
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeForbidden:
		return http.StatusForbidden
	case CodeTimeout:
		return http.StatusRequestTimeout
	case CodeTooManyRequest:
		return http.StatusTooManyRequests
	case CodeConflict:
		return http.StatusConflict
	case CodeInternal:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

func new(err error, msg string, et Type, code Code) error {
	return &Error{err: err, msg: msg, errType: et, code: code}
}

// NewServer wraps an infrastructure failure. The cause is logged, never shown.
func NewServer(err error) error {
	return new(err, "Internal server error", TypeServer, CodeInternal)
}

// NewBusiness creates a domain error with the given message and code.
func NewBusiness(msg string, code Code) error {
	return new(nil, msg, TypeBusiness, code)
}

// NewInvalidInput creates a validation error. When err is nil, kv pairs are
// rendered as a field-to-message map in the response.
func NewInvalidInput(err error, kv ...string) error {
	if err != nil {
		return new(err, "Validation error", TypeValidation, CodeInvalidInput)
	}
	if len(kv)%2 != 0 {
		return new(nil, "Invalid request body", TypeValidation, CodeInvalidFormat)
	}

	fields := make(map[string]string, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		fields[kv[i]] = kv[i+1]
	}

	return &Error{msg: "Validation error", errType: TypeValidation, code: CodeInvalidInput, fields: fields}
}

// NewInvalidFormat creates a validation error for an undecodable request body.
func NewInvalidFormat(msgs ...string) error {
	if len(msgs) == 0 {
		return new(nil, "Invalid request body", TypeValidation, CodeInvalidFormat)
	}
	return new(nil, msgs[0], TypeValidation, CodeInvalidFormat)
}
