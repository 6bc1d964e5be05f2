// Package errors provides a structured error type with wrapping and metadata
package errors

// Always import the project errors package as perr (platform/errors)

import (
	"context"
	stderrs "errors"
	"fmt"
	"net"
	"net/http"
)

// ErrorCode classifies failures across the pipeline
// Values are stable for log queries; add sparingly
type ErrorCode uint16

const (
	// ErrorCodeUnknown is for unclassified errors
	ErrorCodeUnknown ErrorCode = iota

	// ErrorCodePrecondition is for fatal setup failures that abort a run
	// (missing credential, empty label set, segment count lookup)
	ErrorCodePrecondition

	// ErrorCodeUnavailable is for transient upstream failures (5xx, connection reset)
	ErrorCodeUnavailable

	// ErrorCodeTimeout is for calls that exceeded their deadline
	ErrorCodeTimeout

	// ErrorCodeTooManyRequests is for rate limiting (429, and 412 from the video platform)
	ErrorCodeTooManyRequests

	// ErrorCodeForbidden is for access control failures
	ErrorCodeForbidden

	// ErrorCodeUnauthorized is for rejected credentials
	ErrorCodeUnauthorized

	// ErrorCodeInvalidArgument is for bad input (4xx payload issues, vector length mismatch)
	ErrorCodeInvalidArgument

	// ErrorCodeValidation is for option validation failures
	ErrorCodeValidation

	// ErrorCodeMalformed is for upstream responses that don't have the expected shape
	ErrorCodeMalformed

	// ErrorCodeNotFound is for missing resources
	ErrorCodeNotFound

	// ErrorCodeDB is for cache backend errors
	ErrorCodeDB

	// ErrorCodeCanceled is for runs stopped by the caller
	ErrorCodeCanceled
)

var codeNames = [...]string{
	ErrorCodeUnknown:         "unknown",
	ErrorCodePrecondition:    "precondition",
	ErrorCodeUnavailable:     "unavailable",
	ErrorCodeTimeout:         "timeout",
	ErrorCodeTooManyRequests: "too_many_requests",
	ErrorCodeForbidden:       "forbidden",
	ErrorCodeUnauthorized:    "unauthorized",
	ErrorCodeInvalidArgument: "invalid_argument",
	ErrorCodeValidation:      "validation",
	ErrorCodeMalformed:       "malformed",
	ErrorCodeNotFound:        "not_found",
	ErrorCodeDB:              "db",
	ErrorCodeCanceled:        "canceled",
}

// String renders the code for logs
func (c ErrorCode) String() string {
	if int(c) < len(codeNames) {
		return codeNames[c]
	}
	return fmt.Sprintf("code(%d)", uint16(c))
}

// CodeForStatus maps an upstream HTTP status to an ErrorCode
func CodeForStatus(status int) ErrorCode {
	switch {
	case status == http.StatusTooManyRequests, status == http.StatusPreconditionFailed:
		return ErrorCodeTooManyRequests
	case status == http.StatusForbidden:
		return ErrorCodeForbidden
	case status == http.StatusUnauthorized:
		return ErrorCodeUnauthorized
	case status == http.StatusNotFound:
		return ErrorCodeNotFound
	case status == http.StatusRequestTimeout, status == http.StatusGatewayTimeout:
		return ErrorCodeTimeout
	case status >= 500:
		return ErrorCodeUnavailable
	case status >= 400:
		return ErrorCodeInvalidArgument
	default:
		return ErrorCodeUnknown
	}
}

// FromHTTPStatus builds an error for a non-2xx upstream response
func FromHTTPStatus(status int, msg string) error {
	return &Error{code: CodeForStatus(status), msg: msg, status: status}
}

// ErrNotFound is a sentinel not found error for convenience
var ErrNotFound = New(ErrorCodeNotFound, "not found")

// Error is the structured error type with wrapping and metadata
// msg is developer facing; code is machine facing
// field is optional (for validation); op is optional operation tag
// status carries the upstream HTTP status when one was observed
type Error struct {
	orig   error
	msg    string
	code   ErrorCode
	field  string
	op     string
	status int
}

// Error implements the error interface
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.orig != nil {
		return fmt.Sprintf("%s: %v", e.msg, e.orig)
	}
	return e.msg
}

// Unwrap returns the wrapped error, if any
func (e *Error) Unwrap() error { return e.orig }

// Code returns the error code
func (e *Error) Code() ErrorCode { return e.code }

// Field returns the offending field, if any
func (e *Error) Field() string { return e.field }

// Op returns the operation label, if set
func (e *Error) Op() string { return e.op }

// Status returns the upstream HTTP status, or 0
func (e *Error) Status() int { return e.status }

// Root returns the deepest wrapped cause
func Root(err error) error {
	for err != nil {
		u := stderrs.Unwrap(err)
		if u == nil {
			return err
		}
		err = u
	}
	return nil
}

// CodeOf extracts an ErrorCode from any error. Context errors and
// network timeouts are classified even when they aren't ours
func CodeOf(err error) ErrorCode {
	if e, ok := As(err); ok {
		return e.code
	}
	switch {
	case err == nil:
		return ErrorCodeUnknown
	case stderrs.Is(err, context.DeadlineExceeded):
		return ErrorCodeTimeout
	case stderrs.Is(err, context.Canceled):
		return ErrorCodeCanceled
	}
	var ne net.Error
	if stderrs.As(err, &ne) {
		if ne.Timeout() {
			return ErrorCodeTimeout
		}
		return ErrorCodeUnavailable
	}
	return ErrorCodeUnknown
}

// IsCode reports whether err has the given code
func IsCode(err error, code ErrorCode) bool { return CodeOf(err) == code }

// StatusOf returns the upstream HTTP status recorded on err, or 0
func StatusOf(err error) int {
	if e, ok := As(err); ok {
		return e.status
	}
	return 0
}

// As unwraps and returns (*Error, true) if err is one of ours
func As(err error) (*Error, bool) {
	var e *Error
	if stderrs.As(err, &e) {
		return e, true
	}
	return nil, false
}

// Mutators (copy-on-write)

// WithField attaches a field to an *Error (copy-on-write). If err isn't *Error, returns err unchanged
func WithField(err error, field string) error {
	if e, ok := As(err); ok {
		c := *e
		c.field = field
		return &c
	}
	return err
}

// WithOp attaches an operation label to an *Error (copy-on-write). If err isn't *Error, returns err unchanged
func WithOp(err error, op string) error {
	if e, ok := As(err); ok {
		c := *e
		c.op = op
		return &c
	}
	return err
}

// Constructors

// New returns a new *Error with the given code and message
func New(code ErrorCode, msg string) error { return &Error{code: code, msg: msg} }

// Newf returns a new *Error with code and formatted message
func Newf(code ErrorCode, format string, a ...any) error {
	return &Error{code: code, msg: fmt.Sprintf(format, a...)}
}

// Wrap returns a new *Error that wraps orig with code and message.
// The upstream status of orig, if any, is carried over
func Wrap(orig error, code ErrorCode, msg string) error {
	return &Error{code: code, msg: msg, orig: orig, status: StatusOf(orig)}
}

// Wrapf returns a new *Error that wraps orig with code and formatted message
func Wrapf(orig error, code ErrorCode, format string, a ...any) error {
	return Wrap(orig, code, fmt.Sprintf(format, a...))
}

// WrapStatus wraps orig and records an explicit upstream status. Transport
// failures that never produced a response use -1
func WrapStatus(orig error, code ErrorCode, status int, msg string) error {
	return &Error{code: code, msg: msg, orig: orig, status: status}
}

// Classify wraps err keeping the code CodeOf would infer for it
func Classify(err error, msg string) error {
	if err == nil {
		return nil
	}
	return Wrap(err, CodeOf(err), msg)
}

// Sugar

// Preconditionf returns a fatal precondition error
func Preconditionf(format string, a ...any) error { return Newf(ErrorCodePrecondition, format, a...) }

// InvalidArgf returns an invalid argument error
func InvalidArgf(format string, a ...any) error { return Newf(ErrorCodeInvalidArgument, format, a...) }

// Malformedf returns a malformed upstream response error
func Malformedf(format string, a ...any) error { return Newf(ErrorCodeMalformed, format, a...) }

// Unavailablef returns an unavailable error
func Unavailablef(format string, a ...any) error { return Newf(ErrorCodeUnavailable, format, a...) }

// NotFoundf returns a not found error
func NotFoundf(format string, a ...any) error { return Newf(ErrorCodeNotFound, format, a...) }

// Retry semantics

// Retryable reports whether a remote call that failed with err is worth repeating.
// Upstream 5xx, timeouts and connection failures are; caller cancellation is not.
// Postgres contention is delegated to IsRetryable in pg.go
func Retryable(err error) bool {
	if err == nil {
		return false
	}
	switch CodeOf(err) {
	case ErrorCodeUnavailable, ErrorCodeTimeout:
		return true
	case ErrorCodeCanceled:
		return false
	}
	return IsRetryable(err)
}

// Fatal reports whether err belongs to the abort-the-run class
func Fatal(err error) bool {
	switch CodeOf(err) {
	case ErrorCodePrecondition, ErrorCodeValidation, ErrorCodeCanceled:
		return true
	}
	return false
}
