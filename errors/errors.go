package errors

import (
	stderrors "errors"
	"fmt"
	"io/fs"

	crdb "github.com/cockroachdb/errors"
)

// Error is the error type shared by all stages.
type Error struct {
	// Code is a machine-readable classification.
	Code Code `json:"code"`
	// Message is a short human-readable description.
	Message string `json:"message"`
	// Details contains additional context such as the package path.
	Details map[string]any `json:"details,omitempty"`
	// Cause is the underlying failure.
	Cause error `json:"-"`
}

// Error returns the string representation of the error.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause of the error.
func (e *Error) Unwrap() error { return e.Cause }

// WithCause sets the cause, attaching a stack trace, and returns the receiver.
func (e *Error) WithCause(cause error) *Error {
	if cause != nil {
		cause = crdb.WithStackDepth(cause, 1)
	}
	e.Cause = cause
	return e
}

// WithDetail sets a single detail key-value pair and returns the receiver.
func (e *Error) WithDetail(key string, value any) *Error {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// New creates an Error without a cause.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Newf creates an Error with a formatted message.
func Newf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap classifies err under code. It returns nil when err is nil so it can
// be used directly on a return path.
func Wrap(err error, code Code, message string) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: message, Cause: crdb.WithStackDepth(err, 1)}
}

// Wrapf is Wrap with a formatted message.
func Wrapf(err error, code Code, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Cause: crdb.WithStackDepth(err, 1)}
}

// --- Common constructors ---

// IO creates an Error for a failed filesystem operation on path.
func IO(op, path string, cause error) *Error {
	code := CodeIO
	if stderrors.Is(cause, fs.ErrNotExist) {
		code = CodeNotFound
	}
	return (&Error{Code: code, Message: fmt.Sprintf("%s %s", op, path)}).
		WithCause(cause).
		WithDetail("path", path)
}

// InvalidPath creates an Error for a path that is absolute or escapes its root.
func InvalidPath(path string) *Error {
	return (&Error{Code: CodeInvalidPath, Message: fmt.Sprintf("path %q escapes root", path)}).
		WithDetail("path", path)
}

// Unsupported creates an Error for content with no registered handler.
func Unsupported(kind, name string) *Error {
	return (&Error{Code: CodeUnsupported, Message: fmt.Sprintf("unsupported %s %q", kind, name)}).
		WithDetail(kind, name)
}

// Decode creates an Error for content that could not be decoded.
func Decode(what string, cause error) *Error {
	return (&Error{Code: CodeDecode, Message: "decode " + what}).WithCause(cause)
}

// Encode creates an Error for content that could not be encoded.
func Encode(what string, cause error) *Error {
	return (&Error{Code: CodeEncode, Message: "encode " + what}).WithCause(cause)
}

// External creates an Error for a failure reported by a remote service.
func External(service string, cause error) *Error {
	return (&Error{Code: CodeExternal, Message: service}).
		WithCause(cause).
		WithDetail("service", service)
}

// Closed creates an Error for use of a closed channel or stream.
func Closed(what string) *Error {
	return &Error{Code: CodeClosed, Message: what + " closed"}
}

// --- Inspection ---

// Is, As and Unwrap follow the standard library semantics and also see
// through cockroachdb wrappers.
var (
	Is     = crdb.Is
	As     = crdb.As
	Unwrap = crdb.Unwrap
)

// Join returns an error wrapping all non-nil errs, or nil when there are none.
func Join(errs ...error) error {
	return stderrors.Join(errs...)
}

// CodeOf returns the code of the outermost *Error in err's chain, or
// CodeInternal when err carries no code.
func CodeOf(err error) Code {
	var e *Error
	if crdb.As(err, &e) {
		return e.Code
	}
	return CodeInternal
}

// IsCode reports whether any *Error in err's chain has the given code.
func IsCode(err error, code Code) bool {
	switch e := err.(type) {
	case nil:
		return false
	case *Error:
		if e.Code == code {
			return true
		}
		return IsCode(e.Cause, code)
	case interface{ Unwrap() []error }:
		for _, inner := range e.Unwrap() {
			if IsCode(inner, code) {
				return true
			}
		}
		return false
	default:
		return IsCode(stderrors.Unwrap(err), code)
	}
}
