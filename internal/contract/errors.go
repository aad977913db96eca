package contract

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes contract failures. Every failed invocation
// surfaces exactly one code to the submitting caller; the platform
// discards all of the invocation's writes on any failure.
type ErrorCode string

const (
	// CodeUnauthorized indicates the caller's role is not permitted
	// to perform the operation.
	CodeUnauthorized ErrorCode = "UNAUTHORIZED"

	// CodeNotFound indicates a referenced flight or reservation is absent.
	CodeNotFound ErrorCode = "NOT_FOUND"

	// CodeAlreadyExists indicates a duplicate creation.
	CodeAlreadyExists ErrorCode = "ALREADY_EXISTS"

	// CodeInvalidArgument indicates malformed or out-of-range input.
	CodeInvalidArgument ErrorCode = "INVALID_ARGUMENT"

	// CodeResourceExhausted indicates the flight-number space for a
	// carrier is fully allocated.
	CodeResourceExhausted ErrorCode = "RESOURCE_EXHAUSTED"

	// CodeNotImplemented indicates an unrecognized operation name.
	CodeNotImplemented ErrorCode = "NOT_IMPLEMENTED"
)

// Error is a typed contract failure. Key names the ledger key or
// reservation involved, when one exists.
type Error struct {
	Code    ErrorCode
	Message string
	Key     string
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("%s: %s (key=%s)", e.Code, e.Message, e.Key)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// CodeOf extracts the error code from a (possibly wrapped) contract
// error. Returns "" for non-contract errors.
func CodeOf(err error) ErrorCode {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Code
	}
	return ""
}

// IsNotFound reports whether err is a NOT_FOUND contract error.
func IsNotFound(err error) bool { return CodeOf(err) == CodeNotFound }

// IsUnauthorized reports whether err is an UNAUTHORIZED contract error.
func IsUnauthorized(err error) bool { return CodeOf(err) == CodeUnauthorized }

func errUnauthorizedf(format string, args ...any) *Error {
	return &Error{Code: CodeUnauthorized, Message: fmt.Sprintf(format, args...)}
}

func errNotFound(key string) *Error {
	return &Error{Code: CodeNotFound, Message: "the flight does not exist", Key: key}
}

func errInvalidArgumentf(format string, args ...any) *Error {
	return &Error{Code: CodeInvalidArgument, Message: fmt.Sprintf(format, args...)}
}
