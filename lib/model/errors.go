package model

import (
	"fmt"
	"github.com/cockroachdb/errors"
)

// --------------------------------------------------------------------------
// Error Codes
// --------------------------------------------------------------------------

type ErrCode uint64

const (
	ErrCInvalidEntity      ErrCode = iota + 1 // 1: Referenced entity was never allocated in this dataset.
	ErrCDecoding                              // 2: Truncated or malformed key or value bytes.
	ErrCCorruptedInterning                    // 3: An interning entry that must exist is missing.
	ErrCDuplicateContext                      // 4: More than one statement stored under one context.
	ErrCStore                                 // 5: The underlying ordered store failed.
	ErrCInvalidArgument                       // 6: Malformed input (names, ranges, closed transactions).
)

func (c ErrCode) String() string {
	switch c {
	case ErrCInvalidEntity:
		return "InvalidEntity"
	case ErrCDecoding:
		return "DecodingError"
	case ErrCCorruptedInterning:
		return "CorruptedInterning"
	case ErrCDuplicateContext:
		return "DuplicateContext"
	case ErrCStore:
		return "StoreError"
	case ErrCInvalidArgument:
		return "InvalidArgument"
	default:
		return "Unknown"
	}
}

// --------------------------------------------------------------------------
// Custom Error Type
// --------------------------------------------------------------------------

// Error carries an error code, a message and an optional cause.
// Two errors match with errors.Is when their codes are equal, so callers can test
// against the exported sentinels:
//
//	if errors.Is(err, model.ErrDuplicateContext) { ... }
type Error struct {
	Code ErrCode // The error code
	Msg  string  // The error message
	Err  error   // The cause, may be nil
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Msg)
}

// Unwrap returns the cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error with the same code.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// Sentinels for errors.Is checks.
var (
	ErrInvalidEntity      = &Error{Code: ErrCInvalidEntity, Msg: "invalid entity"}
	ErrDecoding           = &Error{Code: ErrCDecoding, Msg: "decoding error"}
	ErrCorruptedInterning = &Error{Code: ErrCCorruptedInterning, Msg: "corrupted interning state"}
	ErrDuplicateContext   = &Error{Code: ErrCDuplicateContext, Msg: "duplicate context"}
	ErrStore              = &Error{Code: ErrCStore, Msg: "store error"}
	ErrInvalidArgument    = &Error{Code: ErrCInvalidArgument, Msg: "invalid argument"}
)

// NewError creates a new *Error with a formatted message.
func NewError(code ErrCode, format string, args ...interface{}) *Error {
	return &Error{
		Code: code,
		Msg:  fmt.Sprintf(format, args...),
	}
}

// WrapError creates a new *Error with a formatted message and a cause.
// The cause is annotated with a stack trace.
func WrapError(code ErrCode, err error, format string, args ...interface{}) *Error {
	return &Error{
		Code: code,
		Msg:  fmt.Sprintf(format, args...),
		Err:  errors.WithStack(err),
	}
}

// StoreError wraps a failure of the ordered store. Errors that already carry a code
// are returned unchanged.
func StoreError(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	var coded *Error
	if errors.As(err, &coded) {
		return err
	}
	return WrapError(ErrCStore, err, format, args...)
}

// CodeOf returns the code of the first *Error in the chain, or 0.
func CodeOf(err error) ErrCode {
	var coded *Error
	if errors.As(err, &coded) {
		return coded.Code
	}
	return 0
}
