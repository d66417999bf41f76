package fileaccess

import (
	"errors"
	"fmt"
	"io/fs"
)

// Code classifies file access failures. The values double as the wire codes of the HTTP API.
type Code string

const (
	CodeInvalidPath Code = "INVALID_PATH"
	CodeNotAFile    Code = "NOT_A_FILE"
	CodeNonText     Code = "NON_TEXT"
	CodeOverLimit   Code = "OVER_LIMIT"
	CodeConflict    Code = "CONFLICT"
	CodeNotFound    Code = "NOT_FOUND"
	CodeInternal    Code = "INTERNAL"
)

var (
	ErrInvalidPath = &Error{Code: CodeInvalidPath}
	ErrNotAFile    = &Error{Code: CodeNotAFile}
	ErrNonText     = &Error{Code: CodeNonText}
	ErrOverLimit   = &Error{Code: CodeOverLimit}
	ErrConflict    = &Error{Code: CodeConflict}
	ErrNotFound    = &Error{Code: CodeNotFound}
)

// Error is returned by every Accessor operation that fails.
// CurrentDigest is only set for CodeConflict.
type Error struct {
	Code          Code
	Message       string
	CurrentDigest string
	Err           error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = string(e.Code)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports a match on Code so callers can use errors.Is(err, ErrConflict).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// CodeOf returns the classification of err, CodeInternal for anything unrecognized.
func CodeOf(err error) Code {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Code
	}
	if errors.Is(err, fs.ErrNotExist) {
		return CodeNotFound
	}
	return CodeInternal
}

func newError(code Code, msg string, err error) *Error {
	return &Error{Code: code, Message: msg, Err: err}
}

func conflictError(currentDigest string) *Error {
	return &Error{
		Code:          CodeConflict,
		Message:       "file changed since it was read",
		CurrentDigest: currentDigest,
	}
}
