// Package domainerrors carries coded errors across service boundaries.
//
// Services return these so transports can map them to responses without
// string matching. Wrap keeps the underlying cause reachable through
// errors.Is / errors.As.
package domainerrors

import (
	"errors"
	"fmt"
)

// Code classifies a domain error.
type Code string

const (
	// CodeValidation marks missing or malformed caller input.
	CodeValidation Code = "validation_error"
	// CodeBadRequest marks a request the transport could not decode.
	CodeBadRequest Code = "bad_request"
	// CodeConfiguration marks a value that could not be derived or configured.
	CodeConfiguration Code = "configuration_error"
	// CodePrecondition marks state that must exist before the operation can run.
	CodePrecondition Code = "precondition_failed"
	// CodeUpstream marks a failed call to a remote document server.
	CodeUpstream Code = "upstream_error"
	CodeNotFound Code = "not_found"
	CodeConflict Code = "conflict"
	CodeUnauthorized Code = "unauthorized"
	CodeTimeout Code = "timeout"
	// CodeInvariantViolation marks a model constructor rejecting its input.
	CodeInvariantViolation Code = "invariant_violation"
	CodeInternal Code = "internal_error"
)

// Error is a coded error with an optional cause.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a coded error without a cause.
func New(code Code, msg string) error {
	return &Error{Code: code, Message: msg}
}

// Wrap attaches a code and message to err. A nil err yields nil.
func Wrap(err error, code Code, msg string) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: msg, Err: err}
}

// CodeOf returns the outermost code in the chain, or CodeInternal for
// errors that carry none.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// HasCode reports whether any error in the chain carries code.
func HasCode(err error, code Code) bool {
	for err != nil {
		var de *Error
		if !errors.As(err, &de) {
			return false
		}
		if de.Code == code {
			return true
		}
		err = de.Err
	}
	return false
}

// Is reports whether the outermost domain error has code.
func Is(err error, code Code) bool {
	var de *Error
	return errors.As(err, &de) && de.Code == code
}

// MessageOf returns the message of the outermost domain error, without the
// cause appended. Non-domain errors return their Error() text.
func MessageOf(err error) string {
	var de *Error
	if errors.As(err, &de) {
		return de.Message
	}
	if err == nil {
		return ""
	}
	return err.Error()
}
