package lesson

import (
	"errors"
	"fmt"
)

// ErrorCode classifies session errors.
type ErrorCode string

const (
	CodeValidation        ErrorCode = "VALIDATION"         // bad input, rejected before any collaborator call
	CodeGeneration        ErrorCode = "GENERATION"         // AI backend unreachable or returned an empty result
	CodeMalformedResponse ErrorCode = "MALFORMED_RESPONSE" // AI response did not parse into the expected shape
	CodePersistence       ErrorCode = "PERSISTENCE"        // store unreachable or rejected the write
)

// Error is a structured session error with a classification code.
type Error struct {
	Code    ErrorCode
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Retryable reports whether re-issuing the same action can succeed.
// Everything except a validation failure is worth retrying: generation
// and malformed-response failures are usually transient backend
// variance, and persistence failures never discard in-memory state.
func (e *Error) Retryable() bool { return e.Code != CodeValidation }

// NewValidationError creates an input-rejection error. The record is
// guaranteed unchanged when one is returned.
func NewValidationError(msg string) *Error {
	return &Error{Code: CodeValidation, Message: msg}
}

// NewGenerationError creates an AI-backend failure error.
func NewGenerationError(msg string, err error) *Error {
	return &Error{Code: CodeGeneration, Message: msg, Err: err}
}

// NewMalformedResponseError creates an unparsable-AI-response error.
func NewMalformedResponseError(msg string, err error) *Error {
	return &Error{Code: CodeMalformedResponse, Message: msg, Err: err}
}

// NewPersistenceError creates a store failure error.
func NewPersistenceError(msg string, err error) *Error {
	return &Error{Code: CodePersistence, Message: msg, Err: err}
}

// CodeOf returns the classification code of err, or "" if err is not a
// session error.
func CodeOf(err error) ErrorCode {
	var se *Error
	if errors.As(err, &se) {
		return se.Code
	}
	return ""
}
