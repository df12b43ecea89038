/*
Package errs provides custom error types and application-level error code constants.

This file defines the CustomError struct. It implements the standard Go error interface and
carries a business code, a user-friendly message, the HTTP status that produced it, optional
field details, and the underlying cause.
*/
package errs

import (
	"errors"
	"fmt"
	"strings"

	"oasip/internal/pkg/logx"
)

// CustomError is the error type returned by every client operation.
type CustomError struct {
	// Code is the business error code (see constants definition).
	Code int

	// Message is the user-friendly error description.
	Message string

	// Status is the HTTP status code received, or 0 when no response was received.
	Status int

	// Details holds per-field messages, from server validation (400) or client-side validation.
	Details map[string]string

	// Err is the underlying cause, if any.
	Err error
}

// Error implements the standard Go error interface.
func (e CustomError) Error() string {
	msg := fmt.Sprintf("Error Code %d (HTTP %d): %s", e.Code, e.Status, e.Message)
	if len(e.Details) > 0 {
		parts := make([]string, 0, len(e.Details))
		for field, detail := range e.Details {
			parts = append(parts, field+": "+detail)
		}
		msg += " [" + strings.Join(parts, "; ") + "]"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap exposes the underlying cause to errors.Is and errors.As.
func (e CustomError) Unwrap() error {
	return e.Err
}

// Is reports whether target is a CustomError with the same code.
func (e CustomError) Is(target error) bool {
	var t *CustomError
	if errors.As(target, &t) {
		return t.Code == e.Code
	}
	return false
}

// NewError constructs a new *CustomError from a predefined error code.
// Optional details are printf-style arguments for message templates containing verbs.
// An unknown code yields ErrUnknown.
func NewError(code int, details ...any) *CustomError {
	templateErr, ok := errorMap[code]

	if !ok {
		logx.Error(
			fmt.Errorf("attempted to create an error with an unknown code in errorMap"),
			"Unknown error code requested",
			"requested_code", code,
		)

		unknownErr := errorMap[ErrUnknown]
		return &CustomError{
			Code:    unknownErr.Code,
			Message: unknownErr.Message,
			Status:  unknownErr.Status,
		}
	}

	customErr := templateErr

	if len(details) > 0 {
		if strings.Contains(customErr.Message, "%") {
			customErr.Message = fmt.Sprintf(customErr.Message, details...)
		} else {
			logx.Warn(
				"Details provided for error, but message template has no formatting placeholders. Details ignored.",
				"code", code,
			)
		}
	}

	return &customErr
}

// Wrap builds a CustomError for code with cause attached.
func Wrap(code int, cause error, details ...any) *CustomError {
	customErr := NewError(code, details...)
	customErr.Err = cause
	return customErr
}

// WithStatus sets the received HTTP status and returns the receiver.
func (e *CustomError) WithStatus(status int) *CustomError {
	e.Status = status
	return e
}

// WithMessage replaces the message when msg is non-empty and returns the receiver.
func (e *CustomError) WithMessage(msg string) *CustomError {
	if msg != "" {
		e.Message = msg
	}
	return e
}

// WithDetails attaches field details and returns the receiver.
func (e *CustomError) WithDetails(details map[string]string) *CustomError {
	if len(details) > 0 {
		e.Details = details
	}
	return e
}

// CodeOf returns the code of the first CustomError in err's chain, or 0.
func CodeOf(err error) int {
	var customErr *CustomError
	if errors.As(err, &customErr) {
		return customErr.Code
	}
	return 0
}

// Is reports whether err carries the given code.
func Is(err error, code int) bool {
	return err != nil && CodeOf(err) == code
}
