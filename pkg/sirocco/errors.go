package sirocco

import (
	"errors"
	"fmt"
)

// ErrorKind classifies why a call failed.
type ErrorKind string

const (
	// KindValidation marks a parameter rejected before any request was sent.
	KindValidation ErrorKind = "validation"
	// KindStatus marks a response with a status other than 200.
	KindStatus ErrorKind = "status"
	// KindTransport marks network failures and undecodable bodies.
	KindTransport ErrorKind = "transport"
)

var (
	ErrInvalidRun   = errors.New("run is not an integer")
	ErrInvalidDate  = errors.New("date does not match YYYY-MM-DD HH:MM:SS")
	ErrInvalidAhead = errors.New("lead time is negative")
	ErrAheadOrder   = errors.New("end_ahead is not greater than init_ahead")
)

// Error is returned by every client operation. Message is the user-facing
// diagnostic and is what Error() returns.
type Error struct {
	Kind       ErrorKind
	Field      string
	StatusCode int
	Message    string
	Err        error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// IsValidation reports whether err is a local parameter validation failure.
func IsValidation(err error) bool { return hasKind(err, KindValidation) }

// IsStatus reports whether err is a non-200 response.
func IsStatus(err error) bool { return hasKind(err, KindStatus) }

// IsTransport reports whether err is a network or decode failure.
func IsTransport(err error) bool { return hasKind(err, KindTransport) }

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var e *Error
	if errors.As(err, &e) {
		return e.StatusCode
	}
	return 0
}

func hasKind(err error, kind ErrorKind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}

func validationError(field, message string, cause error) *Error {
	return &Error{
		Kind:    KindValidation,
		Field:   field,
		Message: message,
		Err:     cause,
	}
}

func statusError(code int) *Error {
	return &Error{
		Kind:       KindStatus,
		StatusCode: code,
		Message:    fmt.Sprintf("Error: Received response with status code %d", code),
	}
}

func transportError(err error) *Error {
	return &Error{
		Kind:    KindTransport,
		Message: fmt.Sprintf("Error: An exception occurred - %v", err),
		Err:     err,
	}
}
