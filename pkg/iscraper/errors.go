package iscraper

import (
	"errors"
	"fmt"
)

// ErrorKind discriminates the two ways a call can fail.
type ErrorKind int

const (
	// KindInvalidInput is reported before any network I/O when an argument
	// fails local validation (for example a malformed profile URL).
	KindInvalidInput ErrorKind = iota + 1
	// KindRequestFailed covers every non-200 status and every transport or
	// response decoding failure.
	KindRequestFailed
)

func (k ErrorKind) String() string {
	switch k {
	case KindInvalidInput:
		return "invalid input"
	case KindRequestFailed:
		return "request failed"
	default:
		return "unknown"
	}
}

var (
	// ErrInvalidInput matches any *Error of kind KindInvalidInput via errors.Is.
	ErrInvalidInput = errors.New("iscraper: invalid input")
	// ErrRequestFailed matches any *Error of kind KindRequestFailed via errors.Is.
	ErrRequestFailed = errors.New("iscraper: request failed")
)

// Error is the only error type returned by Client operations.
type Error struct {
	Kind ErrorKind
	// Op is the API operation (e.g. "profile-details") or "parse-id".
	Op string
	// StatusCode is the HTTP status when a response was received, 0 otherwise.
	StatusCode int
	Err        error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	msg := "iscraper: " + e.Op + ": " + e.Kind.String()
	if e.Kind == KindRequestFailed && e.StatusCode != 0 && e.StatusCode != 200 {
		msg += fmt.Sprintf(" with status code %d", e.StatusCode)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is lets errors.Is(err, ErrInvalidInput) and errors.Is(err, ErrRequestFailed)
// discriminate by kind.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrInvalidInput:
		return e.Kind == KindInvalidInput
	case ErrRequestFailed:
		return e.Kind == KindRequestFailed
	}
	return false
}

// IsInvalidInput reports whether err is an invalid input error.
func IsInvalidInput(err error) bool { return errors.Is(err, ErrInvalidInput) }

// IsRequestFailed reports whether err is a failed request error.
func IsRequestFailed(err error) bool { return errors.Is(err, ErrRequestFailed) }

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var e *Error
	if errors.As(err, &e) {
		return e.StatusCode
	}
	return 0
}

func invalidInput(op string, err error) *Error {
	return &Error{Kind: KindInvalidInput, Op: op, Err: err}
}

func requestFailed(op string, status int, err error) *Error {
	return &Error{Kind: KindRequestFailed, Op: op, StatusCode: status, Err: err}
}
