package cartapi

import "fmt"

// ErrorKind classifies why a backend call did not succeed.
type ErrorKind string

const (
	KindUnauthorized ErrorKind = "UNAUTHORIZED" // no/invalid credential, redirect to login
	KindValidation   ErrorKind = "VALIDATION"   // rejected locally, never sent
	KindNetwork      ErrorKind = "NETWORK"      // transport failure or timeout
	KindServer       ErrorKind = "SERVER"       // non-2xx from the backend
	KindUnknown      ErrorKind = "UNKNOWN"      // anything else
)

// Retryable reports whether the shopper can retry the same action.
func (k ErrorKind) Retryable() bool {
	return k == KindNetwork || k == KindServer || k == KindUnknown
}

// Result is the tagged outcome of every client operation. Expected failures
// are reported here instead of as Go errors.
type Result[T any] struct {
	OK         bool
	Data       T
	Kind       ErrorKind
	Message    string
	StatusCode int // HTTP status when a response was received
}

func success[T any](data T) Result[T] {
	return Result[T]{OK: true, Data: data}
}

func failure[T any](f *callFailure) Result[T] {
	return Result[T]{Kind: f.kind, Message: f.message, StatusCode: f.status}
}

// Err converts a failed result to an *Error, or nil on success.
func (r Result[T]) Err() error {
	if r.OK {
		return nil
	}
	return &Error{Kind: r.Kind, Message: r.Message, StatusCode: r.StatusCode}
}

// Error is the error form of a failed Result.
type Error struct {
	Kind       ErrorKind
	Message    string
	StatusCode int
}

func (e *Error) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s (%d): %s", e.Kind, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// KindOf extracts the kind from an error produced by this package.
func KindOf(err error) ErrorKind {
	if e, ok := err.(*Error); ok {
		return e.Kind
	}
	return KindUnknown
}

type callFailure struct {
	kind    ErrorKind
	message string
	status  int
}
