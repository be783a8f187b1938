package api

import "errors"

// Result is the uniform outcome of an API operation: either Success with
// Data, or a failure with a user-facing Error string. The typed cause is
// available through Err.
type Result[T any] struct {
	Success bool
	Data    *T
	Error   string

	cause error
}

// Success returns a successful Result carrying data (which may be nil
// for bodiless responses).
func Success[T any](data *T) Result[T] {
	return Result[T]{Success: true, Data: data}
}

// Failure returns a failed Result with msg as its user-facing text.
func Failure[T any](msg string, cause error) Result[T] {
	return Result[T]{Error: msg, cause: cause}
}

// Err returns nil for a successful Result, otherwise the typed cause
// (apperr.NetworkError, apperr.APIError, ...) or a plain error carrying
// the message.
func (r Result[T]) Err() error {
	if r.Success {
		return nil
	}
	if r.cause != nil {
		return r.cause
	}
	return errors.New(r.Error)
}
