// Package apperr defines the error taxonomy shared by the API client,
// the session manager and the views.
package apperr

import (
	"errors"
	"fmt"
)

// AuthenticationError indicates there is no valid session. It is raised
// before any request is sent.
type AuthenticationError struct {
	Message string
}

func (e *AuthenticationError) Error() string {
	if e.Message == "" {
		return "not authenticated"
	}
	return e.Message
}

// ValidationError indicates client-side input was rejected.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// NetworkError wraps a transport failure (DNS, refused connection,
// timeout, unreadable body).
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error: %v", e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// APIError is a non-2xx response. Detail carries the server's "detail"
// string, or an operation-specific fallback.
type APIError struct {
	Status int
	Detail string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error (%d): %s", e.Status, e.Detail)
}

// FormatError indicates a response body did not have the expected shape.
type FormatError struct {
	Message string
}

func (e *FormatError) Error() string {
	return e.Message
}

// NotAuthenticated returns an AuthenticationError with the given message.
func NotAuthenticated(msg string) error {
	return &AuthenticationError{Message: msg}
}

// Invalid returns a ValidationError for field.
func Invalid(field, msg string) error {
	return &ValidationError{Field: field, Message: msg}
}

// IsAuthError reports whether err (or any error in its chain) is an
// AuthenticationError, or an APIError with status 401.
func IsAuthError(err error) bool {
	var authErr *AuthenticationError
	if errors.As(err, &authErr) {
		return true
	}
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == 401
}

// IsValidationError reports whether err is a ValidationError.
func IsValidationError(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// IsNetworkError reports whether err is a NetworkError.
func IsNetworkError(err error) bool {
	var n *NetworkError
	return errors.As(err, &n)
}

// IsFormatError reports whether err is a FormatError.
func IsFormatError(err error) bool {
	var f *FormatError
	return errors.As(err, &f)
}

// AsAPIError returns the APIError in err's chain, if any.
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}
