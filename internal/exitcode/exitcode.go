// Package exitcode defines exit codes for the CLI.
package exitcode

import "github.com/nhle/taskdesk/internal/apperr"

const (
	// Success indicates successful completion.
	Success = 0

	// UserError indicates a user error (bad args, rejected input).
	UserError = 1

	// AuthError indicates there is no valid session.
	AuthError = 2

	// BackendError indicates a server, network or response format error.
	BackendError = 3
)

// For maps an error returned by a command to its exit code.
func For(err error) int {
	switch {
	case err == nil:
		return Success
	case apperr.IsAuthError(err):
		return AuthError
	case apperr.IsValidationError(err):
		return UserError
	case apperr.IsNetworkError(err), apperr.IsFormatError(err):
		return BackendError
	}
	if apiErr, ok := apperr.AsAPIError(err); ok {
		// The server rejected the input itself.
		if apiErr.Status >= 400 && apiErr.Status < 500 {
			return UserError
		}
		return BackendError
	}
	return UserError
}
