// Package exitcode defines exit codes for the CLI.
package exitcode

import (
	"errors"

	"taskflow/internal/service"
	"taskflow/internal/session"
)

const (
	// Success indicates successful completion.
	Success = 0

	// UserError indicates a user error (bad args, validation, not found).
	UserError = 1

	// AuthError indicates an auth/config error.
	AuthError = 2

	// BackendError indicates a backend/API/network error.
	BackendError = 3
)

// FromError maps an error to an exit code. nil is Success.
func FromError(err error) int {
	if err == nil {
		return Success
	}
	if errors.Is(err, session.ErrNoSession) {
		return AuthError
	}
	switch service.KindOf(err) {
	case service.AuthFailure:
		return AuthError
	case service.ValidationFailure, service.NotFoundFailure, service.UnsupportedFailure:
		return UserError
	default:
		return BackendError
	}
}
