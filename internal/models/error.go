package models

import "errors"

// Sentinel errors for common failure conditions
var (
	ErrNotFound       = errors.New("resource not found")
	ErrConflict       = errors.New("resource already exists")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrBadRequest     = errors.New("bad request")
	ErrInternalServer = errors.New("internal server error")

	ErrRateLimitExceeded = errors.New("rate limit exceeded")

	// Session validation failures
	ErrNoSession      = errors.New("no session")
	ErrSessionExpired = errors.New("session expired")
)

// ValidationError is a client error carrying a field-level message. Input
// validation messages are safe to surface verbatim; they never reveal
// whether an account exists.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// Is makes errors.Is(err, ErrBadRequest) match any validation error.
func (e *ValidationError) Is(target error) bool { return target == ErrBadRequest }
