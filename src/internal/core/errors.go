// FILE: logvault/src/internal/core/errors.go
package core

import "errors"

// Error taxonomy shared by all components. Callers wrap these with context and the
// HTTP boundary maps them to status codes with errors.Is.
var (
	ErrAuthMissing        = errors.New("no token provided")
	ErrAuthInvalid        = errors.New("invalid token")
	ErrPermissionDenied   = errors.New("permission denied")
	ErrDuplicateUsername  = errors.New("username already exists")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrInvalidUser        = errors.New("invalid user")
	ErrInvalidQuery       = errors.New("invalid query")
	ErrBadRequest         = errors.New("bad request")
	ErrTooManyAttempts    = errors.New("too many attempts")
	ErrPersistence        = errors.New("persistence error")
)
