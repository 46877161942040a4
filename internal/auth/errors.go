package auth

import "errors"

const (
	msgLoginFailed        = "Login failed"
	msgRegistrationFailed = "Registration failed"
)

// ErrNotLoggedIn is returned by operations that need an identity.
var ErrNotLoggedIn = errors.New("not logged in")

// AuthError reports credentials or a registration rejected by the backend.
type AuthError struct {
	Message string
}

func (e *AuthError) Error() string { return e.Message }

// IsAuthError reports whether err is, or wraps, an *AuthError.
func IsAuthError(err error) bool {
	var aerr *AuthError
	return errors.As(err, &aerr)
}
