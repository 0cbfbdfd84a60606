package session

import "errors"

var (
	// ErrInvalidResponse indicates the login payload had no user id.
	ErrInvalidResponse = errors.New("invalid response from server")
	// ErrNotLoggedIn indicates no identity is stored.
	ErrNotLoggedIn = errors.New("not logged in")
	// ErrMissingCredentials indicates an empty email or password.
	ErrMissingCredentials = errors.New("email and password are required")
)

// DefaultLoginMessage is shown when the server gives no reason for a failed login.
const DefaultLoginMessage = "Invalid email or password"

// DefaultRegisterMessage is shown when the server gives no reason for a failed registration.
const DefaultRegisterMessage = "Registration failed"

// LoginError is a failed login or registration, carrying the message to show.
type LoginError struct {
	Message string
	Err     error
}

func (e *LoginError) Error() string {
	return e.Message
}

func (e *LoginError) Unwrap() error {
	return e.Err
}
