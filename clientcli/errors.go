package clientcli

import "errors"

// Errors for profile operations.
var (
	ErrProfileNotFound = errors.New("profile not found")
	ErrNoProfiles      = errors.New("no profiles configured")
	ErrProfileExists   = errors.New("profile already exists")
)

// Errors for configuration and session state.
var (
	ErrConfigRequired = errors.New("config is required")
	ErrNotLoggedIn    = errors.New("not logged in")
	ErrNoSession      = errors.New("login response carried no session cookie")
)

// Errors for input validation.
var (
	ErrNoTokens      = errors.New("no tokens provided")
	ErrEmptyToken    = errors.New("token is required")
	ErrEmptyPath     = errors.New("path is required")
	ErrEmailRequired = errors.New("email is required")
)
