package datashare

import "errors"

var (
	// ErrNotFound is returned when a resource is not found
	ErrNotFound = errors.New("not found")
	// ErrInternal is returned when an internal error occurs
	ErrInternal = errors.New("internal error")
	// ErrInvalidInput is returned when input validation fails
	ErrInvalidInput = errors.New("invalid input")
	// ErrUnauthorized is returned when a request carries no usable identity
	ErrUnauthorized = errors.New("unauthorized")

	// ErrUnknownToken is returned when a share token does not resolve to a live file
	ErrUnknownToken = errors.New("unknown token")
	// ErrExpiredToken is returned when a share token exists but is past its expiry
	ErrExpiredToken = errors.New("expired token")
	// ErrTokenCollision is returned by repositories when a generated token is already taken
	ErrTokenCollision = errors.New("token collision")
	// ErrNotOwner is returned when a principal acts on a file it does not own
	ErrNotOwner = errors.New("not owner of the file")

	// ErrFileTooLarge is returned when an upload exceeds MaxUploadSize
	ErrFileTooLarge = errors.New("file too large")
	// ErrForbiddenType is returned when an upload has a denied extension
	ErrForbiddenType = errors.New("file type not allowed")

	// ErrEmailInUse is returned when registering an email that already exists
	ErrEmailInUse = errors.New("email already in use")
	// ErrInvalidCredentials is returned when an email/password pair does not match
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrWeakSecret is returned when the signing secret is shorter than 256 bits
	ErrWeakSecret = errors.New("signing secret must be at least 32 bytes")
	// ErrInvalidCredential is returned when a session credential fails verification
	ErrInvalidCredential = errors.New("invalid credential")
	// ErrExpiredCredential is returned when a session credential is past its expiry
	ErrExpiredCredential = errors.New("expired credential")
)
