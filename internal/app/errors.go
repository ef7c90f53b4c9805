package app

import "errors"

var (
	// ErrInvalidCredentials is returned when the supplied credentials do not
	// match. The message is shown to end users and must not enable account
	// enumeration.
	ErrInvalidCredentials = errors.New("Invalid username or password")

	ErrMissingFields  = errors.New("Missing required fields")
	ErrUsernameExists = errors.New("Username already exists")
	ErrEmailExists    = errors.New("Email already exists")

	ErrEmptyInput       = errors.New("No text provided")
	ErrInvalidVerbosity = errors.New("Verbosity level must be 1, 2, or 3")
	ErrInvalidPersona   = errors.New("Invalid persona selected")
	ErrInvalidProvider  = errors.New("Invalid API provider")
	ErrNoProviders      = errors.New("No API providers configured")

	ErrUserNotFound = errors.New("User not found")
	// ErrSelfDemotion guards an admin against locking themselves out.
	ErrSelfDemotion = errors.New("Cannot remove own admin access")
)
