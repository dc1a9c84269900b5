package auth

import "errors"

var (
	// ErrInvalidCredentials covers unknown accounts and wrong passwords
	// alike; the two must be indistinguishable to the caller.
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountLocked      = errors.New("account is temporarily locked")
	ErrAccountDisabled    = errors.New("account is disabled")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrSessionNotFound    = errors.New("session not found or already terminated")
)
