package sessions

import "errors"

var (
	// ErrTooManySessions rejects session creation past the per-user cap.
	// Callers surface it as "log out from another device first".
	ErrTooManySessions = errors.New("maximum number of active sessions reached")
)
