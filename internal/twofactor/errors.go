package twofactor

import "errors"

var (
	ErrNotEnrolled      = errors.New("two-factor authentication not set up")
	ErrAlreadyEnabled   = errors.New("two-factor authentication already enabled")
	ErrNotEnabled       = errors.New("two-factor authentication not enabled")
	ErrCodeVerifyFailed = errors.New("two-factor code verification failed")
)
