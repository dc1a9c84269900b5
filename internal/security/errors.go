package security

import "errors"

var (
	ErrActivityNotFound = errors.New("suspicious activity record not found")
)
