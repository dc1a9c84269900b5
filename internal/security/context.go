package security

import "time"

// LoginContext captures the behavioral signals of one login attempt that
// already passed credential verification. Location and DeviceFingerprint
// are optional enrichments supplied by the caller.
type LoginContext struct {
	UserID            uint
	IPAddress         string
	UserAgent         string
	Timestamp         time.Time
	Location          string
	DeviceFingerprint string
}
