package model

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"gorm.io/gorm"
)

// LoginPattern records one (user, IP, user-agent) combination seen on login.
// The user-agent column is too wide for a MySQL unique index, so uniqueness
// is enforced over a digest of it instead.
type LoginPattern struct {
	ID                uint   `gorm:"primarykey"`
	UserID            uint   `gorm:"not null;index:idx_login_pattern,unique"`
	IPAddress         string `gorm:"size:45;not null;index:idx_login_pattern,unique"`
	UserAgentHash     string `gorm:"size:64;not null;index:idx_login_pattern,unique"`
	UserAgent         string `gorm:"size:512;not null"`
	Location          string `gorm:"size:128"`
	DeviceFingerprint string `gorm:"size:128"`
	LoginCount        int    `gorm:"default:1;not null"`
	FirstSeenAt       time.Time
	LastSeenAt        time.Time `gorm:"index"`
}

func (p *LoginPattern) BeforeCreate(tx *gorm.DB) error {
	if p.ID == 0 {
		p.ID = GenerateID()
	}
	if p.UserAgentHash == "" {
		p.UserAgentHash = HashUserAgent(p.UserAgent)
	}
	return nil
}

func HashUserAgent(userAgent string) string {
	sum := sha256.Sum256([]byte(userAgent))
	return hex.EncodeToString(sum[:])
}
