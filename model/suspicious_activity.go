package model

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Activity types.
const (
	ActivityUnusualLoginTime    = "UNUSUAL_LOGIN_TIME"
	ActivityUnusualLocation     = "UNUSUAL_LOCATION"
	ActivityUnusualDevice       = "UNUSUAL_DEVICE"
	ActivityRapidLoginAttempts  = "RAPID_LOGIN_ATTEMPTS"
	ActivityConcurrentLogins    = "CONCURRENT_LOGINS"
	ActivityBruteForceAttack    = "BRUTE_FORCE_ATTACK"
	ActivityPasswordSprayAttack = "PASSWORD_SPRAY_ATTACK"
)

// Severities, derived from the risk score unless a detector pins one.
const (
	SeverityLow      = "LOW"
	SeverityMedium   = "MEDIUM"
	SeverityHigh     = "HIGH"
	SeverityCritical = "CRITICAL"
)

// Review statuses. Records are created as DETECTED and only leave that
// state through an explicit reviewer action.
const (
	StatusDetected  = "DETECTED"
	StatusResolved  = "RESOLVED"
	StatusDismissed = "DISMISSED"
	StatusEscalated = "ESCALATED"
)

// SuspiciousActivity is a flagged security event awaiting triage. UserID is
// nullable: brute-force and spray detections are scoped to an IP, not a user.
type SuspiciousActivity struct {
	ID                uint           `gorm:"primarykey"`
	ReferenceID       string         `gorm:"uniqueIndex;size:36;not null"`
	UserID            *uint          `gorm:"index"`
	User              *User          `gorm:"foreignKey:UserID;references:ID"`
	ActivityType      string         `gorm:"size:32;not null;index"`
	Severity          string         `gorm:"size:16;not null;index"`
	Status            string         `gorm:"size:16;default:DETECTED;not null;index"`
	Description       string         `gorm:"size:512;not null"`
	Details           datatypes.JSON `gorm:"type:json"`
	IPAddress         string         `gorm:"size:45;index"`
	UserAgent         string         `gorm:"size:512"`
	Location          string         `gorm:"size:128"`
	DeviceFingerprint string         `gorm:"size:128"`
	RiskScore         int            `gorm:"not null"`
	Confidence        float64        `gorm:"not null"`
	DetectedAt        time.Time      `gorm:"index;not null"`
	ReviewedBy        *uint
	ReviewedAt        *time.Time
	ReviewNotes       string `gorm:"size:1024"`
}

func (a *SuspiciousActivity) BeforeCreate(tx *gorm.DB) error {
	if a.ID == 0 {
		a.ID = GenerateID()
	}
	return nil
}
