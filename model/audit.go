package model

import (
	"time"

	"gorm.io/datatypes"
)

// Event types.
const (
	EventUserRegistered         = "USER_REGISTERED"
	EventEmailVerified          = "EMAIL_VERIFIED"
	EventUserLogin              = "USER_LOGIN"
	EventUserLogout             = "USER_LOGOUT"
	EventLoginFailed            = "LOGIN_FAILED"
	EventAccountLocked          = "ACCOUNT_LOCKED"
	EventAccountUnlocked        = "ACCOUNT_UNLOCKED"
	EventPasswordResetRequested = "PASSWORD_RESET_REQUESTED"
	EventPasswordResetCompleted = "PASSWORD_RESET_COMPLETED"
	EventTwoFactorSetup         = "TWO_FACTOR_SETUP"
	EventTwoFactorEnabled       = "TWO_FACTOR_ENABLED"
	EventTwoFactorDisabled      = "TWO_FACTOR_DISABLED"
	EventTwoFactorFailed        = "TWO_FACTOR_VERIFICATION_FAILED"
	EventSessionCreated         = "SESSION_CREATED"
	EventSessionTerminated      = "SESSION_TERMINATED"
	EventAllSessionsTerminated  = "ALL_SESSIONS_TERMINATED"
	EventUserDeactivated        = "USER_DEACTIVATED"
	EventSuspiciousActivity     = "SUSPICIOUS_ACTIVITY"
)

// Event categories.
const (
	CategoryAuthentication = "AUTHENTICATION"
	CategorySecurity       = "SECURITY"
	CategorySession        = "SESSION"
	CategoryUserManagement = "USER_MANAGEMENT"
)

// Event severities.
const (
	AuditInfo    = "INFO"
	AuditWarning = "WARNING"
	AuditError   = "ERROR"
)

// AuditEvent is one append-only audit trail entry. Email carries the
// targeted address of failed logins so the brute-force and spray detectors
// can aggregate affected accounts without unpacking Details.
type AuditEvent struct {
	ID            uint64         `gorm:"primaryKey;autoIncrement"`
	CorrelationID string         `gorm:"size:36;index"` // groups events of one auth attempt
	UserID        *uint          `gorm:"index"`
	Email         string         `gorm:"size:256;index"`
	EventType     string         `gorm:"size:48;not null;index:idx_audit_type_time"`
	Category      string         `gorm:"size:24;not null;index"`
	Severity      string         `gorm:"size:16;not null"`
	Description   string         `gorm:"size:512;not null"`
	Details       datatypes.JSON `gorm:"type:json"`
	IPAddress     string         `gorm:"size:45;index:idx_audit_ip_time"`
	UserAgent     string         `gorm:"size:512"`
	SessionToken  string         `gorm:"size:64"`
	CreatedAt     time.Time      `gorm:"autoCreateTime;index:idx_audit_type_time;index:idx_audit_ip_time"`
}

func (AuditEvent) TableName() string {
	return "audit"
}
