package model

import (
	"time"

	"gorm.io/gorm"
)

const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"
)

// User stores credentials and the authentication state the login path
// mutates: failed-attempt counter, lock-until timestamp and 2FA material.
type User struct {
	ID                       uint       `gorm:"primarykey"`
	Username                 string     `gorm:"uniqueIndex;size:32;not null"`
	FullName                 string     `gorm:"size:64;not null"`
	Email                    string     `gorm:"uniqueIndex;size:256;not null"`
	Password                 string     `gorm:"size:64;not null"`
	Role                     string     `gorm:"size:16;default:USER;not null"`
	Disabled                 bool       `gorm:"default:false;not null"`
	EmailVerified            bool       `gorm:"default:false;not null"`
	EmailVerificationToken   *string    `gorm:"size:64;index"`
	EmailVerificationExpires *time.Time
	PasswordResetToken       *string `gorm:"size:64;index"`
	PasswordResetExpires     *time.Time
	FailedLoginAttempts      int        `gorm:"default:0;not null"`
	LockedUntil              *time.Time
	TwoFactorEnabled         bool     `gorm:"default:false;not null"`
	TwoFactorSecret          string   `gorm:"size:128"`
	TwoFactorBackupCodes     []string `gorm:"serializer:json;type:json"`
	LastLoginAt              *time.Time
	Sessions                 []Session `gorm:"foreignKey:UserID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	CreatedAt                time.Time
	UpdatedAt                time.Time
	DeletedAt                gorm.DeletedAt `gorm:"index"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == 0 {
		u.ID = GenerateID()
	}
	return nil
}

// Locked reports whether the account is locked out at the given time.
func (u *User) Locked(now time.Time) bool {
	return u.LockedUntil != nil && u.LockedUntil.After(now)
}
