package model

import (
	"time"

	"gorm.io/gorm"
)

// Session is a server-side session row. A session is usable only while
// IsActive is set and ExpiresAt lies in the future; expired rows are swept
// lazily and validation treats them as absent either way.
type Session struct {
	ID             uint      `gorm:"primarykey"`
	Token          string    `gorm:"uniqueIndex;size:64;not null"`
	UserID         uint      `gorm:"index;not null"`
	User           *User     `gorm:"foreignKey:UserID;references:ID"`
	UserAgent      string    `gorm:"size:512;not null"`
	IPAddress      string    `gorm:"size:45;not null"`
	DeviceName     string    `gorm:"size:32;not null"`
	RememberMe     bool      `gorm:"default:false;not null"`
	IsActive       bool      `gorm:"default:true;not null"`
	ExpiresAt      time.Time `gorm:"index;not null"`
	LastActivityAt time.Time `gorm:"not null"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (s *Session) BeforeCreate(tx *gorm.DB) error {
	if s.ID == 0 {
		s.ID = GenerateID()
	}
	return nil
}

// Valid reports whether the session is usable at the given time.
func (s *Session) Valid(now time.Time) bool {
	return s.IsActive && s.ExpiresAt.After(now)
}
