package model

import (
	"time"

	"gorm.io/gorm"
)

type RefreshToken struct {
	ID        uint      `gorm:"primarykey"`
	Token     string    `gorm:"uniqueIndex;size:128;not null"`
	UserID    uint      `gorm:"index;not null"`
	User      *User     `gorm:"foreignKey:UserID;references:ID"`
	Revoked   bool      `gorm:"default:false;not null"`
	ExpiresAt time.Time `gorm:"not null"`
	CreatedAt time.Time
}

func (t *RefreshToken) BeforeCreate(tx *gorm.DB) error {
	if t.ID == 0 {
		t.ID = GenerateID()
	}
	return nil
}
