package models

import (
	"time"
)

type RefreshToken struct {
	ID        uint `gorm:"primaryKey;autoIncrement"`
	CreatedAt time.Time
	UserID    uint      `gorm:"not null;index"`
	Token     string    `gorm:"not null;uniqueIndex;type:text"`
	ExpiresAt time.Time `gorm:"not null;index"`
}
