package models

import (
	"time"
)

const (
	UserStatusActive = "active"
)

type User struct {
	ID            uint           `gorm:"primaryKey;autoIncrement" json:"id"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	Username      string         `gorm:"uniqueIndex;not null;size:50" json:"username"`
	Email         string         `gorm:"uniqueIndex;not null" json:"email"`
	Password      string         `gorm:"not null" json:"-"` // bcrypt hash
	Status        string         `gorm:"not null;default:'active';size:20" json:"status"`
	IsActive      bool           `gorm:"not null;default:true" json:"-"`
	ProfilePhoto  string         `json:"profile_photo"` // storage key
	GoogleID      *string        `gorm:"uniqueIndex" json:"-"`
	Cities        []City         `gorm:"many2many:user_cities;constraint:OnDelete:CASCADE" json:"-"`
	RefreshTokens []RefreshToken `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}
