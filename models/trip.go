package models

import (
	"time"
)

// Trip is a journey a user packs for and collects documents against.
type Trip struct {
	ID             uint             `gorm:"primaryKey;autoIncrement" json:"id"`
	CreatedAt      time.Time        `json:"created_at"`
	Name           string           `gorm:"not null;size:100" json:"name"`
	UserID         uint             `gorm:"not null;index" json:"-"`
	User           User             `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	StartDate      time.Time        `gorm:"type:date;not null" json:"-"`
	EndDate        time.Time        `gorm:"type:date;not null" json:"-"`
	DestinationID  uint             `gorm:"not null" json:"-"`
	Destination    City             `gorm:"foreignKey:DestinationID;constraint:OnDelete:CASCADE" json:"-"`
	ChecklistItems []ChecklistItem  `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Documents      []TravelDocument `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

type ChecklistItem struct {
	ID       uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	TripID   uint   `gorm:"not null;index" json:"trip_id"`
	Name     string `gorm:"not null;size:100" json:"name"`
	IsPacked bool   `gorm:"not null;default:false" json:"is_packed"`
}

type TravelDocument struct {
	ID         uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	UploadedAt time.Time `gorm:"autoCreateTime" json:"uploaded_at"`
	TripID     uint      `gorm:"not null;index" json:"trip_id"`
	UserID     uint      `gorm:"not null;index" json:"-"`
	User       User      `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Name       string    `gorm:"not null;size:100" json:"name"`
	File       string    `gorm:"not null" json:"file"` // storage key
}
