package models

import (
	"time"
)

type Notification struct {
	ID          uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	CreatedAt   time.Time `json:"created_at"`
	RecipientID uint      `gorm:"not null;index" json:"recipient_id"`
	Recipient   User      `gorm:"foreignKey:RecipientID;constraint:OnDelete:CASCADE" json:"-"`
	SenderID    uint      `gorm:"not null" json:"sender_id"`
	Sender      User      `gorm:"foreignKey:SenderID;constraint:OnDelete:CASCADE" json:"-"`
	Message     string    `gorm:"type:text;not null" json:"message"`
	IsRead      bool      `gorm:"not null;default:false" json:"is_read"`
}
