package services

import (
	"context"
	"fmt"

	"github.com/roadrunner/api-go/models"
	"gorm.io/gorm"
)

type NotificationService struct {
	DB *gorm.DB
}

// List returns the user's notifications newest first. unreadOnly restricts it
// to those not yet marked read.
func (s *NotificationService) List(ctx context.Context, userID uint, unreadOnly bool) ([]models.Notification, error) {
	q := s.DB.WithContext(ctx).Where("recipient_id = ?", userID)
	if unreadOnly {
		q = q.Where("is_read = ?", false)
	}
	notes := []models.Notification{}
	if err := q.Order("created_at DESC, id DESC").Find(&notes).Error; err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	return notes, nil
}

func (s *NotificationService) MarkRead(ctx context.Context, userID, id uint) (*models.Notification, error) {
	db := s.DB.WithContext(ctx)
	var note models.Notification
	if err := db.Where("id = ? AND recipient_id = ?", id, userID).First(&note).Error; err != nil {
		return nil, notFound(err)
	}
	if note.IsRead {
		return &note, nil
	}
	if err := db.Model(&note).Update("is_read", true).Error; err != nil {
		return nil, fmt.Errorf("mark notification read: %w", err)
	}
	note.IsRead = true
	return &note, nil
}
