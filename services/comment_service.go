package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/roadrunner/api-go/models"
	"github.com/roadrunner/api-go/notify"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type CommentService struct {
	DB       *gorm.DB
	Notifier notify.Publisher
	Log      *zap.Logger
}

// Post stores a comment and, once committed, tells the place owner about it.
func (s *CommentService) Post(ctx context.Context, userID, placeID uint, text string) (*CommentView, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, FieldError("text", "This field may not be blank.")
	}

	db := s.DB.WithContext(ctx)
	var place models.Place
	if err := db.Select("id", "name", "created_by_id").First(&place, placeID).Error; err != nil {
		return nil, notFound(err)
	}

	comment := models.PlaceComment{UserID: userID, PlaceID: placeID, Text: text}
	if err := db.Create(&comment).Error; err != nil {
		return nil, fmt.Errorf("create comment: %w", err)
	}
	if err := db.Select("id", "username", "email").First(&comment.User, userID).Error; err != nil {
		return nil, fmt.Errorf("load commenter: %w", err)
	}

	s.notifyOwner(ctx, &place, &comment)
	view := commentView(&comment)
	return &view, nil
}

func (s *CommentService) notifyOwner(ctx context.Context, place *models.Place, comment *models.PlaceComment) {
	if s.Notifier == nil || place.CreatedByID == nil || *place.CreatedByID == comment.UserID {
		return
	}

	var owner models.User
	if err := s.DB.WithContext(ctx).Select("id", "email").First(&owner, *place.CreatedByID).Error; err != nil {
		s.Log.Warn("comment notification skipped", zap.Error(err), zap.Uint("place_id", place.ID))
		return
	}

	event := notify.CommentPosted{
		CommentID:      comment.ID,
		PlaceID:        place.ID,
		PlaceName:      place.Name,
		SenderID:       comment.UserID,
		SenderName:     comment.User.Username,
		RecipientID:    owner.ID,
		RecipientEmail: owner.Email,
		Text:           comment.Text,
		PostedAt:       time.Now(),
	}
	if err := s.Notifier.Publish(ctx, event); err != nil {
		s.Log.Warn("comment notification not queued",
			zap.Error(err),
			zap.Uint("comment_id", comment.ID),
			zap.Uint("recipient_id", owner.ID),
		)
	}
}

// List returns a place's comments, newest first.
func (s *CommentService) List(ctx context.Context, placeID uint, pageNumber, pageSize int) ([]CommentView, Page, error) {
	number, size := NormalizePage(pageNumber, pageSize)
	page := Page{Number: number, Size: size}

	db := s.DB.WithContext(ctx)
	var place models.Place
	if err := db.Select("id").First(&place, placeID).Error; err != nil {
		return nil, page, notFound(err)
	}

	q := db.Model(&models.PlaceComment{}).Where("place_id = ?", placeID).Session(&gorm.Session{})
	if err := q.Count(&page.Total).Error; err != nil {
		return nil, page, fmt.Errorf("count comments: %w", err)
	}

	var comments []models.PlaceComment
	err := q.Preload("User").
		Order("created_at DESC, id DESC").
		Offset(page.offset()).Limit(page.Size).
		Find(&comments).Error
	if err != nil {
		return nil, page, fmt.Errorf("list comments: %w", err)
	}

	views := make([]CommentView, 0, len(comments))
	for i := range comments {
		views = append(views, commentView(&comments[i]))
	}
	return views, page, nil
}
