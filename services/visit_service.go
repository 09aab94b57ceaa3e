package services

import (
	"context"
	"fmt"

	"github.com/roadrunner/api-go/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type VisitService struct {
	DB *gorm.DB
}

// MarkVisited records that the user visited the place. Repeated calls keep the
// first visited_at and only replace notes with a non-empty value.
func (s *VisitService) MarkVisited(ctx context.Context, userID, placeID uint, notes string) (*models.UserPlaceVisit, error) {
	db := s.DB.WithContext(ctx)
	var place models.Place
	if err := db.Select("id").First(&place, placeID).Error; err != nil {
		return nil, notFound(err)
	}

	visit := models.UserPlaceVisit{UserID: userID, PlaceID: placeID, Notes: notes}
	err := db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "place_id"}},
		DoUpdates: clause.Set{{
			Column: clause.Column{Name: "notes"},
			Value:  gorm.Expr("CASE WHEN EXCLUDED.notes <> '' THEN EXCLUDED.notes ELSE user_place_visits.notes END"),
		}},
	}).Create(&visit).Error
	if err != nil {
		return nil, fmt.Errorf("upsert visit: %w", err)
	}

	var stored models.UserPlaceVisit
	if err := db.Where("user_id = ? AND place_id = ?", userID, placeID).First(&stored).Error; err != nil {
		return nil, fmt.Errorf("load visit: %w", err)
	}
	return &stored, nil
}
